package find

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"

	"github.com/joshuapare/hexkit/content"
	"github.com/joshuapare/hexkit/pkg/types"
)

func collectMatches(t *testing.T, f *Finder) []Match {
	t.Helper()
	var out []Match
	for {
		m, ok, err := f.NextMatch(context.Background())
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, m)
	}
}

func TestNextMatch_TextCaseInsensitive(t *testing.T) {
	buf := content.FromBytes([]byte("ABCDEFGHIJ"), content.Options{})
	f, err := NewText("efg", buf, false, Options{})
	require.NoError(t, err)

	m, ok, err := f.NextMatch(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Match{Start: 4, Length: 3}, m)
	assert.Equal(t, Found, f.State())

	_, ok, err = f.NextMatch(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, NotFound, f.State())
}

func TestNextMatch_CaseSensitive(t *testing.T) {
	buf := content.FromBytes([]byte("abc ABC abc"), content.Options{})
	f, err := NewText("ABC", buf, true, Options{})
	require.NoError(t, err)
	assert.Equal(t, []Match{{Start: 4, Length: 3}}, collectMatches(t, f))

	f, err = NewText("ABC", buf, false, Options{})
	require.NoError(t, err)
	assert.Equal(t, []Match{{0, 3}, {4, 3}, {8, 3}}, collectMatches(t, f))
}

func TestNextMatch_Determinism(t *testing.T) {
	data := []byte("..needle....needle..")
	buf := content.FromBytes(data, content.Options{})
	f := New([]byte("needle"), buf, Options{})

	m, ok, err := f.NextMatch(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), m.Start)

	f.SetStart(3)
	m, ok, err = f.NextMatch(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(12), m.Start)

	f.SetStart(13)
	_, ok, err = f.NextMatch(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNextMatch_Backward(t *testing.T) {
	buf := content.FromBytes([]byte("ab--ab--ab"), content.Options{})
	f := New([]byte("ab"), buf, Options{})
	f.SetDirection(false)
	f.SetStart(buf.Length())

	assert.Equal(t, []Match{{8, 2}, {4, 2}, {0, 2}}, collectMatches(t, f))
	assert.Equal(t, int64(0), f.Cursor())

	// A match may start before the cursor and end after it.
	f.SetStart(5)
	m, ok, err := f.NextMatch(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Match{Start: 4, Length: 2}, m)
}

func TestNextMatch_AcrossWindowBoundaries(t *testing.T) {
	data := bytes.Repeat([]byte{'.'}, 1000)
	starts := []int64{0, 5, 14, 31, 62, 300, 511, 997}
	for _, s := range starts {
		copy(data[s:], "XYZ")
	}
	buf := content.FromBytes(data, content.Options{})

	for _, window := range []int{1, 6, 7, 16, 64} {
		f := New([]byte("XYZ"), buf, Options{Window: window})
		var got []int64
		for _, m := range collectMatches(t, f) {
			got = append(got, m.Start)
		}
		assert.Equal(t, starts, got, "window %d", window)

		f.SetDirection(false)
		f.SetStart(buf.Length())
		var back []int64
		for _, m := range collectMatches(t, f) {
			back = append([]int64{m.Start}, back...)
		}
		assert.Equal(t, starts, back, "backward window %d", window)
	}
}

func TestNextMatch_EdgeCases(t *testing.T) {
	buf := content.FromBytes([]byte("ABCDEFGHIJ"), content.Options{})

	f := New(nil, buf, Options{})
	_, ok, err := f.NextMatch(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "empty pattern never matches")

	f = New([]byte("HIJK"), buf, Options{})
	f.SetStart(7)
	_, ok, err = f.NextMatch(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "pattern longer than the rest")

	f = New([]byte("J"), buf, Options{})
	f.SetStart(9)
	m, ok, err := f.NextMatch(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Match{Start: 9, Length: 1}, m)
	assert.Equal(t, int64(10), m.End())

	f = New([]byte("A"), buf, Options{})
	f.SetDirection(false)
	f.SetStart(0)
	_, ok, err = f.NextMatch(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "nothing before offset zero")
}

func TestNextMatch_FollowsEdits(t *testing.T) {
	buf := content.FromBytes([]byte("ABCDEFGHIJ"), content.Options{})
	require.NoError(t, buf.Insert([]byte("efg"), 0))
	f, err := NewText("EFG", buf, false, Options{})
	require.NoError(t, err)
	assert.Equal(t, []Match{{0, 3}, {7, 3}}, collectMatches(t, f))
}

func TestNextMatch_Stop(t *testing.T) {
	data := bytes.Repeat([]byte{'.'}, 4096)
	buf := content.FromBytes(data, content.Options{})
	f := New([]byte("x"), buf, Options{Window: 16})

	stopping := &stopAfterReads{Content: buf, f: f, after: 3}
	f.c = stopping
	_, ok, err := f.NextMatch(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, Cancelled, f.State())
	assert.Equal(t, 3, stopping.reads, "stops after the current window")

	// The flag is cleared for the next scan.
	stopping.after = 1 << 30
	_, ok, err = f.NextMatch(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, NotFound, f.State())
}

func TestNextMatch_StopBeforeScan(t *testing.T) {
	data := append(bytes.Repeat([]byte{'.'}, 4096), 'x')
	buf := content.FromBytes(data, content.Options{})
	f := New([]byte("x"), buf, Options{Window: 16})

	f.Stop()
	_, ok, err := f.NextMatch(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, Cancelled, f.State())

	m, ok, err := f.NextMatch(context.Background())
	require.NoError(t, err)
	require.True(t, ok, "a stop is consumed by one scan")
	assert.Equal(t, Match{Start: 4096, Length: 1}, m)

	f.Stop()
	f.SetStart(0)
	m, ok, err = f.NextMatch(context.Background())
	require.NoError(t, err)
	require.True(t, ok, "moving the cursor discards a pending stop")
	assert.Equal(t, int64(4096), m.Start)
}

func TestNextMatch_ContextCancelled(t *testing.T) {
	buf := content.FromBytes([]byte("ABCDEFGHIJ"), content.Options{})
	f := New([]byte("J"), buf, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok, err := f.NextMatch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
	assert.Equal(t, Cancelled, f.State())
}

func TestNextMatch_ReadFailure(t *testing.T) {
	boom := types.Errorf(types.ErrKindIO, errors.New("disk"), "read")
	f := New([]byte("x"), failingContent{err: boom}, Options{})
	_, ok, err := f.NextMatch(context.Background())
	assert.False(t, ok)
	assert.ErrorIs(t, err, types.ErrIO)
	assert.Equal(t, NotFound, f.State())
}

func TestNewText_Charsets(t *testing.T) {
	t.Run("utf-16le folds characters, not bytes", func(t *testing.T) {
		enc := xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM)
		data, err := enc.NewEncoder().Bytes([]byte("--Grüße--"))
		require.NoError(t, err)
		buf := content.FromBytes(data, content.Options{})

		f, err := NewText("GRÜSSE", buf, false, Options{Charset: "UTF-16LE"})
		require.NoError(t, err)
		_, ok, err := f.NextMatch(context.Background())
		require.NoError(t, err)
		assert.False(t, ok, "ß is not a simple folding of ss")

		f, err = NewText("GRÜßE", buf, false, Options{Charset: "UTF-16LE"})
		require.NoError(t, err)
		m, ok, err := f.NextMatch(context.Background())
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, Match{Start: 4, Length: 10}, m)
	})

	t.Run("windows-1252", func(t *testing.T) {
		data, err := charmap.Windows1252.NewEncoder().Bytes([]byte("café CAFÉ"))
		require.NoError(t, err)
		buf := content.FromBytes(data, content.Options{})
		f, err := NewText("Café", buf, false, Options{Charset: "windows-1252"})
		require.NoError(t, err)
		assert.Equal(t, []Match{{0, 4}, {5, 4}}, collectMatches(t, f))
	})

	t.Run("utf-8 multibyte fold", func(t *testing.T) {
		buf := content.FromBytes([]byte("x ΣΙΣΥΦΟΣ x σισυφος"), content.Options{})
		f, err := NewText("σισυφοσ", buf, false, Options{})
		require.NoError(t, err)
		matches := collectMatches(t, f)
		require.Len(t, matches, 2)
		assert.Equal(t, 14, matches[0].Length)
	})

	t.Run("utf-16 matches start on character boundaries", func(t *testing.T) {
		// UTF-16LE units: U+0042 'B', U+4200, U+4200, U+0000. The bytes
		// 42 00 also occur at offsets 3 and 5, straddling characters.
		data := []byte{0x42, 0x00, 0x00, 0x42, 0x00, 0x42, 0x00, 0x00}
		buf := content.FromBytes(data, content.Options{})

		for _, caseSensitive := range []bool{true, false} {
			f, err := NewText("B", buf, caseSensitive, Options{Charset: "UTF-16LE", Window: 4})
			require.NoError(t, err)
			assert.Equal(t, []Match{{0, 2}}, collectMatches(t, f), "forward, case-sensitive=%v", caseSensitive)

			f.SetDirection(false)
			f.SetStart(buf.Length())
			assert.Equal(t, []Match{{0, 2}}, collectMatches(t, f), "backward, case-sensitive=%v", caseSensitive)

			f.SetDirection(true)
			f.SetStart(1)
			assert.Empty(t, collectMatches(t, f), "odd cursor, case-sensitive=%v", caseSensitive)
		}

		buf = content.FromBytes([]byte{0x00, 0x42, 0x00, 0x00}, content.Options{})
		f, err := NewText("B", buf, true, Options{Charset: "UTF-16LE"})
		require.NoError(t, err)
		assert.Empty(t, collectMatches(t, f))
	})

	t.Run("multi-byte legacy charsets are rejected", func(t *testing.T) {
		for _, name := range []string{"Shift_JIS", "EUC-KR", "GBK"} {
			_, err := NewText("x", nil, true, Options{Charset: name})
			assert.ErrorIs(t, err, types.ErrPattern, name)
			_, err = Charset(name)
			assert.ErrorIs(t, err, types.ErrPattern, name)
		}
		_, err := Charset("ISO-8859-15")
		assert.NoError(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := NewText("x", nil, true, Options{Charset: "no-such-charset"})
		assert.ErrorIs(t, err, types.ErrPattern)
	})

	t.Run("unrepresentable", func(t *testing.T) {
		_, err := NewText("€", nil, true, Options{Charset: "latin1"})
		assert.ErrorIs(t, err, types.ErrPattern)
	})
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want []byte
		err  bool
	}{
		{in: "CAFE", want: []byte{0xCA, 0xFE}},
		{in: "ca fe\tba be", want: []byte{0xCA, 0xFE, 0xBA, 0xBE}},
		{in: "0fdA1", want: []byte{0x00, 0xFD, 0xA1}},
		{in: "0x41", want: []byte{0x41}},
		{in: "", want: []byte{}},
		{in: "zz", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHex(tt.in)
			if tt.err {
				assert.ErrorIs(t, err, types.ErrPattern)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type stopAfterReads struct {
	Content
	f     *Finder
	after int
	reads int
}

func (s *stopAfterReads) Read(dst []byte, pos int64) (int, error) {
	s.reads++
	if s.reads == s.after {
		s.f.Stop()
	}
	return s.Content.Read(dst, pos)
}

type failingContent struct{ err error }

func (failingContent) Length() int64 { return 100 }

func (c failingContent) Read([]byte, int64) (int, error) { return 0, c.err }
