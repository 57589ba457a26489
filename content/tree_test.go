package content

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatten(t *node) []byte {
	var out []byte
	walk(t, 0, 0, func(p piece, _ int64) bool {
		out = append(out, p.data...)
		return true
	})
	return out
}

func memTree(chunks ...string) *node {
	ps := make([]piece, 0, len(chunks))
	for _, c := range chunks {
		ps = append(ps, memPiece([]byte(c)))
	}
	return build(ps)
}

func TestSplit_EveryOffset(t *testing.T) {
	root := memTree("abc", "de", "fghij", "k")
	want := []byte("abcdefghijk")
	require.Equal(t, int64(len(want)), root.weight())
	require.Equal(t, 4, root.pieces())

	for k := int64(0); k <= root.weight(); k++ {
		l, r := split(root, k)
		assert.Equal(t, want[:k], flatten(l), "left of %d", k)
		assert.Equal(t, want[k:], flatten(r), "right of %d", k)
		assert.Equal(t, want, append(flatten(l), flatten(r)...))
	}
	// The original root is untouched by splitting.
	assert.Equal(t, want, flatten(root))
	assert.Equal(t, 4, root.pieces())
}

func TestWalk_FromOffset(t *testing.T) {
	root := memTree("abc", "de", "fghij")
	var starts []int64
	walk(root, 4, 0, func(_ piece, start int64) bool {
		starts = append(starts, start)
		return true
	})
	assert.Equal(t, []int64{3, 5}, starts)
}

func TestJoinCoalesce(t *testing.T) {
	src := bytesSource("f", []byte("0123456789"))
	l := build([]piece{{src: src, off: 0, n: 4}})
	r := build([]piece{{src: src, off: 4, n: 6}})
	j := joinCoalesce(l, r, 16)
	require.Equal(t, 1, j.pieces())
	assert.Equal(t, piece{src: src, off: 0, n: 10}, first(j))

	gap := build([]piece{{src: src, off: 5, n: 5}})
	assert.Equal(t, 2, joinCoalesce(l, gap, 16).pieces())

	a, b := memTree("abcd"), memTree("efgh")
	assert.Equal(t, 1, joinCoalesce(a, b, 8).pieces())
	assert.Equal(t, 2, joinCoalesce(a, b, 7).pieces(), "over the limit")
	assert.Equal(t, []byte("abcdefgh"), flatten(joinCoalesce(a, b, 8)))
}

func TestSlicePieces(t *testing.T) {
	ps := []piece{memPiece([]byte("abc")), memPiece([]byte("defg"))}
	got := slicePieces(ps, 2, 5)
	var out bytes.Buffer
	for _, p := range got {
		out.Write(p.data)
	}
	assert.Equal(t, "cde", out.String())
	assert.Equal(t, int64(3), piecesLen(got))
	assert.Equal(t, int64(7), piecesMem(ps))
}
