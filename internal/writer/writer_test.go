package writer

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSource struct{ after int }

func (f failingSource) WriteTo(w io.Writer) (int64, error) {
	n, _ := w.Write(bytes.Repeat([]byte{'x'}, f.after))
	return int64(n), errors.New("backing file vanished")
}

func TestFileWriter_ReplacesAtomically(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/a.bin", []byte("old"), 0o644))

	w := &FileWriter{Path: "/data/a.bin", FS: fs}
	n, err := w.WriteContent(bytes.NewReader([]byte("ABXYEFGHIJ")))
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)

	got, err := afero.ReadFile(fs, "/data/a.bin")
	require.NoError(t, err)
	assert.Equal(t, "ABXYEFGHIJ", string(got))

	entries, err := afero.ReadDir(fs, "/data")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be renamed away")
}

func TestFileWriter_FailureKeepsDestination(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/a.bin", []byte("original"), 0o644))

	w := &FileWriter{Path: "/data/a.bin", FS: fs}
	_, err := w.WriteContent(failingSource{after: 3})
	require.Error(t, err)

	got, err := afero.ReadFile(fs, "/data/a.bin")
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))

	entries, err := afero.ReadDir(fs, "/data")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be removed on failure")
}
