package content

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/spf13/afero"

	"github.com/joshuapare/hexkit/internal/mmfile"
)

// source is a read-only origin of file-backed pieces.
type source struct {
	name     string
	r        io.ReaderAt
	size     int64
	original bool // the file the buffer was opened on

	// mu serialises ReadAt for readers that keep a shared offset
	// (afero's in-memory files).
	mu     *sync.Mutex
	closer func() error
}

func (s *source) ReadAt(p []byte, off int64) (int, error) {
	if s.mu != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	n, err := s.r.ReadAt(p, off)
	if err == io.EOF && n == len(p) {
		err = nil
	}
	return n, err
}

func (s *source) close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer()
	s.closer = nil
	return err
}

// openSource opens path read-only. With mmap set on the OS filesystem the
// file is mapped; a failed mapping falls back to positional reads.
func openSource(fs afero.Fs, path string, mmap, original bool, log *slog.Logger) (*source, error) {
	if _, osFS := fs.(*afero.OsFs); mmap && osFS && mmfile.Supported {
		data, unmap, err := mmfile.Map(path)
		if err == nil {
			return &source{
				name:     path,
				r:        bytes.NewReader(data),
				size:     int64(len(data)),
				original: original,
				closer:   unmap,
			}, nil
		}
		log.Warn("mmap failed, using positional reads", "path", path, "err", err)
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("%s is a directory", path)
	}
	s := &source{
		name:     path,
		r:        f,
		size:     st.Size(),
		original: original,
		closer:   f.Close,
	}
	if _, osFS := fs.(*afero.OsFs); !osFS {
		s.mu = &sync.Mutex{}
	}
	return s, nil
}

// bytesSource wraps caller-provided original content.
func bytesSource(name string, data []byte) *source {
	return &source{
		name:     name,
		r:        bytes.NewReader(data),
		size:     int64(len(data)),
		original: true,
	}
}
