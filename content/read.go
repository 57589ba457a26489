package content

import (
	"io"

	"github.com/joshuapare/hexkit/pkg/types"
)

// Read fills dst with the content starting at pos and returns the number of
// bytes copied. Reading past the end yields a short count, not an error. A
// failing backing file yields the bytes copied so far and an ErrKindIO error.
func (b *Buffer) Read(dst []byte, pos int64) (int, error) {
	n, _, err := b.read(dst, pos, false)
	return n, err
}

// ReadChanges is Read that also reports which parts of the window differ
// from the original file, relative to pos, with touching ranges merged.
func (b *Buffer) ReadChanges(dst []byte, pos int64) (int, []types.ChangeRange, error) {
	return b.read(dst, pos, true)
}

func (b *Buffer) read(dst []byte, pos int64, track bool) (n int, changes []types.ChangeRange, err error) {
	if b.closed.Load() {
		return 0, nil, types.ErrClosed
	}
	if pos < 0 {
		return 0, nil, types.Errorf(types.ErrKindOutOfRange, nil, "read at negative position %d", pos)
	}
	root := b.root.Load()
	if len(dst) == 0 || pos >= root.weight() {
		return 0, nil, nil
	}
	walk(root, pos, 0, func(p piece, start int64) bool {
		within := pos + int64(n) - start
		k := min(p.n-within, int64(len(dst)-n))
		if p.isMem() {
			copy(dst[n:], p.data[within:within+k])
		} else {
			got, rerr := p.src.ReadAt(dst[n:n+int(k)], p.off+within)
			if rerr != nil || int64(got) < k {
				if rerr == nil {
					rerr = io.ErrUnexpectedEOF
				}
				err = types.Errorf(types.ErrKindIO, rerr, "read %s at %d", p.src.name, p.off+within)
				b.log.Warn("short read from backing file", "path", p.src.name, "off", p.off+within, "err", rerr)
				n += got
				return false
			}
		}
		if track && p.changed() {
			changes = appendChange(changes, int64(n), k)
		}
		n += int(k)
		return n < len(dst)
	})
	return n, changes, err
}

func appendChange(changes []types.ChangeRange, start, length int64) []types.ChangeRange {
	if last := len(changes) - 1; last >= 0 && changes[last].End() == start {
		changes[last].Length += length
		return changes
	}
	return append(changes, types.ChangeRange{Start: start, Length: length})
}

// NewReader returns a sequential reader over [start, start+length) of the
// content as of each Read call.
func (b *Buffer) NewReader(start, length int64) io.Reader {
	return &windowReader{b: b, pos: start, end: start + max(length, 0)}
}

type windowReader struct {
	b        *Buffer
	pos, end int64
}

func (r *windowReader) Read(p []byte) (int, error) {
	if r.pos >= r.end {
		return 0, io.EOF
	}
	if rem := r.end - r.pos; int64(len(p)) > rem {
		p = p[:rem]
	}
	n, err := r.b.Read(p, r.pos)
	r.pos += int64(n)
	if err == nil && n == 0 {
		return 0, io.EOF
	}
	return n, err
}

// WriteTo streams the whole content to w in SaveChunk windows, so only one
// window is in memory at a time.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	chunk := make([]byte, b.opts.SaveChunk)
	var written int64
	for length := b.Length(); written < length; {
		n, err := b.Read(chunk[:min(int64(len(chunk)), length-written)], written)
		if n > 0 {
			m, werr := w.Write(chunk[:n])
			written += int64(m)
			if werr != nil {
				return written, werr
			}
		}
		if err != nil {
			return written, err
		}
		if n == 0 {
			return written, io.ErrUnexpectedEOF
		}
	}
	return written, nil
}
