package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/joshuapare/hexkit/pkg/types"
)

// Editor is the write side of an edit buffer.
type Editor interface {
	Length() int64
	Insert(p []byte, pos int64) error
	Overwrite(p []byte, pos int64) error
	BeginGroup()
	EndGroup()
}

// PasteIn writes p into e at pos, inserting when insert is set and
// overwriting otherwise. An overwrite never extends the content: it stops at
// the current end. All writes form one undo step. The count of bytes written
// is returned even when a later chunk fails.
func PasteIn(ctx context.Context, e Editor, p *Payload, pos int64, insert bool, opts Options) (int64, error) {
	opts = opts.withDefaults()
	length := e.Length()
	if pos < 0 || pos > length {
		return 0, types.Errorf(types.ErrKindOutOfRange, nil, "paste at %d beyond length %d", pos, length)
	}
	total := p.Len()
	if !insert {
		total = min(total, length-pos)
	}
	if total == 0 {
		return 0, nil
	}

	rc, err := p.Open()
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	e.BeginGroup()
	defer e.EndGroup()

	chunk := make([]byte, min(int64(opts.Chunk), total))
	var written int64
	for written < total {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, rerr := io.ReadFull(rc, chunk[:min(int64(len(chunk)), total-written)])
		if n > 0 {
			write := e.Overwrite
			if insert {
				write = e.Insert
			}
			if err := write(chunk[:n], pos+written); err != nil {
				return written, err
			}
			written += int64(n)
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) || errors.Is(rerr, io.ErrUnexpectedEOF) {
				break
			}
			return written, fmt.Errorf("read payload: %w", rerr)
		}
	}
	opts.Logger.Debug("pasted payload", "pos", pos, "insert", insert, "written", written)
	return written, nil
}
