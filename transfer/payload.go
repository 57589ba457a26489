// Package transfer moves byte ranges between an edit buffer and a
// clipboard without holding the whole range in memory.
//
// CopyOut spools the range to a temporary file chunk by chunk and builds a
// bounded text rendering for plain-text targets. PasteIn streams a payload
// back into a buffer as a single undo step.
package transfer

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/text/transform"

	"github.com/joshuapare/hexkit/find"
	"github.com/joshuapare/hexkit/internal/buf"
	"github.com/joshuapare/hexkit/internal/logger"
	"github.com/joshuapare/hexkit/pkg/types"
)

const (
	// DefaultChunk is the copy and paste unit.
	DefaultChunk = 64 << 10
	// DefaultTextLimit bounds the text rendering of a payload.
	DefaultTextLimit = 1 << 20
)

// TextMode selects how a payload is rendered as text.
type TextMode int

const (
	// TextHex renders bytes as space separated hex pairs.
	TextHex TextMode = iota
	// TextCharset decodes bytes with Options.Charset.
	TextCharset
)

// Reader is the read side of an edit buffer.
type Reader interface {
	Length() int64
	Read(dst []byte, pos int64) (int, error)
}

// Options configures CopyOut and PasteIn. The zero value is usable.
type Options struct {
	FS        afero.Fs // spool filesystem; default OS
	Dir       string   // spool directory; default the system temp dir
	Chunk     int
	TextLimit int
	Text      TextMode
	Charset   string
	Logger    *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.FS == nil {
		o.FS = afero.NewOsFs()
	}
	if o.Chunk <= 0 {
		o.Chunk = DefaultChunk
	}
	if o.TextLimit <= 0 {
		o.TextLimit = DefaultTextLimit
	}
	if o.Logger == nil {
		o.Logger = logger.L
	}
	return o
}

// Payload is a copied byte range. Large payloads live in a spool file that
// Close removes.
type Payload struct {
	fs    afero.Fs
	spool string
	data  []byte
	size  int64

	// Text is the plain-text rendering, cut at the text limit.
	Text string
	// Truncated is set when Text covers only a prefix of the payload.
	Truncated bool
}

// NewPayload wraps in-memory bytes, typically text fetched from a clipboard.
func NewPayload(data []byte) *Payload {
	return &Payload{data: bytes.Clone(data), size: int64(len(data)), Text: string(data)}
}

// Len returns the payload size in bytes.
func (p *Payload) Len() int64 { return p.size }

// Open returns a reader over the payload bytes.
func (p *Payload) Open() (io.ReadCloser, error) {
	if p.spool == "" {
		return io.NopCloser(bytes.NewReader(p.data)), nil
	}
	f, err := p.fs.Open(p.spool)
	if err != nil {
		return nil, fmt.Errorf("open spool: %w", err)
	}
	return f, nil
}

// Bytes reads the whole payload into memory.
func (p *Payload) Bytes() ([]byte, error) {
	rc, err := p.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Close removes the spool file.
func (p *Payload) Close() error {
	if p.spool == "" {
		return nil
	}
	path := p.spool
	p.spool = ""
	if err := p.fs.Remove(path); err != nil {
		return fmt.Errorf("remove spool: %w", err)
	}
	return nil
}

// CopyOut copies [start, start+length) of r, clamped to r's length, into a
// new payload. At most one chunk of the range is in memory at a time.
func CopyOut(ctx context.Context, r Reader, start, length int64, opts Options) (*Payload, error) {
	opts = opts.withDefaults()
	if _, err := buf.CheckRange(r.Length(), start, length); err != nil {
		return nil, types.Errorf(types.ErrKindOutOfRange, err, "copy")
	}
	length = buf.Clamp(r.Length(), start, length)

	f, err := afero.TempFile(opts.FS, opts.Dir, "hexkit-clip-*")
	if err != nil {
		return nil, fmt.Errorf("create spool: %w", err)
	}
	p := &Payload{fs: opts.FS, spool: f.Name()}
	fail := func(err error) (*Payload, error) {
		_ = f.Close()
		_ = p.Close()
		return nil, err
	}

	text := newTextBuilder(opts)
	chunk := make([]byte, min(int64(opts.Chunk), max(length, 1)))
	for p.size < length {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		want := min(int64(len(chunk)), length-p.size)
		n, err := r.Read(chunk[:want], start+p.size)
		if err != nil {
			return fail(err)
		}
		if n == 0 {
			return fail(types.Errorf(types.ErrKindIO, io.ErrUnexpectedEOF, "copy at %d", start+p.size))
		}
		if _, err := f.Write(chunk[:n]); err != nil {
			return fail(fmt.Errorf("write spool: %w", err))
		}
		text.add(chunk[:n])
		p.size += int64(n)
	}
	if err := f.Close(); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("close spool: %w", err)
	}

	p.Text, p.Truncated, err = text.finish()
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	opts.Logger.Debug("copied range", "start", start, "length", p.size, "spool", p.spool, "truncated", p.Truncated)
	return p, nil
}

// textBuilder keeps the prefix of the payload that fits the text limit.
type textBuilder struct {
	opts   Options
	prefix []byte
	max    int
	cut    bool
}

func newTextBuilder(opts Options) *textBuilder {
	n := opts.TextLimit
	if opts.Text == TextHex {
		n = (n + 1) / 3
	}
	return &textBuilder{opts: opts, max: n}
}

func (t *textBuilder) add(p []byte) {
	room := t.max - len(t.prefix)
	if len(p) > room {
		p = p[:room]
		t.cut = true
	}
	t.prefix = append(t.prefix, p...)
}

func (t *textBuilder) finish() (string, bool, error) {
	if t.opts.Text == TextHex {
		return FormatHex(t.prefix), t.cut, nil
	}
	enc, err := find.Charset(t.opts.Charset)
	if err != nil {
		return "", false, err
	}
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(t.prefix), enc.NewDecoder()))
	if err != nil {
		return "", false, fmt.Errorf("decode text: %w", err)
	}
	return string(out), t.cut, nil
}

// FormatHex renders p as upper-case hex pairs separated by spaces.
func FormatHex(p []byte) string {
	var sb strings.Builder
	sb.Grow(len(p) * 3)
	for i, c := range p {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strings.ToUpper(hex.EncodeToString([]byte{c})))
	}
	return sb.String()
}
