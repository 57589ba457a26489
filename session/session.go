// Package session owns one edit buffer on behalf of a front end. It keeps
// the selection and caret, runs searches on a worker goroutine while edits
// are held off, and implements replace, copy, paste, and save on top of the
// buffer.
//
// A Session is driven from one goroutine. StopFind is the only method that
// may be called from elsewhere.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/joshuapare/hexkit/content"
	"github.com/joshuapare/hexkit/find"
	"github.com/joshuapare/hexkit/internal/logger"
	"github.com/joshuapare/hexkit/internal/writer"
	"github.com/joshuapare/hexkit/pkg/types"
	"github.com/joshuapare/hexkit/transfer"
)

// Options configures a Session.
type Options struct {
	Content  content.Options
	Find     find.Options
	Transfer transfer.Options

	// Clipboard receives copies and supplies pastes. Default: transfer.System.
	Clipboard transfer.Clipboard

	// Overwrite starts the session in overwrite mode instead of insert mode.
	Overwrite bool

	// Workers bounds parallel segments in CountMatches. Default: 4.
	Workers int

	Logger *slog.Logger
}

// Session is an open file plus the editing state around it.
type Session struct {
	opts Options
	log  *slog.Logger
	buf  *content.Buffer
	path string

	sel          types.Selection
	caretAtStart bool
	insert       bool

	finder  *find.Finder
	findKey Query

	mu       sync.Mutex
	stop     func()
	stopping atomic.Bool

	clip *transfer.Payload
}

// Open opens path and wraps it in a Session.
func Open(path string, opts Options) (*Session, error) {
	if opts.Content.Logger == nil {
		opts.Content.Logger = opts.Logger
	}
	b, err := content.Open(path, opts.Content)
	if err != nil {
		return nil, err
	}
	return New(b, path, opts), nil
}

// New wraps an existing buffer. path is the default Save target and may be
// empty.
func New(b *content.Buffer, path string, opts Options) *Session {
	if opts.Clipboard == nil {
		opts.Clipboard = transfer.System
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	log := logger.Or(opts.Logger)
	if opts.Find.Logger == nil {
		opts.Find.Logger = log
	}
	if opts.Transfer.Logger == nil {
		opts.Transfer.Logger = log
	}
	return &Session{
		opts:   opts,
		log:    log,
		buf:    b,
		path:   path,
		insert: !opts.Overwrite,
	}
}

// Buffer returns the underlying edit buffer.
func (s *Session) Buffer() *content.Buffer { return s.buf }

// Path returns the file the session saves to by default.
func (s *Session) Path() string { return s.path }

// Close stops any running search and releases the buffer and clipboard spool.
func (s *Session) Close() error {
	s.StopFind()
	var errs []error
	if s.clip != nil {
		errs = append(errs, s.clip.Close())
		s.clip = nil
	}
	errs = append(errs, s.buf.Dispose())
	return errors.Join(errs...)
}

// Selection returns the selected span; an empty span is a plain caret.
func (s *Session) Selection() types.Selection { return s.sel }

// Select sets the selection. The caret is placed at end.
func (s *Session) Select(start, end int64) {
	length := s.buf.Length()
	start = min(max(start, 0), length)
	end = min(max(end, 0), length)
	if end < start {
		start, end = end, start
	}
	s.sel = types.Selection{Start: start, End: end}
	s.caretAtStart = false
}

// Caret returns the edit position.
func (s *Session) Caret() int64 {
	if s.caretAtStart {
		return s.sel.Start
	}
	return s.sel.End
}

// SetInsertMode switches between insert and overwrite editing.
func (s *Session) SetInsertMode(insert bool) {
	s.insert = insert
	s.buf.CommitTyping()
}

// InsertMode reports whether edits insert rather than overwrite.
func (s *Session) InsertMode() bool { return s.insert }

// OnChange registers fn for every buffer modification.
func (s *Session) OnChange(fn func(content.Change)) (cancel func()) {
	return s.buf.OnChange(fn)
}

// Type writes p at the caret as keyboard input does: a selection is
// replaced in insert mode, and the caret moves past the written bytes.
func (s *Session) Type(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	pos := s.Caret()
	switch {
	case s.insert && s.sel.Len() > 0:
		s.buf.BeginGroup()
		defer s.buf.EndGroup()
		if err := s.buf.Delete(s.sel.Start, s.sel.Len()); err != nil {
			return err
		}
		pos = s.sel.Start
		if err := s.buf.Insert(p, pos); err != nil {
			return err
		}
	case s.insert:
		if err := s.buf.Insert(p, pos); err != nil {
			return err
		}
	default:
		if err := s.buf.Overwrite(p, pos); err != nil {
			return err
		}
	}
	end := pos + int64(len(p))
	s.sel = types.Selection{Start: end, End: end}
	s.caretAtStart = false
	return nil
}

// Delete removes the selection, or the byte after the caret when nothing
// is selected.
func (s *Session) Delete() error {
	start, n := s.sel.Start, s.sel.Len()
	if n == 0 {
		start, n = s.Caret(), 1
	}
	if err := s.buf.Delete(start, n); err != nil {
		return err
	}
	s.sel = types.Selection{Start: start, End: start}
	s.caretAtStart = false
	return nil
}

// Undo reverts the last command and selects the restored bytes.
func (s *Session) Undo() (types.Selection, bool, error) {
	sel, ok, err := s.buf.Undo()
	if ok {
		s.sel, s.caretAtStart = sel, false
	}
	return sel, ok, err
}

// Redo replays the last undone command and selects what it produced.
func (s *Session) Redo() (types.Selection, bool, error) {
	sel, ok, err := s.buf.Redo()
	if ok {
		s.sel, s.caretAtStart = sel, false
	}
	return sel, ok, err
}

// Copy copies the selection into a payload and publishes its text form to
// the clipboard. The payload is kept for the next Paste.
func (s *Session) Copy(ctx context.Context) (*transfer.Payload, error) {
	p, err := transfer.CopyOut(ctx, s.buf, s.sel.Start, s.sel.Len(), s.opts.Transfer)
	if err != nil {
		return nil, err
	}
	if err := transfer.Publish(s.opts.Clipboard, p); err != nil {
		s.log.Warn("clipboard publish failed", "err", err)
	}
	if s.clip != nil {
		if err := s.clip.Close(); err != nil {
			s.log.Warn("release previous clipboard payload", "err", err)
		}
	}
	s.clip = p
	return p, nil
}

// Paste writes p at the caret, or the last copied payload when p is nil,
// or the clipboard text when nothing was copied. The written bytes become
// the selection.
func (s *Session) Paste(ctx context.Context, p *transfer.Payload) (int64, error) {
	if p == nil {
		p = s.clip
	}
	if p == nil {
		fetched, err := transfer.Fetch(s.opts.Clipboard, true)
		if err != nil {
			return 0, fmt.Errorf("read clipboard: %w", err)
		}
		p = fetched
	}

	s.buf.BeginGroup()
	defer s.buf.EndGroup()
	pos := s.Caret()
	if s.insert && s.sel.Len() > 0 {
		if err := s.buf.Delete(s.sel.Start, s.sel.Len()); err != nil {
			return 0, err
		}
		pos = s.sel.Start
	}
	n, err := transfer.PasteIn(ctx, s.buf, p, pos, s.insert, s.opts.Transfer)
	s.sel = types.Selection{Start: pos, End: pos + n}
	s.caretAtStart = false
	return n, err
}

// Save streams the content to path, or to the session's path when path is
// empty, through a temp file and rename. The buffer then reopens the saved
// file and its history is reset.
func (s *Session) Save(ctx context.Context, path string) error {
	if path == "" {
		path = s.path
	}
	if path == "" {
		return types.Errorf(types.ErrKindFile, nil, "no file to save to")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	w := &writer.FileWriter{Path: path, FS: s.opts.Content.FS}
	n, err := w.WriteContent(s.buf)
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := s.buf.Load(path); err != nil {
		return err
	}
	s.path = path
	s.Select(s.sel.Start, s.sel.End)
	s.log.Info("saved", "path", path, "bytes", n)
	return nil
}
