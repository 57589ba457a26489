package find

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/joshuapare/hexkit/internal/logger"
)

// DefaultWindow is the number of bytes scanned per read.
const DefaultWindow = 64 << 10

// Content is the read side of an edit buffer.
type Content interface {
	Length() int64
	Read(dst []byte, pos int64) (int, error)
}

// State is where a Finder is in its scan cycle. Every terminal state can be
// left again by calling NextMatch.
type State int32

const (
	Idle State = iota
	Searching
	Found
	NotFound
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Searching:
		return "searching"
	case Found:
		return "found"
	case NotFound:
		return "not found"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Match is one occurrence of the pattern.
type Match struct {
	Start  int64
	Length int
}

// End returns the offset just past the match.
func (m Match) End() int64 { return m.Start + int64(m.Length) }

// Options configures a Finder. The zero value is usable.
type Options struct {
	// Window is the scan window in bytes. It is raised to hold at least two
	// of the longest matches.
	Window int

	// Charset names the encoding of text patterns. Default: UTF-8.
	Charset string

	// Logger receives scan summaries and read failures. Default: logger.L.
	Logger *slog.Logger
}

// Finder searches content for one pattern, resuming from its cursor.
//
// SetStart, SetDirection and NextMatch belong to the goroutine that runs the
// scan; Stop and State are safe from any goroutine.
type Finder struct {
	c       Content
	m       *matcher
	window  int
	log     *slog.Logger
	cursor  int64
	forward bool
	buf     []byte

	stop  atomic.Bool
	state atomic.Int32
}

// New returns a Finder for the raw byte pattern p.
func New(p []byte, c Content, opts Options) *Finder {
	return newFinder(byteMatcher(p), c, opts)
}

// NewText returns a Finder for text encoded in opts.Charset. With
// caseSensitive unset, every simple case folding of each character matches.
func NewText(text string, c Content, caseSensitive bool, opts Options) (*Finder, error) {
	enc, unit, err := resolveCharset(opts.Charset)
	if err != nil {
		return nil, err
	}
	m, err := textMatcher(text, enc, unit, !caseSensitive)
	if err != nil {
		return nil, err
	}
	return newFinder(m, c, opts), nil
}

func newFinder(m *matcher, c Content, opts Options) *Finder {
	window := opts.Window
	if window <= 0 {
		window = DefaultWindow
	}
	window = int(m.alignUp(int64(max(window, 2*m.maxLen))))
	return &Finder{
		c:       c,
		m:       m,
		window:  window,
		log:     logger.Or(opts.Logger),
		forward: true,
	}
}

// SetStart moves the cursor and discards a Stop that no scan has seen yet.
// Call it whenever the caller's position moved independently of the Finder.
func (f *Finder) SetStart(pos int64) {
	f.cursor = max(pos, 0)
	f.stop.Store(false)
}

// Cursor returns the offset the next scan resumes from.
func (f *Finder) Cursor() int64 { return f.cursor }

// SetDirection selects forward or backward scanning.
func (f *Finder) SetDirection(forward bool) { f.forward = forward }

// Forward reports the scan direction.
func (f *Finder) Forward() bool { return f.forward }

// MaxMatchLen returns the longest match the pattern can produce, in bytes.
func (f *Finder) MaxMatchLen() int { return f.m.maxLen }

// Stop asks a running NextMatch to give up after the current window. A
// Stop issued before NextMatch starts cancels that scan.
func (f *Finder) Stop() { f.stop.Store(true) }

// State returns the current scan state.
func (f *Finder) State() State { return State(f.state.Load()) }

// NextMatch scans from the cursor for the next occurrence. Forward scans
// report the first match starting at or after the cursor and leave the
// cursor at its end; backward scans report the last match starting before
// the cursor and leave the cursor at its start.
//
// ok is false when the boundary was reached or Stop was called. A failed
// read ends the scan with that error.
func (f *Finder) NextMatch(ctx context.Context) (m Match, ok bool, err error) {
	f.state.Store(int32(Searching))
	began := time.Now()
	windows := 0

	defer func() {
		stopped := f.stop.Swap(false)
		switch {
		case ok:
			f.state.Store(int32(Found))
		case stopped || ctx.Err() != nil:
			f.state.Store(int32(Cancelled))
		default:
			f.state.Store(int32(NotFound))
		}
		f.log.Debug("find finished",
			"state", f.State().String(),
			"forward", f.forward,
			"cursor", f.cursor,
			"windows", windows,
			"elapsed", time.Since(began))
	}()

	if f.m.empty() {
		return Match{}, false, nil
	}
	if f.buf == nil {
		f.buf = make([]byte, f.window+f.m.maxLen-1)
	}
	if f.forward {
		return f.scanForward(ctx, &windows)
	}
	return f.scanBackward(ctx, &windows)
}

// halt reports whether the scan must end before the next window.
func (f *Finder) halt(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return true, err
	}
	return f.stop.Load(), nil
}

func (f *Finder) scanForward(ctx context.Context, windows *int) (Match, bool, error) {
	length := f.c.Length()
	for pos := f.m.alignUp(f.cursor); length-pos >= int64(f.m.minLen); pos += int64(f.window) {
		if stop, err := f.halt(ctx); stop {
			return Match{}, false, err
		}
		*windows++
		n, err := f.c.Read(f.buf, pos)
		if err != nil {
			f.log.Warn("find aborted by read failure", "pos", pos, "err", err)
			return Match{}, false, err
		}
		w := f.buf[:n]
		limit := min(f.window, n)
		if i, k := f.m.first(w, limit); i >= 0 {
			m := Match{Start: pos + int64(i), Length: k}
			f.cursor = m.End()
			return m, true, nil
		}
	}
	return Match{}, false, nil
}

func (f *Finder) scanBackward(ctx context.Context, windows *int) (Match, bool, error) {
	end := min(f.cursor, f.c.Length())
	for end > 0 {
		if stop, err := f.halt(ctx); stop {
			return Match{}, false, err
		}
		*windows++
		pos := f.m.alignUp(max(0, end-int64(f.window)))
		n, err := f.c.Read(f.buf, pos)
		if err != nil {
			f.log.Warn("find aborted by read failure", "pos", pos, "err", err)
			return Match{}, false, err
		}
		if i, k := f.m.last(f.buf[:n], int(end-pos)); i >= 0 {
			m := Match{Start: pos + int64(i), Length: k}
			f.cursor = m.Start
			return m, true, nil
		}
		end = pos
	}
	return Match{}, false, nil
}
