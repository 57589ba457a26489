package session

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/hexkit/find"
	"github.com/joshuapare/hexkit/pkg/types"
)

// Query describes a search.
type Query struct {
	Pattern       string
	Hex           bool // Pattern is hex digits
	CaseSensitive bool
	Forward       bool
}

// key is the part of a query that decides whether the Finder is reusable.
func (q Query) key() Query {
	q.Forward = false
	if q.Hex {
		q.CaseSensitive = false
	}
	return q
}

func (s *Session) newFinder(q Query, c find.Content) (*find.Finder, error) {
	if q.Hex {
		p, err := find.ParseHex(q.Pattern)
		if err != nil {
			return nil, err
		}
		return find.New(p, c, s.opts.Find), nil
	}
	return find.NewText(q.Pattern, c, q.CaseSensitive, s.opts.Find)
}

// Find searches from the caret and selects the match. The Finder is kept
// across calls and rebuilt only when the pattern, its hex-ness, or the case
// rule changes; it restarts from the caret whenever the caret is not where
// the last scan left off. After a backward find the caret is the start of
// the selection.
func (s *Session) Find(ctx context.Context, q Query) (find.Match, bool, error) {
	s.stopping.Store(false)
	return s.find(ctx, q)
}

func (s *Session) find(ctx context.Context, q Query) (find.Match, bool, error) {
	if !q.Forward {
		s.caretAtStart = true
	}
	if s.finder == nil || q.key() != s.findKey {
		f, err := s.newFinder(q, s.buf)
		if err != nil {
			return find.Match{}, false, err
		}
		s.finder, s.findKey = f, q.key()
		f.SetStart(s.Caret())
	}
	if s.finder.Cursor() != s.Caret() {
		s.finder.SetStart(s.Caret())
	}
	s.finder.SetDirection(q.Forward)

	m, ok, err := s.runFind(ctx, s.finder)
	if err != nil || !ok {
		return find.Match{}, false, err
	}
	s.sel = types.Selection{Start: m.Start, End: m.End()}
	s.caretAtStart = !q.Forward
	return m, true, nil
}

// runFind scans on a worker goroutine. Edits are refused until it returns.
func (s *Session) runFind(ctx context.Context, f *find.Finder) (m find.Match, ok bool, err error) {
	s.buf.BeginScan()
	defer s.buf.EndScan()
	defer s.setStop(f.Stop)()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var ferr error
		m, ok, ferr = f.NextMatch(gctx)
		return ferr
	})
	err = g.Wait()
	return m, ok, err
}

// StopFind cancels a running Find, ReplaceAll or CountMatches. It is safe
// to call from any goroutine.
func (s *Session) StopFind() {
	s.stopping.Store(true)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		s.stop()
	}
}

// setStop installs the cancel hook of the running scan and returns its
// removal. A StopFind that arrived before the hook was installed runs it
// at once.
func (s *Session) setStop(fn func()) (clear func()) {
	s.mu.Lock()
	s.stop = fn
	s.mu.Unlock()
	if s.stopping.Load() {
		fn()
	}
	return func() {
		s.mu.Lock()
		s.stop = nil
		s.mu.Unlock()
	}
}

// Replace puts replacement over the selection. In insert mode the selection
// is deleted first; in overwrite mode the bytes are written from the
// selection start and stop at the end of the content. The new bytes become
// the selection.
func (s *Session) Replace(replacement []byte) error {
	start := s.sel.Start
	s.buf.BeginGroup()
	defer s.buf.EndGroup()

	n := int64(len(replacement))
	if s.insert {
		if s.sel.Len() > 0 {
			if err := s.buf.Delete(start, s.sel.Len()); err != nil {
				return err
			}
		}
		if err := s.buf.Insert(replacement, start); err != nil {
			return err
		}
	} else {
		n = min(n, s.buf.Length()-start)
		if err := s.buf.Overwrite(replacement[:n], start); err != nil {
			return err
		}
	}
	s.sel = types.Selection{Start: start, End: start + n}
	s.caretAtStart = false
	return nil
}

// ReplaceAll replaces every match from the caret onwards in the query's
// direction and returns the count. All replacements form one undo step.
func (s *Session) ReplaceAll(ctx context.Context, q Query, replacement []byte) (int, error) {
	if !s.insert && len(replacement) == 0 {
		return 0, types.Errorf(types.ErrKindPattern, nil, "empty replacement in overwrite mode")
	}
	s.stopping.Store(false)
	s.buf.BeginGroup()
	defer s.buf.EndGroup()

	count := 0
	for !s.stopping.Load() {
		_, ok, err := s.find(ctx, q)
		if err != nil {
			return count, err
		}
		if !ok {
			break
		}
		if err := s.Replace(replacement); err != nil {
			return count, err
		}
		count++
	}
	s.log.Debug("replace all", "pattern", q.Pattern, "count", count)
	return count, nil
}

// bounded hides the content past limit from a segment worker.
type bounded struct {
	find.Content
	limit int64
}

func (b bounded) Length() int64 { return min(b.limit, b.Content.Length()) }

// CountMatches counts every position where the query matches, overlapping
// matches included. The content is split into segments that are scanned in
// parallel. StopFind ends the count with context.Canceled.
func (s *Session) CountMatches(ctx context.Context, q Query) (int, error) {
	s.stopping.Store(false)
	s.buf.BeginScan()
	defer s.buf.EndScan()

	probe, err := s.newFinder(q, s.buf)
	if err != nil {
		return 0, err
	}
	length := s.buf.Length()
	seg := max(length/int64(s.opts.Workers), int64(s.opts.Find.Window), find.DefaultWindow)
	tail := int64(probe.MaxMatchLen() - 1)
	counts := make([]int, (length+seg-1)/seg)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.setStop(cancel)()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i := range counts {
		start := int64(i) * seg
		end := min(start+seg, length)
		f, err := s.newFinder(q, bounded{Content: s.buf, limit: end + tail})
		if err != nil {
			return 0, err
		}
		f.SetStart(start)
		g.Go(func() error {
			for {
				m, ok, err := f.NextMatch(gctx)
				if err != nil {
					return err
				}
				if !ok || m.Start >= end {
					return nil
				}
				counts[i]++
				f.SetStart(m.Start + 1)
			}
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	s.log.Debug("count matches", "pattern", q.Pattern, "segments", len(counts), "count", total)
	return total, nil
}
