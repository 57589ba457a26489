package content

import "github.com/joshuapare/hexkit/pkg/types"

// step replaces removed by inserted at pos, in the offsets in effect just
// before the step ran.
type step struct {
	pos      int64
	removed  []piece
	inserted []piece
}

func (s step) mem() int64 { return piecesMem(s.removed) + piecesMem(s.inserted) }

// command is one undoable unit: a single edit, a run of merged keystrokes,
// or a group of edits.
type command struct {
	kind   types.EditKind
	steps  []step
	typing bool // single-byte edit that later keystrokes may extend
}

func (c *command) mem() int64 {
	var n int64
	for _, s := range c.steps {
		n += s.mem()
	}
	return n
}

// undoSelection is the span restored by undoing c.
func (c *command) undoSelection() types.Selection {
	first, last := c.steps[0], c.steps[len(c.steps)-1]
	return types.Selection{Start: first.pos, End: max(first.pos, last.pos+piecesLen(last.removed))}
}

// redoSelection is the span produced by redoing c.
func (c *command) redoSelection() types.Selection {
	first, last := c.steps[0], c.steps[len(c.steps)-1]
	return types.Selection{Start: first.pos, End: max(first.pos, last.pos+piecesLen(last.inserted))}
}

// history is a pair of LIFO stacks; a new edit discards the redo stack.
type history struct {
	undo, redo []*command
	clean      *command // top of undo at the last save point
	sealed     bool     // true once typing merges must stop

	group      *command
	groupDepth int

	depth    int
	maxBytes int64
	bytes    int64
	noMerge  bool
}

func newHistory(opts Options) *history {
	return &history{depth: opts.HistoryDepth, maxBytes: opts.HistoryBytes, noMerge: opts.NoTypingMerge}
}

func (h *history) top() *command {
	if len(h.undo) == 0 {
		return nil
	}
	return h.undo[len(h.undo)-1]
}

func (h *history) dirty() bool { return h.top() != h.clean || h.group != nil && len(h.group.steps) > 0 }

func (h *history) record(c *command) {
	h.dropRedo()
	if h.group != nil {
		h.group.steps = append(h.group.steps, c.steps...)
		if len(h.group.steps) == len(c.steps) {
			h.group.kind = c.kind
		} else if h.group.kind != c.kind {
			h.group.kind = types.EditCompound
		}
		h.bytes += c.mem()
		return
	}
	if top := h.top(); top != nil && h.canMerge(top, c) {
		before := top.mem()
		mergeTyping(top, c)
		h.bytes += top.mem() - before
		h.trim()
		return
	}
	h.push(c)
}

func (h *history) push(c *command) {
	h.undo = append(h.undo, c)
	h.bytes += c.mem()
	h.sealed = false
	h.trim()
}

func (h *history) dropRedo() {
	for _, c := range h.redo {
		h.bytes -= c.mem()
	}
	h.redo = nil
}

// unreachable marks a save point that trimming removed from the undo stack.
var unreachable = &command{}

// trim drops the oldest commands until depth and memory limits hold. The most
// recent command is always kept. The empty stack now stands for the state
// after the dropped command, so the save point moves with it.
func (h *history) trim() {
	for len(h.undo) > 1 && (len(h.undo) > h.depth || h.bytes > h.maxBytes) {
		switch h.clean {
		case nil:
			h.clean = unreachable
		case h.undo[0]:
			h.clean = nil
		}
		h.bytes -= h.undo[0].mem()
		h.undo[0] = nil
		h.undo = h.undo[1:]
	}
}

func (h *history) popUndo() *command {
	c := h.top()
	if c == nil {
		return nil
	}
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, c)
	h.sealed = true
	return c
}

func (h *history) popRedo() *command {
	if len(h.redo) == 0 {
		return nil
	}
	c := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, c)
	h.sealed = true
	return c
}

func (h *history) beginGroup() {
	h.groupDepth++
	if h.groupDepth == 1 {
		h.group = &command{kind: types.EditCompound}
	}
}

func (h *history) endGroup() {
	if h.groupDepth == 0 {
		return
	}
	h.groupDepth--
	if h.groupDepth > 0 {
		return
	}
	g := h.group
	h.group = nil
	if len(g.steps) == 0 {
		return
	}
	// Bytes were counted as steps arrived; push would count them again.
	h.bytes -= g.mem()
	h.push(g)
}

// flushGroup closes any open group so undo and redo see it as one command.
func (h *history) flushGroup() {
	for h.groupDepth > 0 {
		h.endGroup()
	}
}

func (h *history) markClean() {
	h.flushGroup()
	h.clean = h.top()
	h.sealed = true
}

func (h *history) reset() {
	h.undo, h.redo = nil, nil
	h.clean = nil
	h.group, h.groupDepth = nil, 0
	h.bytes = 0
	h.sealed = false
}

// canMerge reports whether c continues the keystroke run ending in top.
func (h *history) canMerge(top, c *command) bool {
	if h.noMerge || h.sealed || top == h.clean || !top.typing || !c.typing ||
		top.kind != c.kind || len(top.steps) != 1 || len(c.steps) != 1 {
		return false
	}
	t, s := top.steps[0], c.steps[0]
	tEnd := t.pos + piecesLen(t.inserted)
	switch c.kind {
	case types.EditInsert:
		return s.pos == tEnd
	case types.EditOverwrite:
		// next byte, or the same last byte again (second nibble of a hex digit pair)
		return s.pos == tEnd || s.pos == tEnd-1
	case types.EditDelete:
		// forward delete at the same spot, or backspace just before it
		return s.pos == t.pos || s.pos+piecesLen(s.removed) == t.pos
	}
	return false
}

func mergeTyping(top, c *command) {
	t, s := &top.steps[0], c.steps[0]
	tEnd := t.pos + piecesLen(t.inserted)
	switch c.kind {
	case types.EditInsert:
		t.inserted = append(t.inserted, s.inserted...)
	case types.EditOverwrite:
		if s.pos == tEnd {
			t.inserted = append(t.inserted, s.inserted...)
			t.removed = append(t.removed, s.removed...)
			return
		}
		// The byte was already captured in t.removed by the first keystroke.
		keep := slicePieces(t.inserted, 0, piecesLen(t.inserted)-1)
		t.inserted = append(keep, s.inserted...)
	case types.EditDelete:
		if s.pos == t.pos {
			t.removed = append(t.removed, s.removed...)
			return
		}
		t.removed = append(append([]piece(nil), s.removed...), t.removed...)
		t.pos = s.pos
	}
}
