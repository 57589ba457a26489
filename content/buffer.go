package content

import (
	"bytes"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/joshuapare/hexkit/internal/buf"
	"github.com/joshuapare/hexkit/internal/logger"
	"github.com/joshuapare/hexkit/pkg/types"
)

// ChangeOrigin says which call produced a Change.
type ChangeOrigin int

const (
	OriginEdit ChangeOrigin = iota
	OriginUndo
	OriginRedo
	OriginLoad
)

// Change describes one modification, delivered to OnChange observers after
// the new content is visible.
type Change struct {
	Origin   ChangeOrigin
	Kind     types.EditKind
	Pos      int64
	Removed  int64
	Inserted int64
	Dirty    bool
}

// Buffer is the edit buffer: the current logical byte sequence of a file,
// held as a piece table over the read-only original plus in-memory edits.
//
// Mutating methods must all be called from one goroutine. Read, ReadChanges
// and Length may run on other goroutines; they always observe a complete
// version of the content.
type Buffer struct {
	opts Options
	log  *slog.Logger

	root    atomic.Pointer[node]
	closed  atomic.Bool
	scans   atomic.Int32
	sources []*source
	hist    *history

	observers map[int]func(Change)
	nextObs   int
}

// Open opens path read-only without copying its contents. The initial
// piece table is a single file-backed piece spanning the whole file.
func Open(path string, opts Options) (*Buffer, error) {
	opts = opts.withDefaults()
	b := newBuffer(opts)
	src, err := openSource(opts.FS, path, opts.Mmap, true, b.log)
	if err != nil {
		return nil, types.Errorf(types.ErrKindFile, err, "open %s", path)
	}
	b.reset(src)
	b.log.Debug("buffer opened", "path", path, "size", src.size)
	return b, nil
}

// FromBytes builds a buffer whose original content is a copy of data.
func FromBytes(data []byte, opts Options) *Buffer {
	opts = opts.withDefaults()
	b := newBuffer(opts)
	b.reset(bytesSource("<memory>", bytes.Clone(data)))
	return b
}

func newBuffer(opts Options) *Buffer {
	return &Buffer{
		opts:      opts,
		log:       logger.Or(opts.Logger),
		hist:      newHistory(opts),
		observers: make(map[int]func(Change)),
	}
}

func (b *Buffer) reset(src *source) {
	b.sources = []*source{src}
	var root *node
	if src.size > 0 {
		root = leaf(piece{src: src, n: src.size})
	}
	b.root.Store(root)
	b.hist.reset()
}

// Length returns the logical byte count.
func (b *Buffer) Length() int64 { return b.root.Load().weight() }

// PieceCount returns the number of pieces in the table.
func (b *Buffer) PieceCount() int { return b.root.Load().pieces() }

// Load replaces the content wholesale with the file at path and resets the
// history. The previous sources are closed.
func (b *Buffer) Load(path string) error {
	if err := b.checkWritable(); err != nil {
		return err
	}
	src, err := openSource(b.opts.FS, path, b.opts.Mmap, true, b.log)
	if err != nil {
		return types.Errorf(types.ErrKindFile, err, "open %s", path)
	}
	old := b.sources
	b.reset(src)
	for _, s := range old {
		if cerr := s.close(); cerr != nil {
			b.log.Warn("close replaced source", "path", s.name, "err", cerr)
		}
	}
	b.notify(Change{Origin: OriginLoad, Inserted: src.size})
	return nil
}

// Dispose releases the file handles and all edit memory. The buffer is
// unusable afterwards.
func (b *Buffer) Dispose() error {
	if b.closed.Swap(true) {
		return nil
	}
	var errs []error
	for _, s := range b.sources {
		errs = append(errs, s.close())
	}
	b.sources = nil
	b.root.Store(nil)
	b.hist.reset()
	b.observers = nil
	return errors.Join(errs...)
}

// OnChange registers fn to run after every modification. The returned func
// removes the registration. A disposed buffer never changes, so fn is not
// kept.
func (b *Buffer) OnChange(fn func(Change)) (cancel func()) {
	if b.closed.Load() {
		return func() {}
	}
	id := b.nextObs
	b.nextObs++
	b.observers[id] = fn
	return func() { delete(b.observers, id) }
}

func (b *Buffer) notify(c Change) {
	c.Dirty = b.hist.dirty()
	for _, fn := range b.observers {
		fn(c)
	}
}

// BeginScan marks a read-only scan as outstanding; mutations fail with
// ErrEditConflict until the matching EndScan.
func (b *Buffer) BeginScan() { b.scans.Add(1) }

// EndScan ends a scan started with BeginScan.
func (b *Buffer) EndScan() { b.scans.Add(-1) }

func (b *Buffer) checkWritable() error {
	if b.closed.Load() {
		return types.ErrClosed
	}
	if b.scans.Load() > 0 {
		return types.ErrEditConflict
	}
	return nil
}

// Insert places p at pos, shifting the following bytes. pos may equal
// Length to append.
func (b *Buffer) Insert(p []byte, pos int64) error {
	if err := b.checkWritable(); err != nil {
		return err
	}
	if _, err := buf.CheckRange(b.Length(), pos, int64(len(p))); err != nil {
		return types.Errorf(types.ErrKindOutOfRange, err, "insert")
	}
	if len(p) == 0 {
		return nil
	}
	b.apply(types.EditInsert, pos, 0, []piece{memPiece(bytes.Clone(p))})
	return nil
}

// InsertFile inserts the whole content of the file at path as a file-backed
// piece; nothing is copied into memory.
func (b *Buffer) InsertFile(path string, pos int64) error {
	if err := b.checkWritable(); err != nil {
		return err
	}
	if _, err := buf.CheckRange(b.Length(), pos, 0); err != nil {
		return types.Errorf(types.ErrKindOutOfRange, err, "insert file")
	}
	src, err := openSource(b.opts.FS, path, b.opts.Mmap, false, b.log)
	if err != nil {
		return types.Errorf(types.ErrKindFile, err, "open %s", path)
	}
	if src.size == 0 {
		return src.close()
	}
	b.sources = append(b.sources, src)
	b.apply(types.EditInsert, pos, 0, []piece{{src: src, n: src.size}})
	return nil
}

// Overwrite replaces the bytes at [pos, pos+len(p)). Bytes that would land
// past the end are appended.
func (b *Buffer) Overwrite(p []byte, pos int64) error {
	if err := b.checkWritable(); err != nil {
		return err
	}
	length := b.Length()
	end, err := buf.CheckRange(length, pos, int64(len(p)))
	if err != nil {
		return types.Errorf(types.ErrKindOutOfRange, err, "overwrite")
	}
	if len(p) == 0 {
		return nil
	}
	b.apply(types.EditOverwrite, pos, min(end, length)-pos, []piece{memPiece(bytes.Clone(p))})
	return nil
}

// OverwriteBits replaces bitLength bits of the byte at pos, starting
// bitOffset bits from the most significant bit, with the low bits of value.
// (0, 4) is the upper nibble and (4, 4) the lower one.
func (b *Buffer) OverwriteBits(value byte, bitOffset, bitLength int, pos int64) error {
	if err := b.checkWritable(); err != nil {
		return err
	}
	if bitOffset < 0 || bitOffset > 7 || bitLength < 1 {
		return types.Errorf(types.ErrKindOutOfRange, nil, "bit range %d+%d", bitOffset, bitLength)
	}
	if pos < 0 || pos >= b.Length() {
		return types.Errorf(types.ErrKindOutOfRange, nil, "overwrite bits at %d beyond length %d", pos, b.Length())
	}
	bitLength = min(bitLength, 8-bitOffset)

	var cur [1]byte
	if _, err := b.Read(cur[:], pos); err != nil {
		return err
	}
	shift := 8 - bitOffset - bitLength
	mask := byte((0xff >> bitOffset) & (0xff << shift))
	next := cur[0]&^mask | (value<<shift)&mask
	b.apply(types.EditOverwrite, pos, 1, []piece{memPiece([]byte{next})})
	return nil
}

// Delete removes [pos, pos+n), clamped to the end of the content. An empty
// range is a no-op.
func (b *Buffer) Delete(pos, n int64) error {
	if err := b.checkWritable(); err != nil {
		return err
	}
	length := b.Length()
	if _, err := buf.CheckRange(length, pos, max(n, 0)); err != nil {
		return types.Errorf(types.ErrKindOutOfRange, err, "delete")
	}
	n = buf.Clamp(length, pos, n)
	if n == 0 {
		return nil
	}
	b.apply(types.EditDelete, pos, n, nil)
	return nil
}

// apply performs one edit and records it.
func (b *Buffer) apply(kind types.EditKind, pos, n int64, ins []piece) {
	removed := b.replace(pos, n, ins)
	st := step{pos: pos, removed: removed, inserted: ins}
	b.hist.record(&command{
		kind:   kind,
		steps:  []step{st},
		typing: piecesLen(removed)+piecesLen(ins) <= 2 && max(piecesLen(removed), piecesLen(ins)) == 1,
	})
	b.notify(Change{Origin: OriginEdit, Kind: kind, Pos: pos, Removed: piecesLen(removed), Inserted: piecesLen(ins)})
}

// replace swaps [pos, pos+n) for ins and returns the removed pieces. The new
// tree is built off to the side and published with a single store, so
// readers never see a half-spliced table.
func (b *Buffer) replace(pos, n int64, ins []piece) []piece {
	l, rest := split(b.root.Load(), pos)
	mid, r := split(rest, n)
	removed := collect(mid, nil)
	limit := b.opts.CoalesceLimit
	b.root.Store(joinCoalesce(joinCoalesce(l, build(ins), limit), r, limit))
	return removed
}

// Undo reverts the most recent command and returns the selection that
// covers the restored bytes. ok is false when there is nothing to undo.
func (b *Buffer) Undo() (sel types.Selection, ok bool, err error) {
	if err := b.checkWritable(); err != nil {
		return types.Selection{}, false, err
	}
	b.hist.flushGroup()
	c := b.hist.popUndo()
	if c == nil {
		return types.Selection{}, false, nil
	}
	for i := len(c.steps) - 1; i >= 0; i-- {
		s := c.steps[i]
		b.replace(s.pos, piecesLen(s.inserted), s.removed)
	}
	sel = c.undoSelection()
	b.notify(Change{Origin: OriginUndo, Kind: c.kind, Pos: sel.Start, Removed: insertedLen(c), Inserted: removedLen(c)})
	return sel, true, nil
}

// Redo replays the most recently undone command and returns the selection
// covering the bytes it produced.
func (b *Buffer) Redo() (sel types.Selection, ok bool, err error) {
	if err := b.checkWritable(); err != nil {
		return types.Selection{}, false, err
	}
	b.hist.flushGroup()
	c := b.hist.popRedo()
	if c == nil {
		return types.Selection{}, false, nil
	}
	for _, s := range c.steps {
		b.replace(s.pos, piecesLen(s.removed), s.inserted)
	}
	sel = c.redoSelection()
	b.notify(Change{Origin: OriginRedo, Kind: c.kind, Pos: sel.Start, Removed: removedLen(c), Inserted: insertedLen(c)})
	return sel, true, nil
}

func insertedLen(c *command) int64 {
	var n int64
	for _, s := range c.steps {
		n += piecesLen(s.inserted)
	}
	return n
}

func removedLen(c *command) int64 {
	var n int64
	for _, s := range c.steps {
		n += piecesLen(s.removed)
	}
	return n
}

// CanUndo reports whether Undo would change the content.
func (b *Buffer) CanUndo() bool {
	return len(b.hist.undo) > 0 || b.hist.group != nil && len(b.hist.group.steps) > 0
}

// CanRedo reports whether Redo would change the content.
func (b *Buffer) CanRedo() bool { return len(b.hist.redo) > 0 }

// IsDirty reports whether the content differs from the last save point.
func (b *Buffer) IsDirty() bool { return b.hist.dirty() }

// MarkClean records the current state as saved.
func (b *Buffer) MarkClean() { b.hist.markClean() }

// ResetHistory clears both stacks and the dirty flag.
func (b *Buffer) ResetHistory() { b.hist.reset() }

// CommitTyping ends the current run of merged single-byte edits.
func (b *Buffer) CommitTyping() { b.hist.sealed = true }

// BeginGroup starts collecting edits into one undo step. Groups nest; the
// step is recorded when the outermost EndGroup runs.
func (b *Buffer) BeginGroup() { b.hist.beginGroup() }

// EndGroup closes a group opened by BeginGroup.
func (b *Buffer) EndGroup() { b.hist.endGroup() }

// Stats summarises the buffer for diagnostics.
type Stats struct {
	Length       int64
	Pieces       int
	ChangedBytes int64
	UndoDepth    int
	RedoDepth    int
	HistoryBytes int64
	Dirty        bool
}

// Stats walks the piece table once.
func (b *Buffer) Stats() Stats {
	root := b.root.Load()
	st := Stats{
		Length:       root.weight(),
		Pieces:       root.pieces(),
		UndoDepth:    len(b.hist.undo),
		RedoDepth:    len(b.hist.redo),
		HistoryBytes: b.hist.bytes,
		Dirty:        b.hist.dirty(),
	}
	walk(root, 0, 0, func(p piece, _ int64) bool {
		if p.changed() {
			st.ChangedBytes += p.n
		}
		return true
	})
	return st
}
