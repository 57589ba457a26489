// Package content implements the edit buffer behind a hex/text binary editor.
//
// # Overview
//
// A Buffer represents the current bytes of a file being edited. The original
// file is opened read-only and never copied; edits are kept as a piece table
// whose pieces reference either a span of a file or a slice of bytes in
// memory. Memory use therefore depends on the size of the edits, not on the
// size of the file.
//
// # Piece Table
//
// Pieces live in an immutable treap ordered by logical offset. Locating an
// offset, splitting a piece and splicing a run of pieces are O(log n) in the
// number of pieces. Each mutation builds a new root beside the live one and
// publishes it atomically:
//
//	l, rest := split(root, pos)
//	mid, r := split(rest, n)
//	root = join(join(l, inserted), r) // mid becomes the removed pieces
//
// Adjacent memory pieces are fused at splice points up to CoalesceLimit
// bytes, so typing one byte at a time does not grow the table by a piece
// per keystroke.
//
// # Undo and Redo
//
// Every edit is recorded as a step {pos, removed, inserted}. Removed bytes
// are kept as pieces, so deleting a gigabyte of the original file costs a
// few words of history. Undo swaps inserted for removed, redo swaps them
// back, both strictly LIFO. A new edit discards the redo stack.
//
// Single-byte edits that continue each other (typing, backspacing, entering
// both nibbles of a hex digit pair) merge into one step until CommitTyping,
// Undo, Redo or MarkClean. BeginGroup/EndGroup collapse longer runs such as
// a paste or a replace-all.
//
// # Reading
//
//	window := make([]byte, 4096)
//	n, changes, err := b.ReadChanges(window, offset)
//	// changes lists the memory-backed spans of window[:n]
//
// # Thread Safety
//
// A Buffer has a single writer. Read, ReadChanges and Length are safe on
// other goroutines; they see one complete version of the content. Scans
// bracket themselves with BeginScan/EndScan, and mutations issued meanwhile
// fail with types.ErrEditConflict.
package content
