package types

import (
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Typed Errors (stable categories for programmatic handling)
// -----------------------------------------------------------------------------

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindFile         ErrKind = iota // open failure (not found, permission denied)
	ErrKindIO                          // transient read failure from a backing file
	ErrKindOutOfRange                  // position or range outside the current content
	ErrKindEditConflict                // mutation issued while a scan is outstanding
	ErrKindClosed                      // operation on a disposed buffer
	ErrKindPattern                     // malformed search pattern or unknown charset
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindFile:
		return "file"
	case ErrKindIO:
		return "io"
	case ErrKindOutOfRange:
		return "out of range"
	case ErrKindEditConflict:
		return "edit conflict"
	case ErrKindClosed:
		return "closed"
	case ErrKindPattern:
		return "pattern"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind, so the sentinels
// below match any error of their category.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels commonly returned by implementations.
var (
	// ErrFile indicates the original file could not be opened.
	ErrFile = &Error{Kind: ErrKindFile, Msg: "cannot open file"}
	// ErrIO indicates a read from the backing file failed.
	ErrIO = &Error{Kind: ErrKindIO, Msg: "read failed"}
	// ErrOutOfRange indicates a position beyond the current length.
	ErrOutOfRange = &Error{Kind: ErrKindOutOfRange, Msg: "position out of range"}
	// ErrEditConflict indicates a mutation while a scan is running.
	ErrEditConflict = &Error{Kind: ErrKindEditConflict, Msg: "content is being scanned"}
	// ErrClosed indicates the buffer was disposed.
	ErrClosed = &Error{Kind: ErrKindClosed, Msg: "buffer disposed"}
	// ErrPattern indicates an unusable search pattern.
	ErrPattern = &Error{Kind: ErrKindPattern, Msg: "invalid pattern"}
)

// Errorf builds a typed error of the given kind.
func Errorf(kind ErrKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// -----------------------------------------------------------------------------
// Core value types
// -----------------------------------------------------------------------------

// Selection is a half-open [Start, End) span of logical offsets.
type Selection struct {
	Start int64
	End   int64
}

// Len returns the number of bytes covered by the selection.
func (s Selection) Len() int64 { return s.End - s.Start }

// ChangeRange marks a sub-span of a read window whose bytes come from an edit
// rather than the original file. Start is relative to the window position.
type ChangeRange struct {
	Start  int64
	Length int64
}

// End returns the exclusive end of the range.
func (r ChangeRange) End() int64 { return r.Start + r.Length }

// EditKind enumerates the user-visible edit commands.
type EditKind int

const (
	EditInsert EditKind = iota
	EditOverwrite
	EditDelete
	EditCompound // a group of edits undone as one step (paste, replace-all)
)

// String implements the Stringer interface for EditKind
func (k EditKind) String() string {
	switch k {
	case EditInsert:
		return "insert"
	case EditOverwrite:
		return "overwrite"
	case EditDelete:
		return "delete"
	case EditCompound:
		return "compound"
	default:
		return fmt.Sprintf("edit(%d)", int(k))
	}
}
