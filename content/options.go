package content

import (
	"log/slog"

	"github.com/spf13/afero"
)

const (
	// DefaultHistoryDepth bounds the number of undoable commands.
	DefaultHistoryDepth = 10000
	// DefaultHistoryBytes bounds the edit bytes retained by the history.
	DefaultHistoryBytes = 64 << 20
	// DefaultCoalesceLimit is the largest memory piece produced by fusing
	// neighbours.
	DefaultCoalesceLimit = 64 << 10
	// DefaultSaveChunk is the window used when streaming content out.
	DefaultSaveChunk = 2 << 20
)

// Options configures a Buffer. The zero value is usable.
type Options struct {
	// FS opens the original file and any inserted files. Default: OS filesystem.
	FS afero.Fs

	// Mmap maps the original file read-only instead of issuing positional
	// reads. Only honoured on the OS filesystem of unix platforms.
	Mmap bool

	// HistoryDepth limits undo depth; oldest commands are dropped first.
	HistoryDepth int

	// HistoryBytes limits memory held by undo/redo commands.
	HistoryBytes int64

	// CoalesceLimit caps the size of memory pieces fused at splice points.
	CoalesceLimit int64

	// SaveChunk is the window size of WriteTo.
	SaveChunk int

	// NoTypingMerge keeps every single-byte edit as its own undo step.
	NoTypingMerge bool

	// Logger receives debug and warning records. Default: logger.L.
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.FS == nil {
		o.FS = afero.NewOsFs()
	}
	if o.HistoryDepth <= 0 {
		o.HistoryDepth = DefaultHistoryDepth
	}
	if o.HistoryBytes <= 0 {
		o.HistoryBytes = DefaultHistoryBytes
	}
	if o.CoalesceLimit <= 0 {
		o.CoalesceLimit = DefaultCoalesceLimit
	}
	if o.SaveChunk <= 0 {
		o.SaveChunk = DefaultSaveChunk
	}
	return o
}
