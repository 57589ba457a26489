// Package writer exposes sinks for saving edited content.
package writer

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
)

// FileWriter writes content to a filesystem path atomically.
type FileWriter struct {
	Path string
	FS   afero.Fs // defaults to the OS filesystem
}

// WriteContent streams src into a temp file next to Path, then renames it
// over Path. The destination is untouched if any step fails.
func (w *FileWriter) WriteContent(src io.WriterTo) (int64, error) {
	fs := w.FS
	if fs == nil {
		fs = afero.NewOsFs()
	}

	// Create temp file in same directory to ensure atomic rename
	dir := filepath.Dir(w.Path)
	tmpFile, err := afero.TempFile(fs, dir, ".hexkit-tmp-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on error
	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = fs.Remove(tmpPath)
		}
	}()

	n, err := src.WriteTo(tmpFile)
	if err != nil {
		return n, fmt.Errorf("write temp file: %w", err)
	}

	// Sync to disk
	if syncErr := tmpFile.Sync(); syncErr != nil {
		return n, fmt.Errorf("sync temp file: %w", syncErr)
	}

	// Close before rename
	if closeErr := tmpFile.Close(); closeErr != nil {
		return n, fmt.Errorf("close temp file: %w", closeErr)
	}
	tmpFile = nil // Don't clean up in defer

	// Atomic rename
	if renameErr := fs.Rename(tmpPath, w.Path); renameErr != nil {
		_ = fs.Remove(tmpPath)
		return n, fmt.Errorf("rename temp file: %w", renameErr)
	}

	return n, nil
}
