//go:build !unix

// Package mmfile provides platform-specific helpers for memory-mapping the
// original file of an edit buffer.
package mmfile

import "errors"

// Supported reports whether Map maps files instead of failing.
const Supported = false

// ErrUnsupported is returned by Map on platforms without mmap support.
// Callers fall back to positional reads so memory stays independent of file size.
var ErrUnsupported = errors.New("mmfile: memory mapping not supported on this platform")

// Map always fails on this platform.
func Map(path string) ([]byte, func() error, error) {
	return nil, nil, ErrUnsupported
}
