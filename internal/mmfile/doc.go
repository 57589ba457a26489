//go:build unix

// Package mmfile provides platform-specific helpers for memory-mapping the
// original file of an edit buffer.
package mmfile
