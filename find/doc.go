// Package find scans content for a byte or text pattern one window at a time.
//
// A Finder keeps a cursor into the content. Each NextMatch call resumes from
// the cursor in the configured direction, reads fixed-size windows through
// the Content interface, and stops at the first match or at the content
// boundary:
//
//	f := find.New([]byte{0xCA, 0xFE}, buf, find.Options{})
//	for {
//	    m, ok, err := f.NextMatch(ctx)
//	    if err != nil || !ok {
//	        break
//	    }
//	    fmt.Println(m.Start, m.Length)
//	}
//
// Consecutive windows overlap by the longest possible match minus one byte,
// so matches that straddle a window boundary are still reported.
//
// # Text Patterns
//
// NewText encodes the pattern in the content's charset (UTF-8 by default,
// any IANA name otherwise). Case-insensitive patterns accept every simple
// case folding of each character, so comparison happens on characters rather
// than on raw bytes and multi-byte encodings compare correctly.
//
// # Cancellation
//
// Stop may be called from any goroutine while NextMatch runs. The scan checks
// the flag once per window and returns no match; the context passed to
// NextMatch is checked at the same points.
package find
