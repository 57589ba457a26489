// Package types defines the small value types and typed errors shared by the
// hexkit edit engine, its finder and its transfer helpers.
//
// Design goals:
//   - Offsets are int64 logical positions in the current (edited) content.
//   - Typed errors with stable categories (file/io/range/conflict/...).
//   - No dependencies beyond the standard library.
package types
