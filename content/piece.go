package content

// piece is an immutable span of the logical content. A nil src means the
// bytes live in data; otherwise they are n bytes of src starting at off.
// Pieces are shared between the live tree and the undo history, so neither
// the data slice nor the struct is ever modified after creation.
type piece struct {
	src  *source
	off  int64
	data []byte
	n    int64
}

func memPiece(b []byte) piece { return piece{data: b, n: int64(len(b))} }

func (p piece) isMem() bool { return p.src == nil }

// changed reports whether the piece differs from the original file.
func (p piece) changed() bool { return p.src == nil || !p.src.original }

// split cuts p at k (0 < k < p.n).
func (p piece) split(k int64) (piece, piece) {
	if p.src == nil {
		return piece{data: p.data[:k:k], n: k}, piece{data: p.data[k:], n: p.n - k}
	}
	return piece{src: p.src, off: p.off, n: k}, piece{src: p.src, off: p.off + k, n: p.n - k}
}

// slice returns the sub-piece [from, to).
func (p piece) slice(from, to int64) piece {
	if p.src == nil {
		return piece{data: p.data[from:to:to], n: to - from}
	}
	return piece{src: p.src, off: p.off + from, n: to - from}
}

// join appends b to p when both live in memory and fit under limit, or when
// both reference consecutive spans of the same source.
func (p piece) join(b piece, limit int64) (piece, bool) {
	switch {
	case p.src == nil && b.src == nil:
		if p.n+b.n > limit {
			return piece{}, false
		}
		data := make([]byte, 0, p.n+b.n)
		data = append(append(data, p.data...), b.data...)
		return memPiece(data), true
	case p.src != nil && p.src == b.src && p.off+p.n == b.off:
		return piece{src: p.src, off: p.off, n: p.n + b.n}, true
	}
	return piece{}, false
}

// piecesLen returns the total byte count of ps.
func piecesLen(ps []piece) int64 {
	var n int64
	for _, p := range ps {
		n += p.n
	}
	return n
}

// piecesMem returns the bytes of ps held in memory.
func piecesMem(ps []piece) int64 {
	var n int64
	for _, p := range ps {
		if p.src == nil {
			n += p.n
		}
	}
	return n
}

// slicePieces returns the pieces covering [from, to) of the concatenation of ps.
func slicePieces(ps []piece, from, to int64) []piece {
	var out []piece
	var at int64
	for _, p := range ps {
		start, end := at, at+p.n
		at = end
		if end <= from || start >= to {
			continue
		}
		lo := max(from, start) - start
		hi := min(to, end) - start
		out = append(out, p.slice(lo, hi))
	}
	return out
}
