package content

import "math/rand/v2"

// node is one element of an immutable treap ordered by logical offset.
// Updates copy the path from the root to the touched node, so any root ever
// published stays valid for readers holding it.
type node struct {
	left, right *node
	p           piece
	size        int64 // bytes in this subtree
	count       int   // pieces in this subtree
	prio        uint64
}

func newNode(p piece, left, right *node, prio uint64) *node {
	return &node{
		left:  left,
		right: right,
		p:     p,
		size:  p.n + left.weight() + right.weight(),
		count: 1 + left.pieces() + right.pieces(),
		prio:  prio,
	}
}

func leaf(p piece) *node { return newNode(p, nil, nil, rand.Uint64()) }

func (t *node) weight() int64 {
	if t == nil {
		return 0
	}
	return t.size
}

func (t *node) pieces() int {
	if t == nil {
		return 0
	}
	return t.count
}

// merge concatenates a and b; every offset in a precedes every offset in b.
func merge(a, b *node) *node {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	if a.prio >= b.prio {
		return newNode(a.p, a.left, merge(a.right, b), a.prio)
	}
	return newNode(b.p, merge(a, b.left), b.right, b.prio)
}

// split divides t into the bytes before k and the bytes from k on, cutting
// the piece that straddles k.
func split(t *node, k int64) (*node, *node) {
	if t == nil {
		return nil, nil
	}
	if k <= 0 {
		return nil, t
	}
	if k >= t.size {
		return t, nil
	}
	ls := t.left.weight()
	switch {
	case k <= ls:
		a, b := split(t.left, k)
		return a, newNode(t.p, b, t.right, t.prio)
	case k >= ls+t.p.n:
		a, b := split(t.right, k-ls-t.p.n)
		return newNode(t.p, t.left, a, t.prio), b
	default:
		lp, rp := t.p.split(k - ls)
		return newNode(lp, t.left, nil, t.prio), newNode(rp, nil, t.right, t.prio)
	}
}

// build turns an ordered piece list into a tree.
func build(ps []piece) *node {
	var t *node
	for _, p := range ps {
		if p.n > 0 {
			t = merge(t, leaf(p))
		}
	}
	return t
}

// collect appends the pieces of t to out in order.
func collect(t *node, out []piece) []piece {
	if t == nil {
		return out
	}
	out = collect(t.left, out)
	out = append(out, t.p)
	return collect(t.right, out)
}

// walk visits, in order, every piece that ends after from; start is the
// piece's logical offset. Returning false from fn stops the walk.
func walk(t *node, from, base int64, fn func(p piece, start int64) bool) bool {
	if t == nil {
		return true
	}
	ls := t.left.weight()
	if from < base+ls {
		if !walk(t.left, from, base, fn) {
			return false
		}
	}
	start := base + ls
	if from < start+t.p.n {
		if !fn(t.p, start) {
			return false
		}
	}
	return walk(t.right, from, start+t.p.n, fn)
}

func first(t *node) piece {
	for t.left != nil {
		t = t.left
	}
	return t.p
}

func last(t *node) piece {
	for t.right != nil {
		t = t.right
	}
	return t.p
}

// joinCoalesce concatenates l and r, fusing the pieces that meet at the seam
// when piece.join allows it. This keeps the piece count bounded under
// byte-at-a-time typing.
func joinCoalesce(l, r *node, limit int64) *node {
	if l == nil || r == nil {
		return merge(l, r)
	}
	lp, rp := last(l), first(r)
	j, ok := lp.join(rp, limit)
	if !ok {
		return merge(l, r)
	}
	l, _ = split(l, l.size-lp.n)
	_, r = split(r, rp.n)
	return merge(merge(l, leaf(j)), r)
}
