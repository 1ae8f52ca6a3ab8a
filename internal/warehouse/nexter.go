package warehouse

import "sync/atomic"

// Nexter is a threadsafe monotonic surrogate-id generator. Ids are unique
// within one run and carry no meaning across runs.
type Nexter struct {
	id atomic.Int64
}

// Next returns a fresh id, starting at 0.
func (n *Nexter) Next() int64 {
	return n.id.Add(1) - 1
}

// Last returns the most recently generated id, or -1 before the first Next.
func (n *Nexter) Last() int64 {
	return n.id.Load() - 1
}
