package provision

import "sync"

// Gate serializes submissions for one form instance. Begin refuses while a
// request is outstanding, and Finish reports whether the finishing request is
// still the latest generation; a response that lost the race is dropped
// instead of applied to form state.
type Gate struct {
	mu       sync.Mutex
	inflight bool
	gen      uint64
}

// Begin claims the gate. It returns the claimed generation and false when a
// request is already outstanding.
func (g *Gate) Begin() (uint64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inflight {
		return 0, false
	}
	g.inflight = true
	g.gen++
	return g.gen, true
}

// Finish releases the gate for the given generation and reports whether that
// generation is still current. A stale finish releases nothing.
func (g *Gate) Finish(gen uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.gen {
		return false
	}
	g.inflight = false
	return true
}

// InFlight reports whether a submission is outstanding.
func (g *Gate) InFlight() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inflight
}
