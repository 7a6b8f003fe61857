package motion

import (
	"explorerl/internal/env"
)

// History is a fixed-capacity ring of the most recent positions; the oldest
// entry is overwritten once it is full.
type History struct {
	buf   []env.Position
	start int
	n     int
}

// NewHistory creates a history holding at most size positions
func NewHistory(size int) *History {
	return &History{buf: make([]env.Position, size)}
}

// Push appends p, evicting the oldest entry when full
func (h *History) Push(p env.Position) {
	if h.n < len(h.buf) {
		h.buf[(h.start+h.n)%len(h.buf)] = p
		h.n++
		return
	}
	h.buf[h.start] = p
	h.start = (h.start + 1) % len(h.buf)
}

// Back returns the entry k pushes ago (k=1 is the latest)
func (h *History) Back(k int) (env.Position, bool) {
	if k < 1 || k > h.n {
		return env.Position{}, false
	}
	return h.buf[(h.start+h.n-k)%len(h.buf)], true
}

// Oscillates reports whether p equals the position two steps before it,
// i.e. the second most recent entry before p is pushed.
func (h *History) Oscillates(p env.Position) bool {
	prev, ok := h.Back(2)
	return ok && prev == p
}

// Len returns the number of stored positions
func (h *History) Len() int {
	return h.n
}

// Slice returns the stored positions, oldest first
func (h *History) Slice() []env.Position {
	out := make([]env.Position, h.n)
	for i := 0; i < h.n; i++ {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}

// Reset empties the history
func (h *History) Reset() {
	h.start = 0
	h.n = 0
}
