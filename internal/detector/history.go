// internal/detector/history.go
package detector

import "github.com/tamzrod/sabwatch/internal/status"

// History is a fixed-capacity ring of the most recent snapshots.
// Not safe for concurrent use; owned by the detector.
type History struct {
	buf  []status.Snapshot
	head int // index of the oldest sample
	n    int
}

// NewHistory creates a ring holding at most capacity samples (min 1).
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{buf: make([]status.Snapshot, capacity)}
}

// Push appends s, evicting the oldest sample when full.
func (h *History) Push(s status.Snapshot) {
	if h.n < len(h.buf) {
		h.buf[(h.head+h.n)%len(h.buf)] = s
		h.n++
		return
	}
	h.buf[h.head] = s
	h.head = (h.head + 1) % len(h.buf)
}

func (h *History) Len() int   { return h.n }
func (h *History) Cap() int   { return len(h.buf) }
func (h *History) Full() bool { return h.n == len(h.buf) }

// Oldest returns the oldest retained sample. ok=false when empty.
func (h *History) Oldest() (status.Snapshot, bool) {
	if h.n == 0 {
		return status.Snapshot{}, false
	}
	return h.buf[h.head], true
}

// Newest returns the most recent sample. ok=false when empty.
func (h *History) Newest() (status.Snapshot, bool) {
	if h.n == 0 {
		return status.Snapshot{}, false
	}
	return h.buf[(h.head+h.n-1)%len(h.buf)], true
}
