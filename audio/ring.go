// SPDX-License-Identifier: EPL-2.0

package audio

import "sync"

// Ring is a bounded FIFO of samples. Writers never overwrite unread data.
type Ring struct {
	mu   sync.Mutex
	buf  []float32
	head int
	size int
}

func NewRing(capacity int) *Ring {
	return &Ring{buf: make([]float32, max(capacity, 1))}
}

// Write stores as many samples of p as fit and returns how many it took.
func (r *Ring) Write(p []float32) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := min(len(p), len(r.buf)-r.size)
	tail := (r.head + r.size) % len(r.buf)
	c := copy(r.buf[tail:], p[:n])
	copy(r.buf, p[c:n])
	r.size += n

	return n
}

// Read moves up to len(p) samples into p and returns how many it moved.
func (r *Ring) Read(p []float32) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := min(len(p), r.size)
	c := copy(p[:n], r.buf[r.head:])
	copy(p[c:n], r.buf)
	r.head = (r.head + n) % len(r.buf)
	r.size -= n

	return n
}

func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

func (r *Ring) Free() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buf) - r.size
}

func (r *Ring) Cap() int { return len(r.buf) }

func (r *Ring) Reset() {
	r.mu.Lock()
	r.head, r.size = 0, 0
	r.mu.Unlock()
}
