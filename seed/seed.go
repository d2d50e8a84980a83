// SPDX-License-Identifier: EPL-2.0

package seed

import (
	"fmt"
	"sync"
	"time"
)

const (
	// Max is the modulus of the generator.
	Max uint64 = 4294967295

	lcgMul uint32 = 1664525
	lcgInc uint32 = 1013904223

	initialState uint32 = 1
)

// Generator holds the shared LCG state, the global seed and the per-kind counters.
// It is safe for concurrent use.
type Generator struct {
	mu         sync.Mutex
	state      uint32
	globalSeed uint64
	counts     [NumKinds]uint64
	now        func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock replaces the wall clock used when no global seed is set.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		state: initialState,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}

	return g
}

// SetGlobalSeed sets the seed used by GenerateSeed. Negative values clamp to 0,
// which selects wall-clock seeding.
func (g *Generator) SetGlobalSeed(n int64) {
	if n < 0 {
		n = 0
	}

	g.mu.Lock()
	g.globalSeed = uint64(n)
	g.mu.Unlock()
}

func (g *Generator) GlobalSeed() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.globalSeed
}

// Rand advances the shared state and returns it.
func (g *Generator) Rand() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.state = next(g.state)

	return g.state
}

// next is one LCG step. The product wraps at 2^32 before the modulus, as the
// state is a 32-bit unsigned integer.
func next(state uint32) uint32 {
	return (state*lcgMul + lcgInc) % uint32(Max)
}

// Uniform returns the next draw scaled to [0, 1].
func (g *Generator) Uniform() float64 {
	return float64(g.Rand()) / float64(Max)
}

// Fill writes successive draws scaled to [-1, 1] into dst, holding the lock
// once for the whole slice.
func (g *Generator) Fill(dst []float32) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := range dst {
		g.state = next(g.state)
		dst[i] = float32(2*float64(g.state)/float64(Max) - 1)
	}
}

// GenerateSeed bumps the counter of kind k, derives a new seed from it and
// overwrites the shared state with that seed.
func (g *Generator) GenerateSeed(k Kind) (uint32, error) {
	if !k.Valid() {
		return 0, fmt.Errorf("kind %d: %w", int(k), ErrUnknownKind)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.counts[k]++
	offset := (g.counts[k] * k.Prime()) % Max

	var base uint64
	if g.globalSeed > 0 {
		base = g.globalSeed % Max
	} else {
		secs := uint64(g.now().Unix())
		base = (secs * secs) % Max
	}

	g.state = uint32((base + offset) % Max)

	return g.state, nil
}

// Reset zeroes every per-kind counter. The running state is kept.
func (g *Generator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	clear(g.counts[:])
}

// State returns the current shared state without advancing it.
func (g *Generator) State() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.state
}

// Count returns how many seeds were generated for k since the last Reset.
func (g *Generator) Count(k Kind) uint64 {
	if !k.Valid() {
		return 0
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	return g.counts[k]
}
