// SPDX-License-Identifier: EPL-2.0

package server

import (
	"fmt"
	"sync"
)

// MaxServers is the number of slots in a Table.
const MaxServers = 256

// Table is a bounded arena of servers addressed by slot id, with one slot
// selected as current.
type Table struct {
	mu      sync.RWMutex
	slots   [MaxServers]*Server
	current int
}

func NewTable() *Table {
	return &Table{current: -1}
}

// NewServer creates a server in the first free slot and makes it current.
func (t *Table) NewServer(cfg Config, opts ...Option) (*Server, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, slot := range t.slots {
		if slot != nil {
			continue
		}

		srv := newServer(id, t, cfg, opts...)
		t.slots[id] = srv
		t.current = id

		return srv, nil
	}

	return nil, fmt.Errorf("%d servers in use: %w", MaxServers, ErrNoFreeSlot)
}

// Get returns the server in slot id.
func (t *Table) Get(id int) (*Server, bool) {
	if id < 0 || id >= MaxServers {
		return nil, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	srv := t.slots[id]
	return srv, srv != nil
}

// SetCurrent selects the server in slot id as current.
func (t *Table) SetCurrent(id int) error {
	if _, ok := t.Get(id); !ok {
		return fmt.Errorf("slot %d: %w", id, ErrServerNotFound)
	}

	t.mu.Lock()
	t.current = id
	t.mu.Unlock()

	return nil
}

// Current returns the current server, if any.
func (t *Table) Current() (*Server, bool) {
	t.mu.RLock()
	id := t.current
	t.mu.RUnlock()

	return t.Get(id)
}

// Len returns the number of occupied slots.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for _, slot := range t.slots {
		if slot != nil {
			n++
		}
	}

	return n
}

// ProcessEmbedded drives one block of the server in slot id. Hosts that run
// several engines in one process call it from their own audio callback.
func (t *Table) ProcessEmbedded(id int) error {
	srv, ok := t.Get(id)
	if !ok {
		return fmt.Errorf("slot %d: %w", id, ErrServerNotFound)
	}

	return srv.ProcessBuffers()
}

func (t *Table) release(id int, srv *Server) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if id < 0 || id >= MaxServers || t.slots[id] != srv {
		return
	}

	t.slots[id] = nil
	if t.current == id {
		t.current = -1
	}
}
