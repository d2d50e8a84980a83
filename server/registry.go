// SPDX-License-Identifier: EPL-2.0

package server

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// NewStream creates an inactive, unrouted stream with the next id of this
// server. data is the unit's output block; compute fills it.
func (s *Server) NewStream(data []float32, compute ComputeFunc) *Stream {
	return &Stream{
		id:      int(s.nextStreamID.Add(1)),
		data:    data,
		compute: compute,
	}
}

// AddStream appends st to the end of the registry. Called while a block is
// being processed, the stream is queued and joins the registry once the block
// is done; it is first computed in the next block.
func (s *Server) AddStream(st *Stream) error {
	if st == nil || st.compute == nil {
		s.log.error("addStream needs a stream with a compute function")
		return ErrInvalidStream
	}

	if !s.IsBooted() {
		s.log.error("the server must be booted before adding streams", zap.Int("stream", st.id))
		return fmt.Errorf("stream %d: %w", st.id, ErrNotBooted)
	}
	if s.deferInBlock(func() { _ = s.addLocked(st) }) {
		return nil
	}

	s.regMu.Lock()
	defer s.regMu.Unlock()

	return s.addLocked(st)
}

func (s *Server) addLocked(st *Stream) error {
	if !s.IsBooted() {
		s.log.error("the server must be booted before adding streams", zap.Int("stream", st.id))
		return fmt.Errorf("stream %d: %w", st.id, ErrNotBooted)
	}
	if s.indexLocked(st.id) >= 0 {
		s.log.warning("stream already registered", zap.Int("stream", st.id))
		return fmt.Errorf("stream %d: %w", st.id, ErrDuplicateStream)
	}

	s.streams = append(s.streams, st)
	s.publishLocked()
	s.log.debug("stream added", zap.Int("stream", st.id), zap.Int("count", len(s.streams)))
	s.observer.StreamsChanged(len(s.streams))

	return nil
}

// RemoveStream removes the stream with the given id, keeping the order of the
// others. Unknown ids and closed servers are ignored. Called while a block is
// being processed, the removal happens once the block is done.
func (s *Server) RemoveStream(id int) {
	if s.isClosed() {
		return
	}
	if s.deferInBlock(func() { s.removeLocked(id) }) {
		return
	}

	s.regMu.Lock()
	defer s.regMu.Unlock()

	s.removeLocked(id)
}

func (s *Server) removeLocked(id int) {
	i := s.indexLocked(id)
	if i < 0 {
		return
	}

	s.streams = slices.Delete(s.streams, i, i+1)
	s.publishLocked()
	s.log.debug("stream removed", zap.Int("stream", id), zap.Int("count", len(s.streams)))
	s.observer.StreamsChanged(len(s.streams))
}

// ChangeStreamPosition moves move to just before ref so it is computed first.
// Called while a block is being processed, the move happens once the block is
// done and a missing stream is only logged.
func (s *Server) ChangeStreamPosition(ref, move *Stream) error {
	if ref == nil || move == nil {
		s.log.error("changeStreamPosition needs two streams")
		return ErrInvalidStream
	}
	if ref.id == move.id {
		return nil
	}
	if s.deferInBlock(func() { _ = s.moveLocked(ref, move) }) {
		return nil
	}

	s.regMu.Lock()
	defer s.regMu.Unlock()

	return s.moveLocked(ref, move)
}

func (s *Server) moveLocked(ref, move *Stream) error {
	from := s.indexLocked(move.id)
	if from < 0 || s.indexLocked(ref.id) < 0 {
		s.log.warning("changeStreamPosition with an unregistered stream",
			zap.Int("reference", ref.id), zap.Int("stream", move.id))
		return ErrStreamNotFound
	}

	s.streams = slices.Delete(s.streams, from, from+1)
	to := s.indexLocked(ref.id)
	s.streams = slices.Insert(s.streams, to, move)
	s.publishLocked()

	s.log.debug("stream moved", zap.Int("stream", move.id), zap.Int("before", ref.id))

	return nil
}

// Streams returns a copy of the registry in processing order. Changes queued
// during the current block are not visible yet.
func (s *Server) Streams() []*Stream {
	if v := s.view.Load(); v != nil {
		return slices.Clone(*v)
	}
	return nil
}

func (s *Server) StreamCount() int {
	if v := s.view.Load(); v != nil {
		return len(*v)
	}
	return 0
}

func (s *Server) indexLocked(id int) int {
	return slices.IndexFunc(s.streams, func(st *Stream) bool { return st.id == id })
}

// publishLocked refreshes the lock-free copy read by Streams.
func (s *Server) publishLocked() {
	v := slices.Clone(s.streams)
	s.view.Store(&v)
}

// deferInBlock queues op when a block is being processed and reports whether
// it did. Queued operations run in order after the walk, with regMu held.
func (s *Server) deferInBlock(op func()) bool {
	s.pendMu.Lock()
	defer s.pendMu.Unlock()

	if !s.inBlock {
		return false
	}
	s.pending = append(s.pending, op)

	return true
}

func (s *Server) enterBlock() {
	s.pendMu.Lock()
	s.inBlock = true
	s.pendMu.Unlock()
}

// leaveBlock applies the queued operations, then reopens the registry to
// direct mutation.
func (s *Server) leaveBlock() {
	for {
		s.pendMu.Lock()
		ops := s.pending
		s.pending = nil
		if len(ops) == 0 {
			s.inBlock = false
			s.pendMu.Unlock()
			return
		}
		s.pendMu.Unlock()

		for _, op := range ops {
			op()
		}
	}
}
