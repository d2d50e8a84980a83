// SPDX-License-Identifier: EPL-2.0

package server

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ik5/audsrv/utils"
)

// ErrUnitPanic wraps a panic recovered from a compute function or hook.
var ErrUnitPanic = errors.New("panic in audio thread")

// ProcessBuffers computes one block: it clears the output, runs the hook, then
// computes every active stream in registration order and mixes the routed ones
// into the output buffer. A failing unit is silenced for the block and the
// walk continues.
//
// The hook and compute functions may create and close units: registry and
// lifecycle changes they request are applied after the walk, before
// ProcessBuffers returns.
func (s *Server) ProcessBuffers() error {
	s.regMu.Lock()
	defer s.regMu.Unlock()
	s.enterBlock()
	defer s.leaveBlock()

	s.mu.RLock()
	booted := s.booted
	out := s.output
	frames := s.bufferSize
	nchnls := s.nchnls
	hook := s.callback
	rate := s.samplingRate
	s.mu.RUnlock()

	if !booted {
		return ErrNotBooted
	}

	begin := time.Now()
	deadline := blockPeriod(frames, rate)

	clear(out)
	s.elapsed.Add(int64(frames))
	s.publishMidi()

	if hook != nil {
		s.runHook(hook, deadline)
	}

	for _, st := range s.streams {
		s.processStream(st, out, frames, nchnls)
	}

	s.observer.BlockProcessed(time.Since(begin), deadline)

	return nil
}

func (s *Server) processStream(st *Stream, out []float32, frames, nchnls int) {
	state := st.snapshot()

	if !state.active {
		if state.waiting && st.advanceWait() {
			s.log.debug("delayed stream activated", zap.Int("stream", st.id))
		}
		return
	}

	if err := s.compute(st); err != nil {
		clear(st.data)
		s.log.error("unit failed, silenced for this block", zap.Int("stream", st.id), zap.Error(err))
		s.observer.UnitFault(st.id)
	} else if state.toDac {
		ch := state.chnl % nchnls
		if ch < 0 {
			ch += nchnls
		}
		utils.AddInterleaved(out, st.data[:min(len(st.data), frames)], ch, nchnls)
	}

	if !state.timed {
		return
	}
	if expired, onStop := st.advanceDuration(); expired {
		s.log.debug("stream duration elapsed", zap.Int("stream", st.id))
		if onStop != nil {
			s.runGuarded(onStop, st.id)
		}
	}
}

func (s *Server) compute(st *Stream) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrUnitPanic, r)
		}
	}()

	return st.compute()
}

func (s *Server) runHook(hook func(), deadline time.Duration) {
	begin := time.Now()

	func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.error("callback hook panicked", zap.Any("panic", r))
				s.observer.HookFault()
			}
		}()
		hook()
	}()

	if elapsed := time.Since(begin); elapsed > deadline {
		s.log.warning("callback hook overran the block deadline",
			zap.Duration("elapsed", elapsed), zap.Duration("deadline", deadline))
		s.observer.HookOverrun(elapsed)
	}
}

func (s *Server) runGuarded(fn func(), id int) {
	defer func() {
		if r := recover(); r != nil {
			s.log.error("stop hook panicked", zap.Int("stream", id), zap.Any("panic", r))
			s.observer.UnitFault(id)
		}
	}()

	fn()
}

func blockPeriod(frames int, rate float64) time.Duration {
	return time.Duration(float64(frames) / rate * float64(time.Second))
}
