// SPDX-License-Identifier: EPL-2.0

package server

import "sync"

// ComputeFunc produces the next block of a unit into its output buffer.
type ComputeFunc func() error

// Stream is the scheduler-visible handle of a unit. The unit owns the output
// buffer; the stream only keeps a view of it.
type Stream struct {
	id      int
	data    []float32
	compute ComputeFunc

	mu              sync.Mutex
	active          bool
	toDac           bool
	chnl            int
	duration        int
	durationCount   int
	bufferCountWait int
	bufferCount     int
	onStop          func()
}

func (s *Stream) ID() int { return s.id }

// Data returns the unit's output block as computed in the last callback.
func (s *Stream) Data() []float32 { return s.data }

func (s *Stream) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SetActive turns computing on or off. Turning a stream off also cancels a
// pending delayed start.
func (s *Stream) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = active
	if !active {
		s.bufferCountWait, s.bufferCount = 0, 0
	}
}

// Out routes the stream to output channel chnl. The channel is reduced modulo
// the server channel count when mixing.
func (s *Stream) Out(chnl int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.toDac = true
	s.chnl = chnl
}

// SetToDac enables or disables mixing into the output buffer.
func (s *Stream) SetToDac(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toDac = on
}

func (s *Stream) ToDac() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toDac
}

func (s *Stream) Channel() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chnl
}

// SetDuration makes an active stream deactivate itself after the given number
// of blocks. Zero disables the countdown.
func (s *Stream) SetDuration(blocks int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.duration = max(blocks, 0)
	s.durationCount = 0
}

func (s *Stream) Duration() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

// SetBufferCountWait keeps an inactive stream waiting for the given number of
// blocks, after which it activates itself.
func (s *Stream) SetBufferCountWait(blocks int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bufferCountWait = max(blocks, 0)
	s.bufferCount = 0
}

func (s *Stream) BufferCountWait() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bufferCountWait
}

// Play activates the stream, or schedules it after delay blocks, and limits it
// to dur blocks of activity when dur is positive.
func (s *Stream) Play(dur, delay int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.duration = max(dur, 0)
	s.durationCount = 0
	s.bufferCount = 0
	if delay > 0 {
		s.active = false
		s.bufferCountWait = delay
		return
	}
	s.active = true
	s.bufferCountWait = 0
}

// Stop deactivates the stream and clears its counters.
func (s *Stream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = false
	s.duration, s.durationCount = 0, 0
	s.bufferCountWait, s.bufferCount = 0, 0
}

// OnStop registers a function run on the audio thread when the duration
// countdown deactivates the stream. Registry changes it makes are applied
// when the block ends.
func (s *Stream) OnStop(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStop = fn
}

type streamState struct {
	active  bool
	waiting bool
	toDac   bool
	chnl    int
	timed   bool
}

func (s *Stream) snapshot() streamState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return streamState{
		active:  s.active,
		waiting: s.bufferCountWait != 0,
		toDac:   s.toDac,
		chnl:    s.chnl,
		timed:   s.duration != 0,
	}
}

// advanceDuration counts one active block and reports the stop hook to run when
// the countdown expires.
func (s *Stream) advanceDuration() (expired bool, hook func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.duration == 0 {
		return false, nil
	}

	s.durationCount++
	if s.durationCount < s.duration {
		return false, nil
	}

	s.active = false
	s.duration, s.durationCount = 0, 0

	return true, s.onStop
}

// advanceWait counts one waiting block and reports whether the stream started.
func (s *Stream) advanceWait() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bufferCountWait == 0 {
		return false
	}

	s.bufferCount++
	if s.bufferCount < s.bufferCountWait {
		return false
	}

	s.active = true
	s.bufferCountWait, s.bufferCount = 0, 0

	return true
}
