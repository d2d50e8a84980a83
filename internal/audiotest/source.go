// SPDX-License-Identifier: EPL-2.0

// Package audiotest provides deterministic sample sources for tests.
package audiotest

import (
	"io"
	"math"
	"sync/atomic"
)

// Wave returns the value of channel ch at frame.
type Wave func(frame, ch int) float32

// Source is a finite generated stream satisfying audio.Source.
type Source struct {
	rate     int
	channels int
	frames   int
	pos      int
	wave     Wave

	failAt  int
	failErr error
	closed  atomic.Bool
}

// New creates a source of the given number of frames.
func New(rate, channels, frames int, wave Wave) *Source {
	return &Source{rate: rate, channels: channels, frames: frames, wave: wave, failAt: -1}
}

func NewSilentSource(rate, channels, frames int) *Source {
	return New(rate, channels, frames, func(int, int) float32 { return 0 })
}

func NewSineSource(rate, channels, frames int, freq float64) *Source {
	return New(rate, channels, frames, func(frame, _ int) float32 {
		return float32(math.Sin(2 * math.Pi * freq * float64(frame) / float64(rate)))
	})
}

func NewConstantSource(rate, channels, frames int, value float32) *Source {
	return New(rate, channels, frames, func(int, int) float32 { return value })
}

// NewRampSource writes the frame index into every channel, which makes order
// and loss checks exact.
func NewRampSource(rate, channels, frames int) *Source {
	return New(rate, channels, frames, func(frame, _ int) float32 { return float32(frame) })
}

// FailAfter makes ReadSamples return err once frame is reached.
func (s *Source) FailAfter(frame int, err error) *Source {
	s.failAt, s.failErr = frame, err
	return s
}

func (s *Source) SampleRate() int { return s.rate }
func (s *Source) Channels() int   { return s.channels }

func (s *Source) Close() error {
	s.closed.Store(true)
	return nil
}

// Closed reports whether Close was called.
func (s *Source) Closed() bool { return s.closed.Load() }

// Reset rewinds the source.
func (s *Source) Reset() { s.pos = 0 }

func (s *Source) ReadSamples(dst []float32) (int, error) {
	end := s.frames
	if s.failAt >= 0 {
		end = min(end, s.failAt)
	}
	if s.pos >= end {
		if s.failAt >= 0 && s.pos >= s.failAt {
			return 0, s.failErr
		}
		return 0, io.EOF
	}

	n := min(len(dst)/s.channels, end-s.pos)
	for f := range n {
		for ch := range s.channels {
			dst[f*s.channels+ch] = s.wave(s.pos+f, ch)
		}
	}
	s.pos += n

	if s.pos >= s.frames {
		return n * s.channels, io.EOF
	}

	return n * s.channels, nil
}
