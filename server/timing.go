// SPDX-License-Identifier: EPL-2.0

package server

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

// SamplingRate returns the effective sampling rate: the nominal rate divided by
// the factor of an open downsampling block, or multiplied by an upsampling one.
func (s *Server) SamplingRate() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.resampling < 0 {
		return s.samplingRate / float64(-s.resampling)
	}
	return s.samplingRate * float64(s.resampling)
}

// BufferSize returns the effective number of frames per block under the current
// resampling factor.
func (s *Server) BufferSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.resampling < 0 {
		return s.bufferSize / -s.resampling
	}
	return s.bufferSize * s.resampling
}

func (s *Server) NominalSamplingRate() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.samplingRate
}

func (s *Server) NominalBufferSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bufferSize
}

// ResamplingFactor returns the factor of the innermost open resampling block,
// 1 when none is open.
func (s *Server) ResamplingFactor() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resampling
}

// BeginResamplingBlock makes SamplingRate and BufferSize report values scaled by
// factor until the matching EndResamplingBlock. Negative factors downsample.
// Blocks nest.
func (s *Server) BeginResamplingBlock(factor int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if factor == 0 {
		s.log.error("resampling factor can't be 0")
		return fmt.Errorf("resampling factor: %w", ErrInvalidValue)
	}

	s.resamplingStack = append(s.resamplingStack, s.resampling)
	s.resampling = factor

	return nil
}

// EndResamplingBlock restores the factor that was current before the matching
// BeginResamplingBlock.
func (s *Server) EndResamplingBlock() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.resamplingStack)
	if n == 0 {
		s.log.warning("endResamplingBlock without a matching beginResamplingBlock")
		return ErrNoResamplingBlock
	}

	s.resampling = s.resamplingStack[n-1]
	s.resamplingStack = s.resamplingStack[:n-1]

	return nil
}

// ElapsedSamples returns the number of frames processed since boot, including
// the block being computed.
func (s *Server) ElapsedSamples() int64 { return s.elapsed.Load() }

// ElapsedTime converts ElapsedSamples to time at the nominal rate.
func (s *Server) ElapsedTime() time.Duration {
	rate := s.NominalSamplingRate()
	return time.Duration(float64(s.elapsed.Load()) / rate * float64(time.Second))
}

// Now returns the server clock in milliseconds, the time base of wall-clock
// MIDI timestamps.
func (s *Server) Now() int64 { return s.now().UnixMilli() }

// SetMidiTimeOrigin sets the wall-clock millisecond that corresponds to sample 0.
// Start sets it to the current time.
func (s *Server) SetMidiTimeOrigin(ms int64) {
	s.mu.Lock()
	s.midiOrigin = ms
	s.mu.Unlock()
}

// PosToWrite returns the frame of the current block an event stamped with
// timestamp belongs to, clamped to [0, bufferSize-1].
//
// In TimingSampleAccurate mode the timestamp already is that frame. In
// TimingWallClock mode it is a millisecond time on the server clock and the
// offset is measured from the start of the current block.
func (s *Server) PosToWrite(timestamp int64) int {
	s.mu.RLock()
	mode := s.timing
	rate := s.samplingRate
	frames := s.bufferSize
	origin := s.midiOrigin
	s.mu.RUnlock()

	var offset int64
	switch mode {
	case TimingSampleAccurate:
		offset = timestamp
	default:
		event := int64(math.Floor(float64(timestamp-origin) * rate / 1000))
		blockStart := s.elapsed.Load() - int64(frames)
		offset = event - blockStart
	}

	if offset < 0 {
		return 0
	}
	if offset >= int64(frames) {
		s.log.debug("midi event past the current block, clamped",
			zap.Int64("timestamp", timestamp), zap.Int64("offset", offset))
		return frames - 1
	}

	return int(offset)
}
