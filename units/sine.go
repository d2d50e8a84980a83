// SPDX-License-Identifier: EPL-2.0

package units

import (
	"math"
	"sync/atomic"

	"github.com/ik5/audsrv/server"
)

// Sine is a phase-accumulating sine oscillator. The sampling rate is read at
// construction, so a Sine created inside a resampling block runs at that
// block's rate.
type Sine struct {
	Base
	freq  *paramSlot
	rate  float64
	phase float64
	reset atomic.Pointer[float64]
}

func NewSine(srv *server.Server, freq Param) (*Sine, error) {
	s := &Sine{freq: newParamSlot(freq)}
	if srv != nil {
		s.rate = srv.SamplingRate()
	}
	if err := s.init(srv, s.compute); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sine) SetFreq(p Param) { s.freq.store(p) }

// SetPhase moves the oscillator to phase (in cycles, 0..1) before the next
// block.
func (s *Sine) SetPhase(phase float64) {
	phase -= math.Floor(phase)
	s.reset.Store(&phase)
}

func (s *Sine) compute() error {
	if p := s.reset.Swap(nil); p != nil {
		s.phase = *p
	}

	f := s.freq.load()
	fb := f.block()
	inc := float64(f.value) / s.rate

	for i := range s.buf {
		if fb != nil {
			inc = float64(at(fb, i, 0)) / s.rate
		}
		s.buf[i] = float32(math.Sin(2 * math.Pi * s.phase))
		s.phase += inc
		s.phase -= math.Floor(s.phase)
	}

	return nil
}
