// SPDX-License-Identifier: EPL-2.0

package units

import "sync/atomic"

// Output is anything exposing a block computed in the current callback.
type Output interface {
	Buffer() []float32
}

// Param is either a constant or the output of another unit.
type Param struct {
	value float32
	src   Output
}

func Const(v float32) Param { return Param{value: v} }

// From reads the parameter sample by sample from o.
func From(o Output) Param { return Param{src: o} }

// IsStream reports whether the parameter follows another unit.
func (p Param) IsStream() bool { return p.src != nil }

// Value returns the constant, or the first sample of the followed block.
func (p Param) Value() float32 {
	if p.src == nil {
		return p.value
	}
	if buf := p.src.Buffer(); len(buf) > 0 {
		return buf[0]
	}
	return 0
}

// block returns the followed block, nil for a constant.
func (p Param) block() []float32 {
	if p.src == nil {
		return nil
	}
	return p.src.Buffer()
}

// at returns sample i of a streamed parameter, holding the last sample past
// the end of a shorter block.
func at(block []float32, i int, fallback float32) float32 {
	switch {
	case i < len(block):
		return block[i]
	case len(block) > 0:
		return block[len(block)-1]
	default:
		return fallback
	}
}

// paramSlot lets the control thread swap a parameter while the audio thread
// reads it.
type paramSlot struct {
	p atomic.Pointer[Param]
}

func newParamSlot(p Param) *paramSlot {
	s := &paramSlot{}
	s.p.Store(&p)
	return s
}

func (s *paramSlot) load() Param   { return *s.p.Load() }
func (s *paramSlot) store(p Param) { s.p.Store(&p) }
