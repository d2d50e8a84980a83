// SPDX-License-Identifier: EPL-2.0

package units

import (
	"fmt"
	"math"
	"sync"

	"github.com/ik5/audsrv/server"
)

// FilterType selects the response of a Biquad.
type FilterType int

const (
	Lowpass FilterType = iota
	Highpass
	Bandpass
)

func (t FilterType) String() string {
	switch t {
	case Lowpass:
		return "lowpass"
	case Highpass:
		return "highpass"
	case Bandpass:
		return "bandpass"
	default:
		return "unknown"
	}
}

// Biquad is a second-order IIR filter over another unit, with coefficients
// from the RBJ audio EQ cookbook.
type Biquad struct {
	Base
	in   Output
	rate float64

	mu    sync.Mutex
	typ   FilterType
	freq  float64
	q     float64
	dirty bool

	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

func NewBiquad(srv *server.Server, in Output, typ FilterType, freq, q float64) (*Biquad, error) {
	if in == nil {
		return nil, ErrNilInput
	}
	if typ < Lowpass || typ > Bandpass {
		return nil, fmt.Errorf("%d: %w", typ, ErrFilterType)
	}
	if !finite(freq) || !finite(q) {
		return nil, fmt.Errorf("freq %v, q %v: %w", freq, q, ErrNotFinite)
	}

	f := &Biquad{in: in, typ: typ, freq: freq, q: q, dirty: true}
	if srv != nil {
		f.rate = srv.SamplingRate()
	}
	if err := f.init(srv, f.compute); err != nil {
		return nil, err
	}
	return f, nil
}

// SetFreq sets the cutoff or center frequency in Hz. It is clamped to
// (1, nyquist) when the coefficients are computed. NaN and infinite values are
// rejected and leave the filter unchanged.
func (f *Biquad) SetFreq(freq float64) error {
	if !finite(freq) {
		return fmt.Errorf("freq %v: %w", freq, ErrNotFinite)
	}

	f.mu.Lock()
	f.freq, f.dirty = freq, true
	f.mu.Unlock()

	return nil
}

func (f *Biquad) SetQ(q float64) error {
	if !finite(q) {
		return fmt.Errorf("q %v: %w", q, ErrNotFinite)
	}

	f.mu.Lock()
	f.q, f.dirty = q, true
	f.mu.Unlock()

	return nil
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

func (f *Biquad) SetType(typ FilterType) error {
	if typ < Lowpass || typ > Bandpass {
		return fmt.Errorf("%d: %w", typ, ErrFilterType)
	}

	f.mu.Lock()
	f.typ, f.dirty = typ, true
	f.mu.Unlock()

	return nil
}

func (f *Biquad) update() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.dirty {
		return
	}
	f.dirty = false

	freq := min(max(f.freq, 1), f.rate*0.49)
	q := max(f.q, 0.1)

	w0 := 2 * math.Pi * freq / f.rate
	cosw, sinw := math.Cos(w0), math.Sin(w0)
	alpha := sinw / (2 * q)
	a0 := 1 + alpha

	var b0, b1, b2 float64
	switch f.typ {
	case Highpass:
		b0 = (1 + cosw) / 2
		b1 = -(1 + cosw)
		b2 = b0
	case Bandpass:
		b0 = alpha
		b1 = 0
		b2 = -alpha
	default:
		b0 = (1 - cosw) / 2
		b1 = 1 - cosw
		b2 = b0
	}

	f.b0, f.b1, f.b2 = b0/a0, b1/a0, b2/a0
	f.a1, f.a2 = -2*cosw/a0, (1-alpha)/a0
}

func (f *Biquad) compute() error {
	f.update()

	in := f.in.Buffer()
	for i := range f.buf {
		x := float64(at(in, i, 0))
		y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
		f.x2, f.x1 = f.x1, x
		f.y2, f.y1 = f.y1, y
		f.buf[i] = float32(y)
	}

	return nil
}
