// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/ik5/audsrv/utils"
)

const resamplerChunk = 1024

// Resampler streams from src to a target sample rate using cubic
// interpolation. Works on interleaved samples and preserves the channel count.
// Downsampling runs the input through a one-pole low-pass first.
//
// Output frame k sits at source position k*srcRate/dstRate, computed in
// integers so long streams do not drift. A source of N frames yields
// ceil(N*dstRate/srcRate) frames.
type Resampler struct {
	src      Source
	srcRate  int64
	dstRate  int64
	channels int

	// win holds source frames base-1, base, base+1, base+2.
	win    [4][]float32
	base   int64
	read   int64
	k      int64
	primed bool

	buf    []float32
	bufPos int
	bufLen int
	srcEOF bool

	lowpass bool
	alpha   float32
	state   []float32
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	srcRate := src.SampleRate()

	r := &Resampler{
		src:      src,
		srcRate:  int64(srcRate),
		dstRate:  int64(dstRate),
		channels: channels,
		buf:      make([]float32, resamplerChunk*channels),
		state:    make([]float32, channels),
	}
	for i := range r.win {
		r.win[i] = make([]float32, channels)
	}

	if dstRate < srcRate {
		r.lowpass = true
		cutoff := 0.45 * float64(dstRate)
		r.alpha = float32(1 - math.Exp(-2*math.Pi*cutoff/float64(srcRate)))
	}

	return r
}

func (r *Resampler) SampleRate() int { return int(r.dstRate) }
func (r *Resampler) Channels() int   { return r.channels }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("resampler source: %w", err)
	}
	return nil
}

// nextFrame copies the next source frame into dst.
func (r *Resampler) nextFrame(dst []float32) (bool, error) {
	for r.bufPos >= r.bufLen {
		if r.srcEOF {
			return false, nil
		}

		n, err := r.src.ReadSamples(r.buf)
		r.bufPos, r.bufLen = 0, n-n%r.channels
		if errors.Is(err, io.EOF) {
			r.srcEOF = true
		} else if err != nil {
			return false, err
		}
	}

	frame := r.buf[r.bufPos : r.bufPos+r.channels]
	r.bufPos += r.channels

	if r.lowpass {
		if r.read == 0 {
			copy(r.state, frame)
		}
		for c, x := range frame {
			r.state[c] += r.alpha * (x - r.state[c])
		}
		frame = r.state
	}

	copy(dst, frame)
	r.read++

	return true, nil
}

// shift moves the window one source frame forward, holding the last frame once
// the source is exhausted.
func (r *Resampler) shift() error {
	w0 := r.win[0]
	r.win[0], r.win[1], r.win[2] = r.win[1], r.win[2], r.win[3]
	r.win[3] = w0

	ok, err := r.nextFrame(r.win[3])
	if err != nil {
		return err
	}
	if !ok {
		copy(r.win[3], r.win[2])
	}
	r.base++

	return nil
}

func (r *Resampler) prime() (bool, error) {
	ok, err := r.nextFrame(r.win[1])
	if err != nil || !ok {
		return false, err
	}
	copy(r.win[0], r.win[1])

	for i := 2; i < 4; i++ {
		ok, err := r.nextFrame(r.win[i])
		if err != nil {
			return false, err
		}
		if !ok {
			copy(r.win[i], r.win[i-1])
		}
	}

	r.primed = true

	return true, nil
}

// ReadSamples produces dst samples at the target rate.
// dst length should be a multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if r.dstRate <= 0 || r.srcRate <= 0 {
		return 0, ErrInvalidRate
	}

	if !r.primed {
		ok, err := r.prime()
		if err != nil {
			return 0, fmt.Errorf("resampler: %w", err)
		}
		if !ok {
			return 0, io.EOF
		}
	}

	frames := len(dst) / r.channels
	written := 0

	for written < frames {
		num := r.k * r.srcRate
		idx := num / r.dstRate

		for r.base < idx {
			if err := r.shift(); err != nil {
				return written * r.channels, fmt.Errorf("resampler: %w", err)
			}
		}
		if idx >= r.read {
			return written * r.channels, io.EOF
		}

		t := float32(num%r.dstRate) / float32(r.dstRate)
		out := dst[written*r.channels : (written+1)*r.channels]
		for c := range out {
			out[c] = utils.CubicInterpolate(r.win[0][c], r.win[1][c], r.win[2][c], r.win[3][c], t)
		}

		written++
		r.k++
	}

	return written * r.channels, nil
}
