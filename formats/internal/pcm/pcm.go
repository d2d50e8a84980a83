// SPDX-License-Identifier: EPL-2.0

// Package pcm adapts go-audio integer decoders to audio.Source.
package pcm

import (
	"bytes"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
)

// Reader is the part of the go-audio wav and aiff decoders used here.
type Reader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// Source converts integer PCM into float32 samples in [-1, 1].
type Source struct {
	r        Reader
	rate     int
	channels int
	scale    float32
	bias     int
	buf      goaudio.IntBuffer
}

// NewSource wraps r. Unsigned marks 8-bit data stored without sign, as in WAV.
func NewSource(r Reader, rate, channels, bitDepth int, unsigned bool) *Source {
	s := &Source{
		r:        r,
		rate:     rate,
		channels: channels,
		scale:    float32(int64(1) << (bitDepth - 1)),
		buf: goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
			SourceBitDepth: bitDepth,
		},
	}
	if unsigned && bitDepth == 8 {
		s.bias = 128
	}

	return s
}

func (s *Source) SampleRate() int { return s.rate }
func (s *Source) Channels() int   { return s.channels }
func (s *Source) Close() error    { return nil }

func (s *Source) ReadSamples(dst []float32) (int, error) {
	want := len(dst) - len(dst)%s.channels
	if want == 0 {
		return 0, nil
	}

	if cap(s.buf.Data) < want {
		s.buf.Data = make([]int, want)
	}
	s.buf.Data = s.buf.Data[:want]

	n, err := s.r.PCMBuffer(&s.buf)
	if n == 0 {
		if err != nil {
			return 0, fmt.Errorf("pcm: %w", err)
		}
		return 0, io.EOF
	}

	for i, v := range s.buf.Data[:n] {
		dst[i] = float32(v-s.bias) / s.scale
	}

	return n, err
}

// ReadSeeker returns r as an io.ReadSeeker, buffering it in memory when it
// cannot seek. The go-audio decoders need to seek between chunks.
func ReadSeeker(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("buffering input: %w", err)
	}

	return bytes.NewReader(data), nil
}

// SupportedDepth reports whether bitDepth is an integer PCM depth handled by
// Source.
func SupportedDepth(bitDepth int) bool {
	switch bitDepth {
	case 8, 16, 24, 32:
		return true
	default:
		return false
	}
}
