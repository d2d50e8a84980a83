// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"errors"
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/ik5/audsrv/audio"
)

// oggReader is the part of oggvorbis.Reader used here. Read returns the
// number of interleaved values decoded.
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
}

type source struct {
	dec      oggReader
	rate     int
	channels int
}

func (s *source) SampleRate() int { return s.rate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }

func (s *source) ReadSamples(dst []float32) (int, error) {
	want := len(dst) - len(dst)%s.channels
	if want == 0 {
		return 0, nil
	}

	total := 0
	for total < want {
		n, err := s.dec.Read(dst[total:want])
		total += n

		if errors.Is(err, io.EOF) {
			return total, io.EOF
		}
		if err != nil {
			return total, fmt.Errorf("vorbis: %w", err)
		}
		if n == 0 {
			break
		}
	}

	return total, nil
}

// Decoder reads Ogg Vorbis streams.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("ogg vorbis header: %w", err)
	}
	if dec.Channels() <= 0 {
		return nil, errors.New("ogg vorbis: no channels")
	}

	return &source{dec: dec, rate: dec.SampleRate(), channels: dec.Channels()}, nil
}
