// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/audsrv/audio"
)

// go-mp3 always produces 16-bit little-endian stereo.
const channels = 2

// mp3Reader is the part of gomp3.Decoder used here.
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

type source struct {
	dec  mp3Reader
	rate int
	buf  []byte
}

func (s *source) SampleRate() int { return s.rate }
func (s *source) Channels() int   { return channels }
func (s *source) Close() error    { return nil }

func (s *source) ReadSamples(dst []float32) (int, error) {
	want := len(dst) - len(dst)%channels
	if want == 0 {
		return 0, nil
	}

	if cap(s.buf) < want*2 {
		s.buf = make([]byte, want*2)
	}
	buf := s.buf[:want*2]

	n, err := io.ReadFull(s.dec, buf)
	samples := n / 2
	for i := range samples {
		dst[i] = float32(int16(binary.LittleEndian.Uint16(buf[2*i:]))) / 32768
	}

	switch {
	case errors.Is(err, io.ErrUnexpectedEOF):
		return samples, io.EOF
	case errors.Is(err, io.EOF):
		return 0, io.EOF
	case err != nil:
		return samples, fmt.Errorf("mp3: %w", err)
	}

	return samples, nil
}

// Decoder reads MPEG-1/2 Layer III streams.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3 header: %w", err)
	}

	return &source{dec: dec, rate: dec.SampleRate()}, nil
}
