// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	"github.com/go-audio/wav"

	"github.com/ik5/audsrv/audio"
	"github.com/ik5/audsrv/formats/internal/pcm"
)

const formatPCM = 1

// Decoder reads integer PCM WAV files of 8, 16, 24 or 32 bits.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, err := pcm.ReadSeeker(r)
	if err != nil {
		return nil, err
	}

	// IsValidFile rejects files with no samples; those are valid here.
	dec := wav.NewDecoder(rs)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotWavFile, err)
	}

	if dec.NumChans == 0 || dec.SampleRate == 0 {
		return nil, ErrNotWavFile
	}
	if dec.WavAudioFormat != formatPCM {
		return nil, fmt.Errorf("format tag %d: %w", dec.WavAudioFormat, ErrUnsupportedFormat)
	}
	depth := int(dec.BitDepth)
	if !pcm.SupportedDepth(depth) {
		return nil, fmt.Errorf("%d bits: %w", depth, ErrUnsupportedDepth)
	}

	return pcm.NewSource(dec, int(dec.SampleRate), int(dec.NumChans), depth, true), nil
}
