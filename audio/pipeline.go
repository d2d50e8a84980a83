// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
)

// Conform adapts src to the given rate, downmixing to mono first when mono is
// set. The stages are skipped when src already matches.
func Conform(src Source, rate int, mono bool) Source {
	if mono && src.Channels() > 1 {
		src = NewMonoMixer(src)
	}
	if rate > 0 && src.SampleRate() != rate {
		src = NewResampler(src, rate)
	}

	return src
}

// ReadAll drains src using a read buffer of bufferSize samples.
func ReadAll(src Source, bufferSize int) ([]float32, error) {
	bufferSize -= bufferSize % src.Channels()
	if bufferSize <= 0 {
		return nil, ErrInvalidDstSize
	}

	var out []float32
	buf := make([]float32, bufferSize)

	for {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)

		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("read samples: %w", err)
		}
	}
}
