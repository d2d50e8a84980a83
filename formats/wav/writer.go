// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ik5/audsrv/utils"
)

// Writer encodes interleaved float32 blocks as 16-bit PCM WAV. Close must be
// called to finalize the header; it does not close the underlying writer.
type Writer struct {
	enc      *wav.Encoder
	channels int
	buf      goaudio.IntBuffer
	frames   int
	closed   bool
}

func NewWriter(w io.WriteSeeker, sampleRate, channels int) *Writer {
	return &Writer{
		enc:      wav.NewEncoder(w, sampleRate, 16, channels, formatPCM),
		channels: channels,
		buf: goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: 16,
		},
	}
}

// WriteBlock appends one interleaved block. Samples are clipped to [-1, 1].
func (w *Writer) WriteBlock(samples []float32) error {
	if w.closed {
		return ErrWriterClosed
	}

	n := len(samples) - len(samples)%w.channels
	if cap(w.buf.Data) < n {
		w.buf.Data = make([]int, n)
	}
	w.buf.Data = w.buf.Data[:n]

	for i, s := range samples[:n] {
		w.buf.Data[i] = int(utils.Float32ToInt16(s))
	}

	if err := w.enc.Write(&w.buf); err != nil {
		return fmt.Errorf("writing wav block: %w", err)
	}
	w.frames += n / w.channels

	return nil
}

// Frames returns the number of frames written so far.
func (w *Writer) Frames() int { return w.frames }

func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if w.frames == 0 {
		// The encoder only emits the header on its first write.
		if err := w.enc.Write(&goaudio.IntBuffer{Format: w.buf.Format}); err != nil {
			return fmt.Errorf("writing wav header: %w", err)
		}
	}
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("finalizing wav: %w", err)
	}

	return nil
}

// WriteWAV16 writes already converted 16-bit PCM samples as a complete file.
func WriteWAV16(w io.WriteSeeker, sampleRate, channels int, samples []int16) error {
	enc := wav.NewEncoder(w, sampleRate, 16, channels, formatPCM)

	data := make([]int, len(samples)-len(samples)%channels)
	for i := range data {
		data[i] = int(samples[i])
	}

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("writing wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing wav: %w", err)
	}

	return nil
}
