// SPDX-License-Identifier: EPL-2.0

// Package wav decodes and encodes RIFF/WAVE files on top of
// github.com/go-audio/wav.
//
// The Decoder accepts integer PCM at 8, 16, 24 and 32 bits with any channel
// count and sample rate, and yields interleaved float32 samples in [-1, 1].
// Files with a header but no samples decode to an empty source.
//
// Writer records a rendered block stream as 16-bit PCM:
//
//	w := wav.NewWriter(f, 48000, 2)
//	for ... {
//	    if err := w.WriteBlock(left, right); err != nil { ... }
//	}
//	err := w.Close()
//
// WriteWAV16 writes an already converted int16 slice in one call.
package wav
