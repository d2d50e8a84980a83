// SPDX-License-Identifier: EPL-2.0

// Package audio provides the sample-stream plumbing used to feed recorded
// material into the server.
//
// The building blocks are:
//   - Source, the pull interface every decoder and processor implements
//   - Registry, which maps file extensions to decoders and opens files
//   - Resampler for sample rate conversion (cubic interpolation)
//   - MonoMixer for channel averaging
//   - Ring and Prefetcher, which move decoding off the audio thread
//
// # Source Interface
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    Close() error
//	}
//
// Samples are interleaved float32 in [-1, 1]. ReadSamples returns the number
// of float32 values written and io.EOF once the stream is finished.
//
// # Prefetching
//
// The audio thread must never wait on a disk or a decoder. A Prefetcher owns
// a goroutine that decodes ahead into a bounded Ring:
//
//	src, _ := registry.Open("loop.wav")
//	p := audio.NewPrefetcher(ctx, audio.Conform(src, 44100, true), 1<<16)
//	defer p.Close()
//
//	n, _ := p.ReadSamples(block) // never blocks; n == 0 is an underrun
//
// Offline renderers that run faster than real time use ReadFull instead,
// which waits for the producer.
package audio
