// SPDX-License-Identifier: EPL-2.0

package audio_test

import (
	"context"
	"fmt"
	"io"

	"github.com/ik5/audsrv/audio"
	"github.com/ik5/audsrv/internal/audiotest"
)

// Example_resampler demonstrates how to use the Resampler to change sample rates.
func Example_resampler() {
	source := audiotest.NewSineSource(44100, 1, 44100, 440.0) // 1 second, 440Hz tone

	resampler := audio.NewResampler(source, 16000)

	fmt.Printf("Output sample rate: %d Hz\n", resampler.SampleRate())

	buf := make([]float32, 4096)
	total := 0
	for {
		n, err := resampler.ReadSamples(buf)
		total += n
		if err == io.EOF {
			break
		}
	}

	fmt.Printf("Total samples read: %d\n", total)
	// Output:
	// Output sample rate: 16000 Hz
	// Total samples read: 16000
}

// Example_conform prepares a stereo file-rate stream for a mono 48 kHz player.
func Example_conform() {
	source := audiotest.NewConstantSource(24000, 2, 24000, 0.5)

	src := audio.Conform(source, 48000, true)
	samples, err := audio.ReadAll(src, 1024)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Printf("%d ch @ %d Hz, %d samples, first %.1f\n", src.Channels(), src.SampleRate(), len(samples), samples[0])
	// Output:
	// 1 ch @ 48000 Hz, 48000 samples, first 0.5
}

// Example_prefetcher reads a decoded stream through the prefetch ring.
func Example_prefetcher() {
	source := audiotest.NewRampSource(8000, 1, 1000)

	p := audio.NewPrefetcher(context.Background(), source, 4096)
	defer p.Close()

	buf := make([]float32, 256)
	total := 0
	for {
		n, err := p.ReadFull(context.Background(), buf)
		total += n
		if err != nil {
			break
		}
	}

	fmt.Printf("Prefetched %d samples\n", total)
	// Output:
	// Prefetched 1000 samples
}
