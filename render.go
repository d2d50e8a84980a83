// SPDX-License-Identifier: EPL-2.0

package audsrv

import (
	"context"

	"github.com/ik5/audsrv/audio"
	"github.com/ik5/audsrv/backend"
	"github.com/ik5/audsrv/server"
	"github.com/ik5/audsrv/utils"
)

// Render computes blocks blocks of srv and returns the interleaved output.
func Render(ctx context.Context, srv *server.Server, blocks int) ([]float32, error) {
	out := make([]float32, 0, max(blocks, 0)*srv.NominalBufferSize()*srv.Nchnls())

	collect := backend.BlockWriterFunc(func(block []float32) error {
		out = append(out, block...)
		return nil
	})
	if err := backend.NewOffline(srv, collect).Run(ctx, blocks); err != nil {
		return out, err
	}

	return out, nil
}

// RenderPCM16 is Render with the output clamped and converted to int16.
func RenderPCM16(ctx context.Context, srv *server.Server, blocks int) ([]int16, error) {
	samples, err := Render(ctx, srv, blocks)

	pcm := make([]int16, len(samples))
	utils.Float32sToInt16(pcm, samples)

	return pcm, err
}

// ResampleToMono16 drains src downmixed to mono at targetRate as 16-bit PCM.
func ResampleToMono16(src audio.Source, targetRate, bufferSize int) ([]int16, error) {
	samples, err := audio.ReadAll(audio.Conform(src, targetRate, true), bufferSize)
	if err != nil {
		return nil, err
	}

	pcm := make([]int16, len(samples))
	utils.Float32sToInt16(pcm, samples)

	return pcm, nil
}
