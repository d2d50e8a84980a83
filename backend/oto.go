// SPDX-License-Identifier: EPL-2.0

//go:build !headless

package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"

	"github.com/ik5/audsrv/server"
)

// Oto plays the server output on the default sound card. The device pulls
// blocks, so ProcessBuffers runs on oto's audio goroutine. Only one Oto may
// exist per process.
type Oto struct {
	srv    *server.Server
	ctx    *oto.Context
	player *oto.Player
	log    *zap.Logger
}

// NewOto opens the device at the server's nominal rate and channel count,
// buffering latency blocks.
func NewOto(srv *server.Server, latency int) (*Oto, error) {
	rate := int(srv.NominalSamplingRate())
	period := time.Duration(float64(srv.NominalBufferSize()) / float64(rate) * float64(time.Second))

	octx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: srv.Nchnls(),
		Format:       oto.FormatFloat32LE,
		BufferSize:   period * time.Duration(max(latency, 1)),
	})
	if err != nil {
		return nil, fmt.Errorf("oto context: %w", err)
	}
	<-ready

	o := &Oto{srv: srv, ctx: octx, log: srv.Logger().Named("oto")}
	reader := newBlockReader(srv, func(err error) {
		o.log.Warn("block failed, playing silence", zap.Error(err))
	})
	o.player = octx.NewPlayer(reader)
	o.player.SetBufferSize(4 * srv.NominalBufferSize() * srv.Nchnls() * max(latency, 1))

	return o, nil
}

// Run plays until ctx ends.
func (o *Oto) Run(ctx context.Context) error {
	stop, err := ensureStarted(o.srv)
	if err != nil {
		return err
	}
	defer stop()

	o.player.Play()
	o.log.Debug("playback started")

	<-ctx.Done()

	if err := o.player.Close(); err != nil {
		return fmt.Errorf("close player: %w", err)
	}
	o.log.Debug("playback stopped")

	return nil
}
