// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/ik5/audsrv/config"
	"github.com/ik5/audsrv/formats"
	"github.com/ik5/audsrv/internal/logging"
	"github.com/ik5/audsrv/server"
	"github.com/ik5/audsrv/units"
)

type graphFlags struct {
	configPath string
	freq       float64
	amp        float64
	noise      float64
	cutoff     float64
	file       string
	loop       bool
}

func (g *graphFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&g.configPath, "config", "", "YAML configuration file")
	fs.Float64Var(&g.freq, "freq", 440, "sine frequency in Hz, 0 disables the sine")
	fs.Float64Var(&g.amp, "amp", 0.2, "sine amplitude")
	fs.Float64Var(&g.noise, "noise", 0, "amplitude of low-passed noise")
	fs.Float64Var(&g.cutoff, "cutoff", 1000, "noise low-pass cutoff in Hz")
	fs.StringVar(&g.file, "file", "", "audio file to mix in")
	fs.BoolVar(&g.loop, "loop", false, "loop -file")
}

// setup loads the configuration and boots a server in a fresh table.
func setup(g *graphFlags, opts ...server.Option) (*config.Config, *zap.Logger, *server.Server, error) {
	loader := config.NewLoader()
	if g.configPath != "" {
		loader = loader.WithConfigPath(g.configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	logger := logging.MustNew(cfg.Log)

	opts = append([]server.Option{server.WithLogger(logger)}, opts...)
	srv, err := server.NewTable().NewServer(cfg.Engine.ServerConfig(), opts...)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := srv.Boot(true); err != nil {
		return nil, nil, nil, err
	}

	return cfg, logger, srv, nil
}

// build creates the demo graph. Every unit is mixed into all output
// channels. The returned closer releases file players.
func (g *graphFlags) build(ctx context.Context, srv *server.Server, offline bool) (io.Closer, error) {
	var (
		voices  []units.Output
		closers closerList
	)

	if g.freq > 0 {
		sine, err := units.NewSine(srv, units.Const(float32(g.freq)))
		if err != nil {
			return nil, err
		}
		sine.SetMul(units.Const(float32(g.amp)))
		voices = append(voices, sine)
	}

	if g.noise > 0 {
		noise, err := units.NewNoise(srv)
		if err != nil {
			return nil, err
		}
		noise.Play(0, 0)
		lp, err := units.NewBiquad(srv, noise, units.Lowpass, g.cutoff, 0.707)
		if err != nil {
			return nil, err
		}
		lp.SetMul(units.Const(float32(g.noise)))
		voices = append(voices, lp)
	}

	if g.file != "" {
		var opts []units.PlayerOption
		if offline {
			opts = append(opts, units.WithBlockingReads())
		}
		if g.loop {
			opts = append(opts, units.WithLoop())
		}
		player, err := units.NewFilePlayer(ctx, srv, formats.NewRegistry(), g.file, opts...)
		if err != nil {
			return nil, err
		}
		closers = append(closers, player)
		voices = append(voices, player)
	}

	if len(voices) == 0 {
		return nil, errors.New("empty graph: set -freq, -noise or -file")
	}

	for _, v := range voices {
		if err := route(srv, v); err != nil {
			_ = closers.Close()
			return nil, err
		}
	}

	return closers, nil
}

type player interface {
	units.Output
	Out(chnl int)
}

// route plays v on channel 0 and copies it to the other channels.
func route(srv *server.Server, v units.Output) error {
	p, ok := v.(player)
	if !ok {
		return fmt.Errorf("%T can't be routed", v)
	}
	p.Out(0)

	for ch := 1; ch < srv.Nchnls(); ch++ {
		cp, err := units.NewSig(srv, units.From(v))
		if err != nil {
			return err
		}
		cp.Out(ch)
	}

	return nil
}

type closerList []io.Closer

func (c closerList) Close() error {
	var errs []error
	for _, cl := range c {
		errs = append(errs, cl.Close())
	}
	return errors.Join(errs...)
}
