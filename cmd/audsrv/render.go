// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/ik5/audsrv/backend"
	"github.com/ik5/audsrv/formats/wav"
)

func runRender(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	var g graphFlags
	g.register(fs)
	out := fs.String("out", "out.wav", "output WAV file")
	duration := fs.Duration("duration", 2*time.Second, "length of the render")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *duration <= 0 {
		return errors.New("-duration must be positive")
	}

	_, logger, srv, err := setup(&g)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	defer func() { _ = srv.Close() }()

	graph, err := g.build(ctx, srv, true)
	if err != nil {
		return err
	}
	defer func() { _ = graph.Close() }()

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()

	rate := srv.NominalSamplingRate()
	blocks := int(math.Ceil(duration.Seconds() * rate / float64(srv.NominalBufferSize())))

	w := wav.NewWriter(f, int(rate), srv.Nchnls())
	if err := backend.NewOffline(srv, w).Run(ctx, blocks); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	logger.Info("rendered",
		zap.String("file", *out),
		zap.Int("blocks", blocks),
		zap.Int("frames", w.Frames()))
	fmt.Println("wrote", *out)

	return f.Close()
}
