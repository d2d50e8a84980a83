// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ik5/audsrv/backend"
	"github.com/ik5/audsrv/config"
	"github.com/ik5/audsrv/internal/metrics"
	"github.com/ik5/audsrv/server"
)

type driver interface {
	Run(ctx context.Context) error
}

func runPlay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	var g graphFlags
	g.register(fs)
	duration := fs.Duration("duration", 0, "stop after this long, 0 plays until interrupted")
	kind := fs.String("backend", "", "oto or clock, overrides the configuration")
	if err := fs.Parse(args); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	collector := metrics.NewCollector(reg, "audsrv", nil)

	cfg, logger, srv, err := setup(&g, server.WithObserver(collector))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	defer func() { _ = srv.Close() }()

	if *kind != "" {
		cfg.Backend.Kind = *kind
	}

	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	graph, err := g.build(ctx, srv, false)
	if err != nil {
		return err
	}
	defer func() { _ = graph.Close() }()

	drv, err := newDriver(cfg, srv)
	if err != nil {
		return err
	}

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error { return drv.Run(gctx) })

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		hs := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		grp.Go(func() error {
			logger.Info("serving metrics", zap.String("addr", cfg.Metrics.Addr))
			if err := hs.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		grp.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.ShutdownTimeout)
			defer cancel()
			return hs.Shutdown(sctx)
		})
	}

	err = grp.Wait()
	logger.Info("stopped",
		zap.Stringer("instance", srv.InstanceID()),
		zap.Duration("played", srv.ElapsedTime()))

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func newDriver(cfg *config.Config, srv *server.Server) (driver, error) {
	switch cfg.Backend.Kind {
	case config.BackendOto:
		return backend.NewOto(srv, cfg.Backend.Latency)
	case config.BackendClock:
		return backend.NewClock(srv, nil), nil
	default:
		return nil, fmt.Errorf("backend %q can't play in real time", cfg.Backend.Kind)
	}
}
