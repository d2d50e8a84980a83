// SPDX-License-Identifier: EPL-2.0

package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ik5/audsrv/server"
)

var (
	ErrNoDevice = errors.New("audio device support not compiled in")
	ErrBlocks   = errors.New("block count must not be negative")
)

// BlockWriter receives every interleaved output block. The slice is reused
// for the next block.
type BlockWriter interface {
	WriteBlock(samples []float32) error
}

// BlockWriterFunc adapts a function to BlockWriter.
type BlockWriterFunc func(samples []float32) error

func (f BlockWriterFunc) WriteBlock(samples []float32) error { return f(samples) }

// ensureStarted starts srv if needed and returns the matching stop.
func ensureStarted(srv *server.Server) (func(), error) {
	if srv.IsStarted() {
		return func() {}, nil
	}
	if err := srv.Start(); err != nil {
		return nil, err
	}
	return func() { _ = srv.Stop() }, nil
}

// Offline computes blocks back to back.
type Offline struct {
	srv *server.Server
	out BlockWriter
	log *zap.Logger
}

// NewOffline renders srv into out, which may be nil.
func NewOffline(srv *server.Server, out BlockWriter) *Offline {
	return &Offline{srv: srv, out: out, log: srv.Logger().Named("offline")}
}

// Run computes the given number of blocks, stopping early when ctx ends.
func (o *Offline) Run(ctx context.Context, blocks int) error {
	if blocks < 0 {
		return fmt.Errorf("%d: %w", blocks, ErrBlocks)
	}

	stop, err := ensureStarted(o.srv)
	if err != nil {
		return err
	}
	defer stop()

	for i := range blocks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.srv.ProcessBuffers(); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
		if o.out == nil {
			continue
		}
		if err := o.out.WriteBlock(o.srv.OutputBuffer()); err != nil {
			return fmt.Errorf("write block %d: %w", i, err)
		}
	}

	o.log.Debug("offline render done", zap.Int("blocks", blocks))

	return nil
}

// Clock computes one block per block period until ctx ends.
type Clock struct {
	srv *server.Server
	out BlockWriter
	log *zap.Logger
}

// NewClock paces srv on the wall clock; out may be nil.
func NewClock(srv *server.Server, out BlockWriter) *Clock {
	return &Clock{srv: srv, out: out, log: srv.Logger().Named("clock")}
}

// Period returns the wall-clock length of one block.
func (c *Clock) Period() time.Duration {
	rate := c.srv.NominalSamplingRate()
	return time.Duration(float64(c.srv.NominalBufferSize()) / rate * float64(time.Second))
}

// Run returns nil when ctx is canceled and the first processing or writing
// error otherwise.
func (c *Clock) Run(ctx context.Context) error {
	stop, err := ensureStarted(c.srv)
	if err != nil {
		return err
	}
	defer stop()

	ticker := time.NewTicker(c.Period())
	defer ticker.Stop()

	blocks := 0
	for {
		select {
		case <-ctx.Done():
			c.log.Debug("clock stopped", zap.Int("blocks", blocks))
			return nil
		case <-ticker.C:
		}

		if err := c.srv.ProcessBuffers(); err != nil {
			return fmt.Errorf("block %d: %w", blocks, err)
		}
		if c.out != nil {
			if err := c.out.WriteBlock(c.srv.OutputBuffer()); err != nil {
				return fmt.Errorf("write block %d: %w", blocks, err)
			}
		}
		blocks++
	}
}
