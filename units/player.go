// SPDX-License-Identifier: EPL-2.0

package units

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/ik5/audsrv/audio"
	"github.com/ik5/audsrv/server"
)

const minPrefetch = 8192

// FilePlayer streams a decoded file, downmixed to mono and resampled to the
// server rate. Decoding happens on a prefetch goroutine; the audio thread only
// drains what is buffered and outputs silence on an underrun. Without looping
// the player stops itself after the last block of the file.
type FilePlayer struct {
	Base
	pf       *audio.Prefetcher
	blocking bool
	ctx      context.Context
	done     atomic.Bool
}

// PlayerOption configures a FilePlayer.
type PlayerOption func(*playerOptions)

type playerOptions struct {
	loop     bool
	blocking bool
	blocks   int
}

// WithLoop restarts the file from the beginning when it ends.
func WithLoop() PlayerOption {
	return func(o *playerOptions) { o.loop = true }
}

// WithBlockingReads makes every block wait for decoded samples instead of
// outputting silence. Use it only for offline rendering.
func WithBlockingReads() PlayerOption {
	return func(o *playerOptions) { o.blocking = true }
}

// WithPrefetchBlocks sets how many server blocks are decoded ahead.
func WithPrefetchBlocks(n int) PlayerOption {
	return func(o *playerOptions) {
		if n > 0 {
			o.blocks = n
		}
	}
}

// NewFilePlayer opens path through reg and starts prefetching. The prefetch
// goroutine lives until ctx ends or Close is called.
func NewFilePlayer(ctx context.Context, srv *server.Server, reg *audio.Registry, path string, opts ...PlayerOption) (*FilePlayer, error) {
	if srv == nil {
		return nil, ErrNilServer
	}

	o := playerOptions{blocks: 32}
	for _, opt := range opts {
		opt(&o)
	}

	rate := int(srv.SamplingRate())
	open := func() (audio.Source, error) {
		src, err := reg.Open(path)
		if err != nil {
			return nil, err
		}
		return audio.Conform(src, rate, true), nil
	}

	src, err := open()
	if err != nil {
		return nil, fmt.Errorf("file player %s: %w", path, err)
	}

	var popts []audio.PrefetchOption
	if o.loop {
		popts = append(popts, audio.WithReopen(open))
	}

	p := &FilePlayer{
		pf:       audio.NewPrefetcher(ctx, src, max(o.blocks*srv.BufferSize(), minPrefetch), popts...),
		blocking: o.blocking,
		ctx:      ctx,
	}
	if err := p.init(srv, p.compute); err != nil {
		_ = p.pf.Close()
		return nil, err
	}

	return p, nil
}

// Done reports whether the file ended or failed.
func (p *FilePlayer) Done() bool { return p.done.Load() }

// Buffered returns the number of decoded samples waiting.
func (p *FilePlayer) Buffered() int { return p.pf.Buffered() }

// Close removes the player from the server and stops the prefetch goroutine.
func (p *FilePlayer) Close() error {
	_ = p.Base.Close()
	return p.pf.Close()
}

func (p *FilePlayer) compute() error {
	if p.done.Load() {
		clear(p.buf)
		return nil
	}

	var (
		n   int
		err error
	)
	if p.blocking {
		n, err = p.pf.ReadFull(p.ctx, p.buf)
	} else {
		n, err = p.pf.ReadSamples(p.buf)
	}
	clear(p.buf[n:])

	if err == nil {
		return nil
	}

	p.done.Store(true)
	p.stream.Stop()
	if errors.Is(err, io.EOF) {
		return nil
	}

	return err
}
