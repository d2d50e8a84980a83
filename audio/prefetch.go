// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

const defaultPrefetchChunk = 2048

// Prefetcher decodes src on its own goroutine into a Ring so that reads never
// wait on I/O or decoding. ReadSamples returns what is buffered; an empty ring
// before the end of the stream yields (0, nil).
type Prefetcher struct {
	src      Source
	reopen   func() (Source, error)
	ring     *Ring
	chunk    int
	rate     int
	channels int

	space chan struct{}
	data  chan struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once

	done atomic.Bool
	err  atomic.Pointer[error]
}

// PrefetchOption configures a Prefetcher.
type PrefetchOption func(*Prefetcher)

// WithChunk sets how many samples the goroutine decodes per read. It is
// rounded down to whole frames, and to at least one frame.
func WithChunk(samples int) PrefetchOption {
	return func(p *Prefetcher) {
		if samples > 0 {
			p.chunk = samples
		}
	}
}

// WithReopen restarts the stream from a fresh Source at end of stream, for
// looping playback.
func WithReopen(fn func() (Source, error)) PrefetchOption {
	return func(p *Prefetcher) { p.reopen = fn }
}

// NewPrefetcher starts buffering src into a ring of capacity samples. The
// goroutine stops at end of stream, on error, when ctx ends or on Close.
func NewPrefetcher(ctx context.Context, src Source, capacity int, opts ...PrefetchOption) *Prefetcher {
	ctx, cancel := context.WithCancel(ctx)

	p := &Prefetcher{
		src:      src,
		chunk:    defaultPrefetchChunk,
		rate:     src.SampleRate(),
		channels: src.Channels(),
		space:    make(chan struct{}, 1),
		data:     make(chan struct{}, 1),
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.chunk = max(p.chunk-p.chunk%p.channels, p.channels)
	capacity = max(capacity, p.chunk)
	p.ring = NewRing(capacity - capacity%p.channels)

	p.wg.Add(1)
	go p.run(ctx)

	return p
}

func (p *Prefetcher) SampleRate() int { return p.rate }
func (p *Prefetcher) Channels() int   { return p.channels }

// Buffered returns the number of samples ready to read.
func (p *Prefetcher) Buffered() int { return p.ring.Len() }

func (p *Prefetcher) run(ctx context.Context) {
	defer p.wg.Done()
	defer signal(p.data)
	defer p.done.Store(true)

	buf := make([]float32, p.chunk)

	for {
		for p.ring.Free() < len(buf) {
			select {
			case <-ctx.Done():
				return
			case <-p.space:
			}
		}
		if ctx.Err() != nil {
			return
		}

		n, err := p.src.ReadSamples(buf)
		p.ring.Write(buf[:n])
		if n > 0 {
			signal(p.data)
		}

		switch {
		case errors.Is(err, io.EOF):
			if p.reopen == nil {
				return
			}
			if err := p.restart(); err != nil {
				p.fail(err)
				return
			}
		case err != nil:
			p.fail(err)
			return
		}
	}
}

func (p *Prefetcher) restart() error {
	next, err := p.reopen()
	if err != nil {
		return fmt.Errorf("reopen: %w", err)
	}
	if next.SampleRate() != p.rate || next.Channels() != p.channels {
		_ = next.Close()
		return errors.New("reopen: stream layout changed")
	}

	_ = p.src.Close()
	p.src = next

	return nil
}

func (p *Prefetcher) fail(err error) {
	err = fmt.Errorf("prefetch: %w", err)
	p.err.Store(&err)
}

// ReadSamples moves buffered samples into dst without blocking. It returns
// io.EOF once the stream ended and the ring is drained.
func (p *Prefetcher) ReadSamples(dst []float32) (int, error) {
	n := p.ring.Read(dst)
	signal(p.space)

	if n > 0 || !p.done.Load() || p.ring.Len() > 0 {
		return n, nil
	}
	if errp := p.err.Load(); errp != nil {
		return 0, *errp
	}

	return 0, io.EOF
}

// ReadFull blocks until dst is full, the stream ends or ctx is done. It is
// meant for offline rendering where the reader outruns real time.
func (p *Prefetcher) ReadFull(ctx context.Context, dst []float32) (int, error) {
	total := 0

	for total < len(dst) {
		n, err := p.ReadSamples(dst[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return total, ctx.Err()
		case <-p.data:
		}
	}

	return total, nil
}

// Close stops the goroutine, waits for it and closes the source.
func (p *Prefetcher) Close() error {
	var err error
	p.once.Do(func() {
		p.cancel()
		p.wg.Wait()
		err = p.src.Close()
	})

	return err
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
