// SPDX-License-Identifier: EPL-2.0

package units

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/ik5/audsrv/server"
)

// Base is embedded by every unit.
type Base struct {
	srv    *server.Server
	stream *server.Stream
	buf    []float32

	mu   sync.Mutex
	mul  Param
	add  Param
	post atomic.Pointer[postProc]
}

type postProc struct {
	apply func(buf []float32)
}

// init allocates the output block, registers the stream and starts it when
// the server auto-starts children. compute must fill b.buf.
func (b *Base) init(srv *server.Server, compute func() error) error {
	if srv == nil {
		return ErrNilServer
	}

	b.srv = srv
	b.buf = make([]float32, srv.BufferSize())
	b.mul, b.add = Const(1), Const(0)
	b.post.Store(&postProc{})

	b.stream = srv.NewStream(b.buf, func() error {
		if err := compute(); err != nil {
			return err
		}
		if p := b.post.Load(); p.apply != nil {
			p.apply(b.buf)
		}
		return nil
	})
	// Consumers reading this unit through a Param hear silence once its
	// duration runs out, not the last block repeated.
	b.stream.OnStop(func() { clear(b.buf) })

	if err := srv.AddStream(b.stream); err != nil {
		return err
	}

	if srv.AutoStartChildren() {
		b.Play(0, 0)
	}

	return nil
}

// Buffer returns the block computed in the last callback.
func (b *Base) Buffer() []float32 { return b.buf }

func (b *Base) Stream() *server.Stream { return b.stream }

func (b *Base) Server() *server.Server { return b.srv }

func (b *Base) IsPlaying() bool { return b.stream.IsActive() }

// Play starts computing after del seconds and stops after dur seconds. A zero
// argument takes the server's global duration or delay.
func (b *Base) Play(dur, del float64) {
	if dur == 0 {
		dur = b.srv.GlobalDur()
	}
	if del == 0 {
		del = b.srv.GlobalDel()
	}

	b.stream.Play(b.blocks(dur), b.blocks(del))
}

// Out plays the unit with the global duration and delay and mixes it into
// output channel chnl.
func (b *Base) Out(chnl int) {
	b.Play(0, 0)
	b.stream.Out(chnl)
}

// Stop deactivates the unit and removes it from the output mix.
func (b *Base) Stop() {
	b.stream.Stop()
	b.stream.SetToDac(false)
}

// Close removes the unit from the server.
func (b *Base) Close() error {
	b.stream.Stop()
	b.srv.RemoveStream(b.stream.ID())
	return nil
}

func (b *Base) Mul() Param {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mul
}

func (b *Base) Add() Param {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.add
}

// SetMul scales the unit output.
func (b *Base) SetMul(p Param) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.mul = p
	b.post.Store(&postProc{apply: resolvePost(b.mul, b.add)})
}

// SetAdd offsets the unit output after scaling.
func (b *Base) SetAdd(p Param) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.add = p
	b.post.Store(&postProc{apply: resolvePost(b.mul, b.add)})
}

// blocks converts seconds to callback blocks. Any positive time lasts at least
// one block.
func (b *Base) blocks(sec float64) int {
	if sec <= 0 || math.IsNaN(sec) || math.IsInf(sec, 0) {
		return 0
	}

	n := math.Round(sec * b.srv.NominalSamplingRate() / float64(b.srv.NominalBufferSize()))

	return max(int(n), 1)
}
