// SPDX-License-Identifier: EPL-2.0

package server

import (
	"testing"

	"go.uber.org/zap"
)

func newTestServer(cfg Config, opts ...Option) *Server {
	return New(cfg, append([]Option{WithLogger(zap.NewNop())}, opts...)...)
}

func newBootedServer(t testing.TB, cfg Config, opts ...Option) *Server {
	t.Helper()

	s := newTestServer(cfg, opts...)
	if err := s.Boot(true); err != nil {
		t.Fatalf("Boot() error = %v", err)
	}

	return s
}

// constStream returns a stream whose unit writes v into every frame.
func constStream(s *Server, v float32) *Stream {
	buf := make([]float32, s.BufferSize())
	return s.NewStream(buf, func() error {
		for i := range buf {
			buf[i] = v
		}
		return nil
	})
}

// rampStream returns a stream whose unit writes scale*i into frame i.
func rampStream(s *Server, scale float32) *Stream {
	buf := make([]float32, s.BufferSize())
	return s.NewStream(buf, func() error {
		for i := range buf {
			buf[i] = scale * float32(i)
		}
		return nil
	})
}

func mustAdd(t testing.TB, s *Server, streams ...*Stream) {
	t.Helper()

	for _, st := range streams {
		if err := s.AddStream(st); err != nil {
			t.Fatalf("AddStream(%d) error = %v", st.ID(), err)
		}
	}
}

func ids(streams []*Stream) []int {
	out := make([]int, len(streams))
	for i, st := range streams {
		out[i] = st.ID()
	}
	return out
}

func channel(out []float32, ch, channels int) []float32 {
	frames := len(out) / channels
	res := make([]float32, frames)
	for i := range frames {
		res[i] = out[i*channels+ch]
	}
	return res
}
