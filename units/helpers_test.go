// SPDX-License-Identifier: EPL-2.0

package units

import (
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/ik5/audsrv/server"
)

func testConfig(rate float64, frames int) server.Config {
	cfg := server.DefaultConfig()
	cfg.SamplingRate = rate
	cfg.BufferSize = frames
	return cfg
}

func bootServer(t testing.TB, cfg server.Config) *server.Server {
	t.Helper()

	srv := server.New(cfg, server.WithLogger(zap.NewNop()))
	if err := srv.Boot(true); err != nil {
		t.Fatalf("Boot() error = %v", err)
	}

	return srv
}

func process(t testing.TB, srv *server.Server, blocks int) {
	t.Helper()

	for range blocks {
		if err := srv.ProcessBuffers(); err != nil {
			t.Fatalf("ProcessBuffers() error = %v", err)
		}
	}
}

func channel(out []float32, ch, channels int) []float32 {
	frames := len(out) / channels
	res := make([]float32, frames)
	for i := range frames {
		res[i] = out[i*channels+ch]
	}
	return res
}

func near(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}
