// SPDX-License-Identifier: EPL-2.0

package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ik5/audsrv/server"
)

func TestCollector_Events(t *testing.T) {
	t.Parallel()

	c := NewCollector(prometheus.NewRegistry(), "audsrv", nil)

	c.BlockProcessed(time.Millisecond, 5*time.Millisecond)
	c.BlockProcessed(6*time.Millisecond, 5*time.Millisecond)
	c.UnitFault(3)
	c.HookFault()
	c.HookOverrun(10 * time.Millisecond)
	c.StreamsChanged(4)
	c.StreamsChanged(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.blocks))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.deadlineMisses))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.unitFaults))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.hookFaults))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.hookOverruns))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.streams))
	assert.Equal(t, 1, testutil.CollectAndCount(c.blockDuration))
}

func TestCollector_Registration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	NewCollector(reg, "audsrv", prometheus.Labels{"server": "a"})
	NewCollector(reg, "audsrv", prometheus.Labels{"server": "b"})

	n, err := testutil.GatherAndCount(reg, "audsrv_blocks_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Panics(t, func() {
		NewCollector(reg, "audsrv", prometheus.Labels{"server": "a"})
	})
}

func TestCollector_ObservesServer(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := NewCollector(reg, "audsrv", nil)

	cfg := server.DefaultConfig()
	cfg.BufferSize = 32
	srv := server.New(cfg, server.WithLogger(zap.NewNop()), server.WithObserver(c))
	require.NoError(t, srv.Boot(true))

	ok := srv.NewStream(make([]float32, 32), func() error { return nil })
	bad := srv.NewStream(make([]float32, 32), func() error { return errors.New("boom") })
	require.NoError(t, srv.AddStream(ok))
	require.NoError(t, srv.AddStream(bad))
	ok.Play(0, 0)
	bad.Play(0, 0)

	for range 3 {
		require.NoError(t, srv.ProcessBuffers())
	}

	expected := `
# HELP audsrv_unit_faults_total Units silenced after an error or panic
# TYPE audsrv_unit_faults_total counter
audsrv_unit_faults_total 3
# HELP audsrv_streams Streams in the registry
# TYPE audsrv_streams gauge
audsrv_streams 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"audsrv_unit_faults_total", "audsrv_streams"))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.blocks))
}
