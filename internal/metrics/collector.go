// SPDX-License-Identifier: EPL-2.0

// Package metrics exports server scheduling events to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ik5/audsrv/server"
)

var _ server.Observer = (*Collector)(nil)

// Collector implements server.Observer. Every method is a handful of atomic
// updates and safe to call from the audio thread.
type Collector struct {
	blocks         prometheus.Counter
	blockDuration  prometheus.Histogram
	deadlineMisses prometheus.Counter
	unitFaults     prometheus.Counter
	hookFaults     prometheus.Counter
	hookOverruns   prometheus.Counter
	hookOverrun    prometheus.Histogram
	streams        prometheus.Gauge
}

// NewCollector registers the audio metrics on reg. labels are attached to
// every series, typically the server instance id.
func NewCollector(reg prometheus.Registerer, namespace string, labels prometheus.Labels) *Collector {
	f := promauto.With(reg)

	return &Collector{
		blocks: f.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "blocks_total",
			Help:        "Number of audio blocks processed",
			ConstLabels: labels,
		}),
		blockDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "block_duration_seconds",
			Help:        "Time spent computing one audio block",
			Buckets:     prometheus.ExponentialBuckets(50e-6, 2, 10),
			ConstLabels: labels,
		}),
		deadlineMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "deadline_misses_total",
			Help:        "Blocks that took longer than their playback period",
			ConstLabels: labels,
		}),
		unitFaults: f.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "unit_faults_total",
			Help:        "Units silenced after an error or panic",
			ConstLabels: labels,
		}),
		hookFaults: f.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "hook_faults_total",
			Help:        "Panics recovered from the per-block hook",
			ConstLabels: labels,
		}),
		hookOverruns: f.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "hook_overruns_total",
			Help:        "Per-block hook runs longer than one block",
			ConstLabels: labels,
		}),
		hookOverrun: f.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "hook_overrun_seconds",
			Help:        "Duration of overrunning hook runs",
			Buckets:     prometheus.ExponentialBuckets(1e-3, 2, 8),
			ConstLabels: labels,
		}),
		streams: f.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "streams",
			Help:        "Streams in the registry",
			ConstLabels: labels,
		}),
	}
}

func (c *Collector) BlockProcessed(elapsed, deadline time.Duration) {
	c.blocks.Inc()
	c.blockDuration.Observe(elapsed.Seconds())
	if elapsed > deadline {
		c.deadlineMisses.Inc()
	}
}

func (c *Collector) UnitFault(int) { c.unitFaults.Inc() }

func (c *Collector) HookFault() { c.hookFaults.Inc() }

func (c *Collector) HookOverrun(elapsed time.Duration) {
	c.hookOverruns.Inc()
	c.hookOverrun.Observe(elapsed.Seconds())
}

func (c *Collector) StreamsChanged(n int) { c.streams.Set(float64(n)) }
