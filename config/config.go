// SPDX-License-Identifier: EPL-2.0

// Package config loads the engine, logging, metrics and backend settings of
// audsrv from defaults, a YAML file and AUDSRV_ environment variables, in that
// order.
package config

import (
	"fmt"
	"time"

	"github.com/ik5/audsrv/server"
)

// Config is the complete audsrv configuration.
type Config struct {
	Engine  EngineConfig  `yaml:"engine" env:"ENGINE"`
	Log     LogConfig     `yaml:"log" env:"LOG"`
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`
	Backend BackendConfig `yaml:"backend" env:"BACKEND"`
}

// EngineConfig mirrors server.Config.
type EngineConfig struct {
	SamplingRate      float64 `yaml:"sampling_rate" env:"SAMPLING_RATE"`
	OutChannels       int     `yaml:"out_channels" env:"OUT_CHANNELS"`
	InChannels        int     `yaml:"in_channels" env:"IN_CHANNELS"`
	BufferSize        int     `yaml:"buffer_size" env:"BUFFER_SIZE"`
	Duplex            bool    `yaml:"duplex" env:"DUPLEX"`
	Verbosity         int     `yaml:"verbosity" env:"VERBOSITY"`
	GlobalSeed        int64   `yaml:"global_seed" env:"GLOBAL_SEED"`
	GlobalDur         float64 `yaml:"global_dur" env:"GLOBAL_DUR"`
	GlobalDel         float64 `yaml:"global_del" env:"GLOBAL_DEL"`
	AutoStartChildren bool    `yaml:"auto_start_children" env:"AUTO_START_CHILDREN"`
	// Timing is "wallclock" or "sample".
	Timing string `yaml:"timing" env:"TIMING"`
}

// LogConfig selects the zap encoder and sinks.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// Format: json, console
	Format           string   `yaml:"format" env:"FORMAT"`
	OutputPaths      []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	EnableCaller     bool     `yaml:"enable_caller" env:"ENABLE_CALLER"`
	EnableStacktrace bool     `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Addr    string `yaml:"addr" env:"ADDR"`
	Path    string `yaml:"path" env:"PATH"`
}

// BackendConfig selects the driver calling ProcessBuffers.
type BackendConfig struct {
	// Kind: offline, clock, oto
	Kind string `yaml:"kind" env:"KIND"`
	// Blocks queued in the device player; only used by oto.
	Latency         int           `yaml:"latency_blocks" env:"LATENCY_BLOCKS"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

func DefaultConfig() *Config {
	def := server.DefaultConfig()

	return &Config{
		Engine: EngineConfig{
			SamplingRate: def.SamplingRate,
			OutChannels:  def.OutChannels,
			InChannels:   def.InChannels,
			BufferSize:   def.BufferSize,
			Duplex:       def.Duplex,
			Verbosity:    int(def.Verbosity),
			Timing:       def.Timing.String(),
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "json",
			OutputPaths: []string{"stderr"},
		},
		Metrics: MetricsConfig{
			Addr: ":9464",
			Path: "/metrics",
		},
		Backend: BackendConfig{
			Kind:            BackendOto,
			Latency:         4,
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

const (
	BackendOffline = "offline"
	BackendClock   = "clock"
	BackendOto     = "oto"
)

// ServerConfig converts the engine section. Validate must have passed.
func (e EngineConfig) ServerConfig() server.Config {
	timing, _ := ParseTiming(e.Timing)

	return server.Config{
		SamplingRate:      e.SamplingRate,
		OutChannels:       e.OutChannels,
		InChannels:        e.InChannels,
		BufferSize:        e.BufferSize,
		Duplex:            e.Duplex,
		Verbosity:         server.Verbosity(e.Verbosity),
		GlobalSeed:        e.GlobalSeed,
		GlobalDur:         e.GlobalDur,
		GlobalDel:         e.GlobalDel,
		AutoStartChildren: e.AutoStartChildren,
		Timing:            timing,
	}
}

// ParseTiming maps a timing name to its mode.
func ParseTiming(s string) (server.TimingMode, error) {
	switch s {
	case "", server.TimingWallClock.String():
		return server.TimingWallClock, nil
	case server.TimingSampleAccurate.String():
		return server.TimingSampleAccurate, nil
	default:
		return 0, fmt.Errorf("timing %q: %w", s, ErrInvalidConfig)
	}
}
