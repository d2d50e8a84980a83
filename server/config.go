// SPDX-License-Identifier: EPL-2.0

package server

import "math"

const (
	DefaultSamplingRate = 44100.0
	DefaultBufferSize   = 256
	DefaultChannels     = 2
)

// TimingMode selects how MIDI event timestamps map to sample offsets.
type TimingMode int

const (
	// TimingWallClock treats timestamps as milliseconds on the server clock.
	TimingWallClock TimingMode = iota
	// TimingSampleAccurate treats timestamps as offsets inside the current block.
	TimingSampleAccurate
)

func (m TimingMode) String() string {
	switch m {
	case TimingWallClock:
		return "wallclock"
	case TimingSampleAccurate:
		return "sample"
	default:
		return "unknown"
	}
}

// Config holds the construction-time settings of a server.
type Config struct {
	SamplingRate      float64
	OutChannels       int
	InChannels        int
	BufferSize        int
	Duplex            bool
	Verbosity         Verbosity
	GlobalSeed        int64
	GlobalDur         float64
	GlobalDel         float64
	AutoStartChildren bool
	Timing            TimingMode
}

func DefaultConfig() Config {
	return Config{
		SamplingRate: DefaultSamplingRate,
		OutChannels:  DefaultChannels,
		InChannels:   DefaultChannels,
		BufferSize:   DefaultBufferSize,
		Duplex:       true,
		Verbosity:    DefaultVerbosity,
	}
}

// sanitize replaces unusable fields by their defaults and reports the names of
// the fields it replaced.
func (c Config) sanitize() (Config, []string) {
	def := DefaultConfig()

	var fixed []string
	if !validRate(c.SamplingRate) {
		c.SamplingRate = def.SamplingRate
		fixed = append(fixed, "sampling_rate")
	}
	if c.OutChannels <= 0 {
		c.OutChannels = def.OutChannels
		fixed = append(fixed, "out_channels")
	}
	if c.InChannels <= 0 {
		c.InChannels = def.InChannels
		fixed = append(fixed, "in_channels")
	}
	if c.BufferSize <= 0 {
		c.BufferSize = def.BufferSize
		fixed = append(fixed, "buffer_size")
	}
	if c.Verbosity < 0 || c.Verbosity > VerbosityAll {
		c.Verbosity = def.Verbosity
		fixed = append(fixed, "verbosity")
	}
	if c.GlobalSeed < 0 {
		c.GlobalSeed = 0
	}
	if !validDuration(c.GlobalDur) {
		c.GlobalDur = 0
	}
	if !validDuration(c.GlobalDel) {
		c.GlobalDel = 0
	}

	return c, fixed
}

func validRate(x float64) bool {
	return x > 0 && !math.IsInf(x, 0) && !math.IsNaN(x)
}

func validDuration(x float64) bool {
	return x >= 0 && !math.IsInf(x, 0) && !math.IsNaN(x)
}
