// SPDX-License-Identifier: EPL-2.0

package server

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ik5/audsrv/seed"
)

// Server owns the I/O buffers and the stream registry and drives them once per
// audio block.
//
// Lock order: regMu before mu.
type Server struct {
	id       int
	table    *Table
	instance uuid.UUID
	log      *logSink
	observer Observer
	now      func() time.Time
	seeds    *seed.Generator

	// regMu guards the registry and is held by ProcessBuffers for a whole block.
	regMu   sync.Mutex
	streams []*Stream
	view    atomic.Pointer[[]*Stream]

	// Registry and lifecycle changes requested while a block runs.
	pendMu  sync.Mutex
	inBlock bool
	pending []func()

	mu                sync.RWMutex
	samplingRate      float64
	nchnls            int
	ichnls            int
	bufferSize        int
	duplex            bool
	globalDur         float64
	globalDel         float64
	autoStartChildren bool
	timing            TimingMode
	booted            bool
	started           bool
	closed            bool
	callback          func()
	resampling        int
	resamplingStack   []int
	input             []float32
	output            []float32
	midiOrigin        int64

	elapsed      atomic.Int64
	nextStreamID atomic.Int64

	midiMu      sync.Mutex
	midiPending []MidiEvent
	midiBlock   []MidiEvent
}

// Option configures a Server at construction.
type Option func(*options)

type options struct {
	logger   *zap.Logger
	observer Observer
	now      func() time.Time
}

// WithLogger sets the logger messages are written to after verbosity gating.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithObserver sets the receiver of scheduling metrics.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithClock replaces the wall clock used for MIDI timing and time-based seeding.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates a standalone server that is not part of any Table. It does not
// allocate the I/O buffers; Boot does.
func New(cfg Config, opts ...Option) *Server {
	return newServer(-1, nil, cfg, opts...)
}

func newServer(id int, table *Table, cfg Config, opts ...Option) *Server {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger, _ = zap.NewProduction()
	}
	if o.observer == nil {
		o.observer = nopObserver{}
	}
	if o.now == nil {
		o.now = time.Now
	}

	clean, fixed := cfg.sanitize()

	instance := uuid.New()
	logger := o.logger.With(zap.String("server", instance.String()))
	if id >= 0 {
		logger = logger.With(zap.Int("slot", id))
	}

	s := &Server{
		id:                id,
		table:             table,
		instance:          instance,
		log:               newLogSink(logger, clean.Verbosity),
		observer:          o.observer,
		now:               o.now,
		seeds:             seed.NewGenerator(seed.WithClock(o.now)),
		samplingRate:      clean.SamplingRate,
		nchnls:            clean.OutChannels,
		ichnls:            clean.InChannels,
		bufferSize:        clean.BufferSize,
		duplex:            clean.Duplex,
		globalDur:         clean.GlobalDur,
		globalDel:         clean.GlobalDel,
		autoStartChildren: clean.AutoStartChildren,
		timing:            clean.Timing,
		resampling:        1,
	}
	s.seeds.SetGlobalSeed(clean.GlobalSeed)

	for _, field := range fixed {
		s.log.error("invalid server configuration, using default", zap.String("field", field))
	}

	return s
}

// ID returns the slot id, or -1 for a standalone server.
func (s *Server) ID() int { return s.id }

func (s *Server) InstanceID() uuid.UUID { return s.instance }

// Seeds returns the random generator shared by the units of this server.
func (s *Server) Seeds() *seed.Generator { return s.seeds }

// Logger returns the server logger for units that report through it.
func (s *Server) Logger() *zap.Logger { return s.log.logger }

func (s *Server) setBeforeBoot(name string, valid bool, value zap.Field, apply func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.booted {
		s.log.warning("can't change "+name+" on a booted server", value)
		return fmt.Errorf("%s: %w", name, ErrAlreadyBooted)
	}
	if !valid {
		s.log.error("invalid "+name, value)
		return fmt.Errorf("%s: %w", name, ErrInvalidValue)
	}

	apply()

	return nil
}

func (s *Server) SetSamplingRate(x float64) error {
	return s.setBeforeBoot("sampling rate", validRate(x), zap.Float64("value", x), func() {
		s.samplingRate = x
	})
}

func (s *Server) SetBufferSize(n int) error {
	return s.setBeforeBoot("buffer size", n > 0, zap.Int("value", n), func() {
		s.bufferSize = n
	})
}

func (s *Server) SetNchnls(n int) error {
	return s.setBeforeBoot("output channels", n > 0, zap.Int("value", n), func() {
		s.nchnls = n
	})
}

func (s *Server) SetIchnls(n int) error {
	return s.setBeforeBoot("input channels", n > 0, zap.Int("value", n), func() {
		s.ichnls = n
	})
}

func (s *Server) SetDuplex(duplex bool) error {
	return s.setBeforeBoot("duplex mode", true, zap.Bool("value", duplex), func() {
		s.duplex = duplex
	})
}

// SetGlobalDur sets the duration, in seconds, units use when played without one.
// Negative or non-finite values are ignored.
func (s *Server) SetGlobalDur(x float64) {
	if !validDuration(x) {
		return
	}

	s.mu.Lock()
	s.globalDur = x
	s.mu.Unlock()
}

// SetGlobalDel sets the delay, in seconds, units use when played without one.
// Negative or non-finite values are ignored.
func (s *Server) SetGlobalDel(x float64) {
	if !validDuration(x) {
		return
	}

	s.mu.Lock()
	s.globalDel = x
	s.mu.Unlock()
}

func (s *Server) GlobalDur() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.globalDur
}

func (s *Server) GlobalDel() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.globalDel
}

// SetGlobalSeed sets the seed of the random generator. Negative values clamp to
// 0, which derives seeds from the wall clock.
func (s *Server) SetGlobalSeed(n int64) {
	s.seeds.SetGlobalSeed(n)
}

func (s *Server) GlobalSeed() uint64 { return s.seeds.GlobalSeed() }

func (s *Server) SetVerbosity(v Verbosity) {
	s.log.setVerbosity(v & VerbosityAll)
}

func (s *Server) Verbosity() Verbosity { return s.log.verbosity() }

// SetCallback registers fn to run at the start of every block, before any unit
// computes. It replaces any previous hook; nil removes it. Streams the hook adds
// or removes join or leave the registry when the block ends.
func (s *Server) SetCallback(fn func()) {
	s.mu.Lock()
	s.callback = fn
	s.mu.Unlock()
}

func (s *Server) SetAutoStartChildren(on bool) {
	s.mu.Lock()
	s.autoStartChildren = on
	s.mu.Unlock()
}

func (s *Server) AutoStartChildren() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autoStartChildren
}

func (s *Server) SetTimingMode(m TimingMode) {
	s.mu.Lock()
	s.timing = m
	s.mu.Unlock()
}

func (s *Server) TimingMode() TimingMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timing
}

func (s *Server) Nchnls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nchnls
}

func (s *Server) Ichnls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ichnls
}

func (s *Server) Duplex() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.duplex
}

func (s *Server) IsBooted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.booted
}

func (s *Server) IsStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// InputBuffer returns the interleaved input block (bufferSize × input channels)
// for backends to fill in place.
func (s *Server) InputBuffer() []float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.input
}

// OutputBuffer returns the interleaved output block (bufferSize × output
// channels) written by ProcessBuffers.
func (s *Server) OutputBuffer() []float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.output
}

// Boot allocates the I/O buffers when allocate is true, zeroes them and marks
// the server ready to process. Booting a booted server is an error and a no-op.
func (s *Server) Boot(allocate bool) error {
	// A block only runs on a booted server, so this also covers a Boot
	// called from the hook or a compute function.
	if s.IsBooted() {
		s.log.error("server already booted")
		return ErrAlreadyBooted
	}

	s.regMu.Lock()
	defer s.regMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.log.error("can't boot a closed server")
		return ErrServerClosed
	}
	if s.booted {
		s.log.error("server already booted")
		return ErrAlreadyBooted
	}

	s.started = false
	clear(s.streams)
	s.streams = s.streams[:0]
	s.publishLocked()

	inLen := s.bufferSize * s.ichnls
	outLen := s.bufferSize * s.nchnls
	if !allocate && (len(s.input) != inLen || len(s.output) != outLen) {
		s.log.debug("buffers missing or resized, allocating",
			zap.Int("input", inLen), zap.Int("output", outLen))
		allocate = true
	}
	if allocate {
		s.input = make([]float32, inLen)
		s.output = make([]float32, outLen)
	}
	clear(s.input)
	clear(s.output)

	s.elapsed.Store(0)
	s.resampling = 1
	s.resamplingStack = s.resamplingStack[:0]
	s.booted = true

	s.log.debug("server booted",
		zap.Float64("sampling_rate", s.samplingRate),
		zap.Int("buffer_size", s.bufferSize),
		zap.Int("out_channels", s.nchnls),
		zap.Int("in_channels", s.ichnls),
		zap.Bool("duplex", s.duplex))
	s.observer.StreamsChanged(0)

	return nil
}

// Start marks a booted server as running and sets the MIDI time origin.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.booted {
		s.log.warning("the server must be booted before it can start")
		return ErrNotBooted
	}
	if s.started {
		s.log.warning("server already started")
		return ErrAlreadyStarted
	}

	s.started = true
	s.midiOrigin = s.now().UnixMilli()
	s.log.debug("server started")

	return nil
}

// Stop marks the server as not running. Blocks already in flight complete.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stopLocked()
}

func (s *Server) stopLocked() error {
	if !s.started {
		s.log.warning("the server must be started before it can stop")
		return ErrNotStarted
	}

	s.started = false
	s.log.debug("server stopped")

	return nil
}

// Shutdown stops the server if needed, resets the seed counters and empties the
// registry. The I/O buffers are kept for a later Boot(false). Called while a
// block is being processed, it takes effect once the block is done.
func (s *Server) Shutdown() error {
	if !s.IsBooted() {
		s.log.error("the server must be booted before it can shut down")
		return ErrNotBooted
	}
	if s.deferInBlock(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		_ = s.shutdownLocked()
	}) {
		return nil
	}

	s.regMu.Lock()
	defer s.regMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.shutdownLocked()
}

func (s *Server) shutdownLocked() error {
	if !s.booted {
		s.log.error("the server must be booted before it can shut down")
		return ErrNotBooted
	}
	if s.started {
		_ = s.stopLocked()
	}

	s.seeds.Reset()

	for i := len(s.streams) - 1; i >= 0; i-- {
		s.streams[i] = nil
		s.streams = s.streams[:i]
	}
	s.publishLocked()

	s.booted = false
	s.log.debug("server shut down")
	s.observer.StreamsChanged(0)

	return nil
}

// Close shuts the server down if it is booted, releases the I/O buffers and
// frees its table slot. Called while a block is being processed, it takes
// effect once the block is done.
func (s *Server) Close() error {
	if s.isClosed() {
		return ErrServerClosed
	}
	if s.deferInBlock(func() { _ = s.closeLocked() }) {
		return nil
	}

	s.regMu.Lock()
	defer s.regMu.Unlock()

	return s.closeLocked()
}

func (s *Server) closeLocked() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrServerClosed
	}
	if s.booted {
		_ = s.shutdownLocked()
	}

	s.input = nil
	s.output = nil
	s.closed = true
	s.mu.Unlock()

	if s.table != nil {
		s.table.release(s.id, s)
	}

	return nil
}

func (s *Server) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
