// SPDX-License-Identifier: EPL-2.0

package server

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Verbosity is a bitmask selecting which message classes are logged.
type Verbosity int

const (
	VerbosityError   Verbosity = 1
	VerbosityMessage Verbosity = 2
	VerbosityWarning Verbosity = 4
	VerbosityDebug   Verbosity = 8

	VerbosityAll     = VerbosityError | VerbosityMessage | VerbosityWarning | VerbosityDebug
	DefaultVerbosity = VerbosityError | VerbosityMessage | VerbosityWarning
)

// Has reports whether every bit of flag is set in v.
func (v Verbosity) Has(flag Verbosity) bool { return v&flag == flag }

// logSink gates zap output through the verbosity mask.
type logSink struct {
	logger *zap.Logger
	mask   atomic.Int32
}

func newLogSink(logger *zap.Logger, v Verbosity) *logSink {
	s := &logSink{logger: logger}
	s.mask.Store(int32(v))
	return s
}

func (s *logSink) verbosity() Verbosity { return Verbosity(s.mask.Load()) }

func (s *logSink) setVerbosity(v Verbosity) { s.mask.Store(int32(v)) }

func (s *logSink) enabled(flag Verbosity) bool { return s.verbosity().Has(flag) }

func (s *logSink) error(msg string, fields ...zap.Field) {
	if s.enabled(VerbosityError) {
		s.logger.Error(msg, fields...)
	}
}

func (s *logSink) message(msg string, fields ...zap.Field) {
	if s.enabled(VerbosityMessage) {
		s.logger.Info(msg, fields...)
	}
}

func (s *logSink) warning(msg string, fields ...zap.Field) {
	if s.enabled(VerbosityWarning) {
		s.logger.Warn(msg, fields...)
	}
}

func (s *logSink) debug(msg string, fields ...zap.Field) {
	if s.enabled(VerbosityDebug) {
		s.logger.Debug(msg, fields...)
	}
}
