// SPDX-License-Identifier: EPL-2.0

package server

import "errors"

var (
	ErrAlreadyBooted     = errors.New("server already booted")
	ErrNotBooted         = errors.New("server not booted")
	ErrAlreadyStarted    = errors.New("server already started")
	ErrNotStarted        = errors.New("server not started")
	ErrInvalidValue      = errors.New("invalid value")
	ErrInvalidStream     = errors.New("invalid stream")
	ErrDuplicateStream   = errors.New("stream already registered")
	ErrStreamNotFound    = errors.New("stream not found")
	ErrNoFreeSlot        = errors.New("no free server slot")
	ErrServerNotFound    = errors.New("no server in slot")
	ErrServerClosed      = errors.New("server closed")
	ErrNoResamplingBlock = errors.New("no resampling block open")
)
