// SPDX-License-Identifier: EPL-2.0

package server

import "time"

// Observer receives scheduling events from the audio thread. Implementations
// must not block.
type Observer interface {
	// BlockProcessed reports how long a block took against its deadline.
	BlockProcessed(elapsed, deadline time.Duration)
	// UnitFault reports a stream whose compute function failed or panicked.
	UnitFault(streamID int)
	// HookFault reports a panic inside the per-block hook.
	HookFault()
	// HookOverrun reports a hook that took longer than one block.
	HookOverrun(elapsed time.Duration)
	// StreamsChanged reports the new registry size.
	StreamsChanged(n int)
}

type nopObserver struct{}

func (nopObserver) BlockProcessed(time.Duration, time.Duration) {}
func (nopObserver) UnitFault(int)                               {}
func (nopObserver) HookFault()                                  {}
func (nopObserver) HookOverrun(time.Duration)                   {}
func (nopObserver) StreamsChanged(int)                          {}
