// SPDX-License-Identifier: EPL-2.0

package units

import (
	"sync"

	"github.com/ik5/audsrv/server"
)

type adsrStage int

const (
	stageIdle adsrStage = iota
	stageAttack
	stageDecay
	stageSustain
	stageRelease
)

// MidiAdsr is a monophonic linear ADSR envelope driven by the server's MIDI
// events. Note-on and note-off take effect on the frame PosToWrite assigns to
// the event, so transitions are sample accurate within the block. The output
// is scaled by the note velocity.
type MidiAdsr struct {
	Base
	rate float64

	mu                              sync.Mutex
	attack, decay, sustain, release float64

	stage adsrStage
	level float64
	amp   float64
	key   uint8
	step  float64
}

// NewMidiAdsr creates an envelope. Times are in seconds, sustain is a level in
// [0, 1].
func NewMidiAdsr(srv *server.Server, attack, decay, sustain, release float64) (*MidiAdsr, error) {
	e := &MidiAdsr{}
	e.setTimes(attack, decay, sustain, release)
	if srv != nil {
		e.rate = srv.SamplingRate()
	}
	if err := e.init(srv, e.compute); err != nil {
		return nil, err
	}
	return e, nil
}

// SetTimes changes the envelope; notes already sounding pick it up at their
// next stage.
func (e *MidiAdsr) SetTimes(attack, decay, sustain, release float64) {
	e.mu.Lock()
	e.setTimes(attack, decay, sustain, release)
	e.mu.Unlock()
}

func (e *MidiAdsr) setTimes(attack, decay, sustain, release float64) {
	e.attack = max(attack, 0)
	e.decay = max(decay, 0)
	e.sustain = min(max(sustain, 0), 1)
	e.release = max(release, 0)
}

func (e *MidiAdsr) compute() error {
	e.mu.Lock()
	attack, decay, sustain, release := e.attack, e.decay, e.sustain, e.release
	e.mu.Unlock()

	pos := 0
	for _, ev := range e.srv.MidiEvents() {
		var ch, key, vel uint8
		msg := ev.Message()

		var on, off bool
		switch {
		case msg.GetNoteOn(&ch, &key, &vel):
			on = vel > 0
			off = vel == 0
		case msg.GetNoteOff(&ch, &key, &vel):
			off = true
		default:
			continue
		}
		if off && (e.stage == stageIdle || e.stage == stageRelease || key != e.key) {
			continue
		}

		frame := max(e.srv.PosToWrite(ev.Timestamp), pos)
		e.render(pos, frame, decay, sustain)
		pos = frame

		if on {
			e.key = key
			e.amp = float64(vel) / 127
			e.stage = stageAttack
			e.step = stepFor(1-e.level, attack, e.rate)
			continue
		}
		e.stage = stageRelease
		e.step = stepFor(e.level, release, e.rate)
	}
	e.render(pos, len(e.buf), decay, sustain)

	return nil
}

// render advances the envelope over frames [from, to).
func (e *MidiAdsr) render(from, to int, decay, sustain float64) {
	for i := from; i < to; i++ {
		switch e.stage {
		case stageAttack:
			e.level += e.step
			if e.level >= 1 {
				e.level = 1
				e.stage = stageDecay
				e.step = stepFor(1-sustain, decay, e.rate)
			}
		case stageDecay:
			e.level -= e.step
			if e.level <= sustain {
				e.level = sustain
				e.stage = stageSustain
			}
		case stageSustain:
			e.level = sustain
		case stageRelease:
			e.level -= e.step
			if e.level <= 0 {
				e.level = 0
				e.stage = stageIdle
			}
		}
		e.buf[i] = float32(e.level * e.amp)
	}
}

// stepFor returns the per-frame change covering distance in sec seconds. A
// zero time jumps in one frame.
func stepFor(distance, sec, rate float64) float64 {
	frames := sec * rate
	if frames < 1 {
		return max(distance, 1)
	}
	return distance / frames
}
