// SPDX-License-Identifier: EPL-2.0

package server

import (
	"gitlab.com/gomidi/midi/v2"
	"go.uber.org/zap"
)

// MaxMidiEvents bounds the number of events delivered in one block.
const MaxMidiEvents = 512

// MidiEvent is one short MIDI message as delivered by the input transport.
// Timestamp is interpreted according to the server TimingMode.
type MidiEvent struct {
	Status    uint8
	Data1     uint8
	Data2     uint8
	Timestamp int64
}

// NewMidiEvent builds an event from a decoded message.
func NewMidiEvent(msg midi.Message, timestamp int64) MidiEvent {
	ev := MidiEvent{Timestamp: timestamp}
	if len(msg) > 0 {
		ev.Status = msg[0]
	}
	if len(msg) > 1 {
		ev.Data1 = msg[1]
	}
	if len(msg) > 2 {
		ev.Data2 = msg[2]
	}
	return ev
}

// Message returns the event as a midi.Message for decoding.
func (e MidiEvent) Message() midi.Message {
	return midi.Message{e.Status, e.Data1, e.Data2}
}

// PushMidiEvents queues events for the next block. It is safe to call from the
// transport thread. Events beyond MaxMidiEvents per block are dropped.
func (s *Server) PushMidiEvents(events ...MidiEvent) {
	s.midiMu.Lock()
	defer s.midiMu.Unlock()

	room := MaxMidiEvents - len(s.midiPending)
	if len(events) > room {
		s.log.warning("midi buffer full, dropping events", zap.Int("dropped", len(events)-max(room, 0)))
		events = events[:max(room, 0)]
	}

	s.midiPending = append(s.midiPending, events...)
}

// MidiEvents returns the events of the block being computed. Units call it from
// their compute function; the slice is reused on the next block.
func (s *Server) MidiEvents() []MidiEvent {
	return s.midiBlock
}

func (s *Server) publishMidi() {
	s.midiMu.Lock()
	s.midiBlock, s.midiPending = s.midiPending, s.midiBlock[:0]
	s.midiMu.Unlock()
}
