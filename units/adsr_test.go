// SPDX-License-Identifier: EPL-2.0

package units

import (
	"testing"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"go.uber.org/zap"

	"github.com/ik5/audsrv/server"
)

func sampleAccurate(frames int) server.Config {
	cfg := testConfig(1000, frames)
	cfg.Timing = server.TimingSampleAccurate
	return cfg
}

func noteOn(key, vel uint8, at int64) server.MidiEvent {
	return server.NewMidiEvent(midi.NoteOn(0, key, vel), at)
}

func noteOff(key uint8, at int64) server.MidiEvent {
	return server.NewMidiEvent(midi.NoteOff(0, key), at)
}

func checkBlock(t *testing.T, got, want []float32) {
	t.Helper()

	for i := range want {
		if !near(got[i], want[i], 1e-6) {
			t.Fatalf("frame %d = %v, want %v\ngot  %v\nwant %v", i, got[i], want[i], got, want)
		}
	}
}

func TestMidiAdsr_GateIsSampleAccurate(t *testing.T) {
	t.Parallel()

	srv := bootServer(t, sampleAccurate(32))
	env, err := NewMidiAdsr(srv, 0, 0, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	env.Play(0, 0)

	srv.PushMidiEvents(noteOn(60, 127, 10), noteOff(60, 20))
	process(t, srv, 1)

	want := make([]float32, 32)
	for i := 10; i < 20; i++ {
		want[i] = 1
	}
	checkBlock(t, env.Buffer(), want)
}

func TestMidiAdsr_Stages(t *testing.T) {
	t.Parallel()

	srv := bootServer(t, sampleAccurate(16))
	env, _ := NewMidiAdsr(srv, 0.004, 0.004, 0.5, 0.002)
	env.Play(0, 0)

	srv.PushMidiEvents(noteOn(60, 127, 0), noteOff(60, 12))
	process(t, srv, 1)

	checkBlock(t, env.Buffer(), []float32{
		0.25, 0.5, 0.75, 1,
		0.875, 0.75, 0.625, 0.5,
		0.5, 0.5, 0.5, 0.5,
		0.25, 0, 0, 0,
	})
}

func TestMidiAdsr_HoldsAcrossBlocks(t *testing.T) {
	t.Parallel()

	srv := bootServer(t, sampleAccurate(8))
	env, _ := NewMidiAdsr(srv, 0, 0, 0.5, 0)
	env.Play(0, 0)

	srv.PushMidiEvents(noteOn(40, 127, 4))
	process(t, srv, 1)
	checkBlock(t, env.Buffer(), []float32{0, 0, 0, 0, 1, 0.5, 0.5, 0.5})

	process(t, srv, 1)
	checkBlock(t, env.Buffer(), []float32{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5})

	srv.PushMidiEvents(noteOff(40, 2))
	process(t, srv, 1)
	checkBlock(t, env.Buffer(), []float32{0.5, 0.5, 0, 0, 0, 0, 0, 0})
}

func TestMidiAdsr_IgnoresOtherNotes(t *testing.T) {
	t.Parallel()

	srv := bootServer(t, sampleAccurate(8))
	env, _ := NewMidiAdsr(srv, 0, 0, 1, 0)
	env.Play(0, 0)

	srv.PushMidiEvents(
		noteOff(60, 0),
		server.NewMidiEvent(midi.ControlChange(0, 7, 100), 1),
		noteOn(60, 64, 2),
		noteOff(61, 4),
	)
	process(t, srv, 1)

	v := float32(64) / 127
	checkBlock(t, env.Buffer(), []float32{0, 0, v, v, v, v, v, v})
}

func TestMidiAdsr_NoteOnZeroVelocityReleases(t *testing.T) {
	t.Parallel()

	srv := bootServer(t, sampleAccurate(8))
	env, _ := NewMidiAdsr(srv, 0, 0, 1, 0)
	env.Play(0, 0)

	srv.PushMidiEvents(noteOn(60, 127, 1), noteOn(60, 0, 5))
	process(t, srv, 1)

	checkBlock(t, env.Buffer(), []float32{0, 1, 1, 1, 1, 0, 0, 0})
}

func TestMidiAdsr_WallClockTiming(t *testing.T) {
	t.Parallel()

	start := time.UnixMilli(5_000_000)
	srv := server.New(testConfig(1000, 32),
		server.WithLogger(zap.NewNop()),
		server.WithClock(func() time.Time { return start }))
	if err := srv.Boot(true); err != nil {
		t.Fatal(err)
	}
	if err := srv.Start(); err != nil {
		t.Fatal(err)
	}

	env, _ := NewMidiAdsr(srv, 0, 0, 1, 0)
	env.Play(0, 0)

	process(t, srv, 1)

	// 1 ms per frame at 1 kHz; the second block starts 32 ms after the origin.
	srv.PushMidiEvents(noteOn(60, 127, start.UnixMilli()+40))
	process(t, srv, 1)
	want := make([]float32, 32)
	for i := 8; i < 32; i++ {
		want[i] = 1
	}
	checkBlock(t, env.Buffer(), want)
}
