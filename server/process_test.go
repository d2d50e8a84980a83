// SPDX-License-Identifier: EPL-2.0

package server

import (
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"pgregory.net/rapid"
)

type recordingObserver struct {
	mu          sync.Mutex
	blocks      int
	unitFaults  []int
	hookFaults  int
	hookOverrun int
	counts      []int
}

func (o *recordingObserver) BlockProcessed(time.Duration, time.Duration) {
	o.mu.Lock()
	o.blocks++
	o.mu.Unlock()
}

func (o *recordingObserver) UnitFault(id int) {
	o.mu.Lock()
	o.unitFaults = append(o.unitFaults, id)
	o.mu.Unlock()
}

func (o *recordingObserver) HookFault() {
	o.mu.Lock()
	o.hookFaults++
	o.mu.Unlock()
}

func (o *recordingObserver) HookOverrun(time.Duration) {
	o.mu.Lock()
	o.hookOverrun++
	o.mu.Unlock()
}

func (o *recordingObserver) StreamsChanged(n int) {
	o.mu.Lock()
	o.counts = append(o.counts, n)
	o.mu.Unlock()
}

func TestProcessBuffers_NotBooted(t *testing.T) {
	t.Parallel()

	s := newTestServer(DefaultConfig())
	if err := s.ProcessBuffers(); !errors.Is(err, ErrNotBooted) {
		t.Fatalf("ProcessBuffers() error = %v, want ErrNotBooted", err)
	}
}

func TestProcessBuffers_RoutesActiveStreams(t *testing.T) {
	t.Parallel()

	s := newBootedServer(t, DefaultConfig())

	silent := constStream(s, 0.5)
	silent.Out(1)

	one := constStream(s, 1)
	one.Out(0)
	one.SetActive(true)

	mustAdd(t, s, silent, one)

	if err := s.ProcessBuffers(); err != nil {
		t.Fatalf("ProcessBuffers() error = %v", err)
	}

	out := s.OutputBuffer()
	if len(out) != 512 {
		t.Fatalf("len(out) = %d, want 512", len(out))
	}
	for i, v := range channel(out, 0, 2) {
		if v != 1 {
			t.Fatalf("ch0[%d] = %v, want 1", i, v)
		}
	}
	for i, v := range channel(out, 1, 2) {
		if v != 0 {
			t.Fatalf("ch1[%d] = %v, want 0 (inactive stream must not contribute)", i, v)
		}
	}
}

func TestProcessBuffers_ClearsPreviousBlock(t *testing.T) {
	t.Parallel()

	s := newBootedServer(t, DefaultConfig())
	st := constStream(s, 1)
	st.Out(0)
	st.SetActive(true)
	mustAdd(t, s, st)

	if err := s.ProcessBuffers(); err != nil {
		t.Fatalf("ProcessBuffers() error = %v", err)
	}
	st.SetActive(false)
	if err := s.ProcessBuffers(); err != nil {
		t.Fatalf("ProcessBuffers() error = %v", err)
	}

	for i, v := range s.OutputBuffer() {
		if v != 0 {
			t.Fatalf("out[%d] = %v, want 0 after the stream stopped", i, v)
		}
	}
}

func TestProcessBuffers_ActiveButNotRouted(t *testing.T) {
	t.Parallel()

	s := newBootedServer(t, DefaultConfig())

	var computed int
	buf := make([]float32, s.BufferSize())
	st := s.NewStream(buf, func() error {
		computed++
		for i := range buf {
			buf[i] = 1
		}
		return nil
	})
	st.SetActive(true)
	mustAdd(t, s, st)

	if err := s.ProcessBuffers(); err != nil {
		t.Fatalf("ProcessBuffers() error = %v", err)
	}

	if computed != 1 {
		t.Errorf("computed %d times, want 1", computed)
	}
	if st.Data()[0] != 1 {
		t.Error("stream data not computed")
	}
	for i, v := range s.OutputBuffer() {
		if v != 0 {
			t.Fatalf("out[%d] = %v, want 0 for an unrouted stream", i, v)
		}
	}
}

func TestProcessBuffers_ChannelWraps(t *testing.T) {
	t.Parallel()

	s := newBootedServer(t, DefaultConfig())

	tests := []struct {
		chnl int
		want int
	}{
		{chnl: 3, want: 1},
		{chnl: 4, want: 0},
		{chnl: -1, want: 1},
	}

	for _, tt := range tests {
		st := constStream(s, 1)
		st.Out(tt.chnl)
		st.SetActive(true)
		mustAdd(t, s, st)

		if err := s.ProcessBuffers(); err != nil {
			t.Fatalf("ProcessBuffers() error = %v", err)
		}

		if got := channel(s.OutputBuffer(), tt.want, 2)[0]; got != 1 {
			t.Errorf("Out(%d): channel %d = %v, want 1", tt.chnl, tt.want, got)
		}
		if got := channel(s.OutputBuffer(), 1-tt.want, 2)[0]; got != 0 {
			t.Errorf("Out(%d): channel %d = %v, want 0", tt.chnl, 1-tt.want, got)
		}

		s.RemoveStream(st.ID())
	}
}

func TestProcessBuffers_FaultIsolation(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	s := newBootedServer(t, DefaultConfig(), WithObserver(obs))

	panicking := s.NewStream(make([]float32, s.BufferSize()), func() error {
		panic("boom")
	})
	failingBuf := make([]float32, s.BufferSize())
	failing := s.NewStream(failingBuf, func() error {
		for i := range failingBuf {
			failingBuf[i] = 9
		}
		return errors.New("decoder error")
	})
	healthy := constStream(s, 0.25)

	for _, st := range []*Stream{panicking, failing, healthy} {
		st.Out(0)
		st.SetActive(true)
	}
	mustAdd(t, s, panicking, failing, healthy)

	if err := s.ProcessBuffers(); err != nil {
		t.Fatalf("ProcessBuffers() error = %v", err)
	}

	for i, v := range channel(s.OutputBuffer(), 0, 2) {
		if v != 0.25 {
			t.Fatalf("ch0[%d] = %v, want 0.25 (only the healthy stream)", i, v)
		}
	}
	for i, v := range failingBuf {
		if v != 0 {
			t.Fatalf("failing stream data[%d] = %v, want silenced", i, v)
		}
	}

	if len(obs.unitFaults) != 2 || obs.unitFaults[0] != panicking.ID() || obs.unitFaults[1] != failing.ID() {
		t.Errorf("unit faults = %v, want [%d %d]", obs.unitFaults, panicking.ID(), failing.ID())
	}
	if obs.blocks != 1 {
		t.Errorf("blocks = %d, want 1", obs.blocks)
	}
}

func TestProcessBuffers_HookRunsFirst(t *testing.T) {
	t.Parallel()

	s := newBootedServer(t, DefaultConfig())

	var order []string
	s.SetCallback(func() { order = append(order, "hook") })

	st := s.NewStream(make([]float32, s.BufferSize()), func() error {
		order = append(order, "unit")
		return nil
	})
	st.SetActive(true)
	mustAdd(t, s, st)

	if err := s.ProcessBuffers(); err != nil {
		t.Fatalf("ProcessBuffers() error = %v", err)
	}

	if len(order) != 2 || order[0] != "hook" || order[1] != "unit" {
		t.Errorf("order = %v, want [hook unit]", order)
	}

	s.SetCallback(nil)
	order = order[:0]
	if err := s.ProcessBuffers(); err != nil {
		t.Fatalf("ProcessBuffers() error = %v", err)
	}
	if len(order) != 1 {
		t.Errorf("order = %v after removing the hook, want [unit]", order)
	}
}

func TestProcessBuffers_HookPanicIsContained(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	s := newBootedServer(t, DefaultConfig(), WithObserver(obs))
	s.SetCallback(func() { panic("hook") })

	st := constStream(s, 1)
	st.Out(0)
	st.SetActive(true)
	mustAdd(t, s, st)

	if err := s.ProcessBuffers(); err != nil {
		t.Fatalf("ProcessBuffers() error = %v", err)
	}

	if obs.hookFaults != 1 {
		t.Errorf("hook faults = %d, want 1", obs.hookFaults)
	}
	if s.OutputBuffer()[0] != 1 {
		t.Error("units must still run after a hook panic")
	}
}

func TestProcessBuffers_HookOverrun(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	cfg := DefaultConfig()
	cfg.BufferSize = 1
	cfg.SamplingRate = 1_000_000
	s := newBootedServer(t, cfg, WithObserver(obs))
	s.SetCallback(func() { time.Sleep(2 * time.Millisecond) })

	if err := s.ProcessBuffers(); err != nil {
		t.Fatalf("ProcessBuffers() error = %v", err)
	}

	if obs.hookOverrun != 1 {
		t.Errorf("hook overruns = %d, want 1", obs.hookOverrun)
	}
}

func TestProcessBuffers_Duration(t *testing.T) {
	t.Parallel()

	s := newBootedServer(t, DefaultConfig())

	var computed, stopped int
	st := s.NewStream(make([]float32, s.BufferSize()), func() error {
		computed++
		return nil
	})
	st.OnStop(func() { stopped++ })
	st.Play(3, 0)
	mustAdd(t, s, st)

	for range 5 {
		if err := s.ProcessBuffers(); err != nil {
			t.Fatalf("ProcessBuffers() error = %v", err)
		}
	}

	if computed != 3 {
		t.Errorf("computed %d blocks, want 3", computed)
	}
	if stopped != 1 {
		t.Errorf("stop hook ran %d times, want 1", stopped)
	}
	if st.IsActive() {
		t.Error("stream still active after its duration")
	}
	if st.Duration() != 0 {
		t.Errorf("Duration() = %d after expiry, want 0", st.Duration())
	}
}

func TestProcessBuffers_DelayedStart(t *testing.T) {
	t.Parallel()

	s := newBootedServer(t, DefaultConfig())

	var computed int
	st := s.NewStream(make([]float32, s.BufferSize()), func() error {
		computed++
		return nil
	})
	st.Play(0, 2)
	mustAdd(t, s, st)

	if st.IsActive() {
		t.Fatal("delayed stream active before its delay")
	}

	for range 2 {
		if err := s.ProcessBuffers(); err != nil {
			t.Fatalf("ProcessBuffers() error = %v", err)
		}
	}
	if computed != 0 {
		t.Errorf("computed %d blocks during the delay, want 0", computed)
	}
	if !st.IsActive() {
		t.Fatal("stream not active once the delay elapsed")
	}

	if err := s.ProcessBuffers(); err != nil {
		t.Fatalf("ProcessBuffers() error = %v", err)
	}
	if computed != 1 {
		t.Errorf("computed %d blocks after the delay, want 1", computed)
	}
}

func TestProcessBuffers_StopCancelsDelay(t *testing.T) {
	t.Parallel()

	s := newBootedServer(t, DefaultConfig())
	st := constStream(s, 1)
	st.Play(0, 1)
	st.Stop()
	mustAdd(t, s, st)

	for range 3 {
		if err := s.ProcessBuffers(); err != nil {
			t.Fatalf("ProcessBuffers() error = %v", err)
		}
	}

	if st.IsActive() {
		t.Error("stopped stream activated itself")
	}
}

func TestProcessBuffers_ElapsedSamples(t *testing.T) {
	t.Parallel()

	s := newBootedServer(t, DefaultConfig())
	for range 4 {
		if err := s.ProcessBuffers(); err != nil {
			t.Fatalf("ProcessBuffers() error = %v", err)
		}
	}

	if got := s.ElapsedSamples(); got != 4*256 {
		t.Errorf("ElapsedSamples() = %d, want %d", got, 4*256)
	}
	frames := float64(4 * 256)
	if got, want := s.ElapsedTime(), time.Duration(frames/44100*float64(time.Second)); got != want {
		t.Errorf("ElapsedTime() = %v, want %v", got, want)
	}
}

func TestProcessBuffers_AdditiveMix(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		cfg := DefaultConfig()
		cfg.BufferSize = rapid.IntRange(1, 64).Draw(rt, "frames")
		cfg.OutChannels = rapid.IntRange(1, 4).Draw(rt, "channels")
		s := newTestServer(cfg)
		if err := s.Boot(true); err != nil {
			rt.Fatalf("Boot() error = %v", err)
		}

		values := rapid.SliceOfN(rapid.Float32Range(-1, 1), 1, 8).Draw(rt, "values")
		routes := make([]int, len(values))
		want := make([]float32, cfg.OutChannels)

		for i, v := range values {
			st := constStream(s, v)
			routes[i] = rapid.IntRange(0, cfg.OutChannels-1).Draw(rt, "route")
			st.Out(routes[i])
			st.SetActive(true)
			if err := s.AddStream(st); err != nil {
				rt.Fatalf("AddStream() error = %v", err)
			}
			want[routes[i]] += v
		}

		if err := s.ProcessBuffers(); err != nil {
			rt.Fatalf("ProcessBuffers() error = %v", err)
		}

		out := s.OutputBuffer()
		for f := range cfg.BufferSize {
			for ch := range cfg.OutChannels {
				if got := out[f*cfg.OutChannels+ch]; got != want[ch] {
					rt.Fatalf("out[%d][%d] = %v, want %v", f, ch, got, want[ch])
				}
			}
		}
	})
}

func TestProcessBuffers_Deterministic(t *testing.T) {
	t.Parallel()

	render := func() []float32 {
		s := newBootedServer(t, DefaultConfig())
		a := rampStream(s, 0.001)
		a.Out(0)
		a.SetActive(true)
		b := rampStream(s, -0.002)
		b.Out(1)
		b.SetActive(true)
		mustAdd(t, s, a, b)

		var all []float32
		for range 3 {
			if err := s.ProcessBuffers(); err != nil {
				t.Fatalf("ProcessBuffers() error = %v", err)
			}
			all = append(all, s.OutputBuffer()...)
		}
		return all
	}

	first, second := render(), render()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("sample %d differs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestProcessBuffers_ConcurrentRegistryChanges(t *testing.T) {
	t.Parallel()

	s := newBootedServer(t, DefaultConfig())

	var wg sync.WaitGroup
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			if err := s.ProcessBuffers(); err != nil {
				t.Errorf("ProcessBuffers() error = %v", err)
				return
			}
		}
	}()

	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				st := constStream(s, 0.1)
				st.Out(0)
				st.SetActive(true)
				if err := s.AddStream(st); err != nil {
					t.Errorf("AddStream() error = %v", err)
					return
				}
				s.RemoveStream(st.ID())
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(done)
	wg.Wait()

	if n := s.StreamCount(); n != 0 {
		t.Errorf("StreamCount() = %d, want 0", n)
	}
}

func BenchmarkProcessBuffers(b *testing.B) {
	s := newBootedServer(b, DefaultConfig())
	for i := range 16 {
		st := rampStream(s, 0.0001)
		st.Out(i)
		st.SetActive(true)
		mustAdd(b, s, st)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for b.Loop() {
		_ = s.ProcessBuffers()
	}
}

func TestProcessBuffers_ZeroAllocs(t *testing.T) {
	s := newBootedServer(t, DefaultConfig())
	st := rampStream(s, 0.001)
	st.Out(0)
	st.SetActive(true)
	mustAdd(t, s, st)

	allocs := testing.AllocsPerRun(100, func() {
		_ = s.ProcessBuffers()
	})

	if allocs > 0 {
		t.Errorf("ProcessBuffers allocated %.0f times per block, want 0", allocs)
	}
}

// processWithin fails the test instead of hanging when a block deadlocks.
func processWithin(t *testing.T, s *Server, d time.Duration) {
	t.Helper()

	errc := make(chan error, 1)
	go func() { errc <- s.ProcessBuffers() }()

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("ProcessBuffers() error = %v", err)
		}
	case <-time.After(d):
		t.Fatal("ProcessBuffers() did not return")
	}
}

func TestProcessBuffers_HookChangesRegistry(t *testing.T) {
	t.Parallel()

	s := newBootedServer(t, DefaultConfig())

	var (
		block int
		voice *Stream
		err   error
	)
	s.SetCallback(func() {
		block++
		switch block {
		case 1:
			voice = constStream(s, 1)
			voice.Out(0)
			voice.SetActive(true)
			err = s.AddStream(voice)
		case 2:
			s.RemoveStream(voice.ID())
		}
	})

	processWithin(t, s, 2*time.Second)
	if err != nil {
		t.Fatalf("AddStream() from the hook error = %v", err)
	}
	if n := s.StreamCount(); n != 1 {
		t.Fatalf("StreamCount() = %d after the block, want 1", n)
	}
	if got := s.OutputBuffer()[0]; got != 0 {
		t.Errorf("a stream added by the hook mixed %v in its first block, want 0", got)
	}

	processWithin(t, s, 2*time.Second)
	if got := s.OutputBuffer()[0]; got != 1 {
		t.Errorf("output = %v in the removal block, want 1", got)
	}
	if n := s.StreamCount(); n != 0 {
		t.Errorf("StreamCount() = %d after removal, want 0", n)
	}

	processWithin(t, s, 2*time.Second)
	if got := s.OutputBuffer()[0]; got != 0 {
		t.Errorf("output = %v after removal, want 0", got)
	}
}

func TestProcessBuffers_ComputeChangesRegistry(t *testing.T) {
	t.Parallel()

	s := newBootedServer(t, DefaultConfig())

	first := constStream(s, 0)
	first.SetActive(true)
	var self *Stream
	self = s.NewStream(make([]float32, s.BufferSize()), func() error {
		if err := s.ChangeStreamPosition(first, self); err != nil {
			return err
		}
		s.RemoveStream(first.ID())
		return nil
	})
	self.SetActive(true)
	mustAdd(t, s, first, self)

	processWithin(t, s, 2*time.Second)

	if got := ids(s.Streams()); len(got) != 1 || got[0] != self.ID() {
		t.Errorf("registry = %v, want [%d]", got, self.ID())
	}
}

func TestProcessBuffers_HookLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("shutdown", func(t *testing.T) {
		s := newBootedServer(t, DefaultConfig())
		mustAdd(t, s, constStream(s, 1))

		var bootErr, shutdownErr error
		s.SetCallback(func() {
			bootErr = s.Boot(false)
			shutdownErr = s.Shutdown()
		})

		processWithin(t, s, 2*time.Second)

		if !errors.Is(bootErr, ErrAlreadyBooted) {
			t.Errorf("Boot() from the hook error = %v, want ErrAlreadyBooted", bootErr)
		}
		if shutdownErr != nil {
			t.Errorf("Shutdown() from the hook error = %v", shutdownErr)
		}
		if s.IsBooted() || s.StreamCount() != 0 {
			t.Error("Shutdown() from the hook must take effect when the block ends")
		}
	})

	t.Run("close", func(t *testing.T) {
		table := NewTable()
		s, err := table.NewServer(DefaultConfig(), WithLogger(zap.NewNop()))
		if err != nil {
			t.Fatalf("NewServer() error = %v", err)
		}
		if err := s.Boot(true); err != nil {
			t.Fatalf("Boot() error = %v", err)
		}
		s.SetCallback(func() { _ = s.Close() })

		processWithin(t, s, 2*time.Second)

		if !s.isClosed() {
			t.Error("Close() from the hook must take effect when the block ends")
		}
		if _, ok := table.Get(s.ID()); ok {
			t.Error("Close() from the hook must free the slot")
		}
	})
}
