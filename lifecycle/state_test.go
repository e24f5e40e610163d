package lifecycle

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	coreerrors "github.com/wippyai/enginecore/errors"
)

func TestState_Initial(t *testing.T) {
	s := NewState()

	if s.Phase() != Uninitialized {
		t.Errorf("Phase() = %v, want uninitialized", s.Phase())
	}
	if s.Ticks() != 0 || s.Frames() != 0 || s.Entities() != 0 || s.Chunks() != 0 {
		t.Error("counters should start at zero")
	}
	if s.RunID() == "" {
		t.Error("RunID should be set")
	}
}

func TestState_SetPhase(t *testing.T) {
	s := NewState()

	s.SetPhase(Running)
	if s.Phase() != Running {
		t.Errorf("Phase() = %v, want running", s.Phase())
	}

	// SetPhase does not consult the table.
	s.SetPhase(Uninitialized)
	if s.Phase() != Uninitialized {
		t.Errorf("Phase() = %v, want uninitialized", s.Phase())
	}
}

func TestState_CorruptPhaseDecodesAsError(t *testing.T) {
	s := NewState()
	s.phase.Store(1234)
	if s.Phase() != Error {
		t.Errorf("Phase() = %v, want error", s.Phase())
	}
}

func TestState_Transition(t *testing.T) {
	s := NewState()

	for _, p := range []Phase{Initializing, Ready, Running, Paused, Running, Stopping, Stopped} {
		if err := s.Transition(p); err != nil {
			t.Fatalf("Transition(%v): %v", p, err)
		}
	}

	err := s.Transition(Running)
	if err == nil {
		t.Fatal("stopped -> running should be rejected")
	}
	target := &coreerrors.Error{Phase: coreerrors.PhaseLifecycle, Kind: coreerrors.KindInvalidTransition}
	if !errors.Is(err, target) {
		t.Errorf("err = %v, want invalid transition", err)
	}
	if s.Phase() != Stopped {
		t.Errorf("rejected transition changed phase to %v", s.Phase())
	}

	if err := s.Transition(Error); err != nil {
		t.Errorf("stopped -> error: %v", err)
	}
}

func TestState_ConcurrentTransitionSingleWinner(t *testing.T) {
	s := NewState()
	s.SetPhase(Ready)

	const n = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Transition(Running) == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("wins = %d, want exactly 1", wins)
	}
}

func TestState_AdvanceTickConcurrent(t *testing.T) {
	s := NewState()
	before := s.Ticks()

	const goroutines = 16
	const perGoroutine = 1000
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				s.AdvanceTick()
				s.AdvanceFrame()
			}
		}()
	}
	wg.Wait()

	if got := s.Ticks() - before; got != goroutines*perGoroutine {
		t.Errorf("ticks advanced by %d, want %d", got, goroutines*perGoroutine)
	}
	if s.Frames() != goroutines*perGoroutine {
		t.Errorf("frames = %d, want %d", s.Frames(), goroutines*perGoroutine)
	}
}

func TestState_CountersWrap(t *testing.T) {
	s := NewState()
	s.ticks.Store(math.MaxUint64)
	s.frames.Store(math.MaxUint64)

	s.AdvanceTick()
	s.AdvanceFrame()

	if s.Ticks() != 0 || s.Frames() != 0 {
		t.Errorf("ticks=%d frames=%d, want wrap to 0", s.Ticks(), s.Frames())
	}
}

func TestState_EntityAndChunkCounts(t *testing.T) {
	s := NewState()

	for i := 0; i < 5; i++ {
		s.RecordEntitySpawn()
		s.RecordChunkLoad()
	}
	for i := 0; i < 3; i++ {
		s.RecordEntityDespawn()
		s.RecordChunkUnload()
	}

	if s.Entities() != 2 {
		t.Errorf("Entities() = %d, want 2", s.Entities())
	}
	if s.Chunks() != 2 {
		t.Errorf("Chunks() = %d, want 2", s.Chunks())
	}
}

func TestState_DecrementSaturates(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	prev := Logger()
	SetLogger(zap.New(core))
	defer SetLogger(prev)

	s := NewState()
	s.RecordEntityDespawn()
	s.RecordChunkUnload()

	if s.Entities() != 0 || s.Chunks() != 0 {
		t.Errorf("entities=%d chunks=%d, want 0", s.Entities(), s.Chunks())
	}
	if logs.Len() != 2 {
		t.Errorf("got %d warnings, want 2", logs.Len())
	}
}

func TestState_Uptime(t *testing.T) {
	s := NewState()
	time.Sleep(5 * time.Millisecond)

	up := s.Uptime()
	if up < 5*time.Millisecond {
		t.Errorf("Uptime() = %v, want >= 5ms", up)
	}
	if s.Uptime() < up {
		t.Error("Uptime should not go backwards")
	}
}

func TestState_Snapshot(t *testing.T) {
	s := NewState()
	s.SetPhase(Paused)
	s.AdvanceTick()
	s.RecordChunkLoad()

	snap := s.Snapshot()
	if snap.Phase != Paused || snap.Ticks != 1 || snap.Chunks != 1 {
		t.Errorf("Snapshot() = %+v", snap)
	}
	if snap.RunID != s.RunID() {
		t.Errorf("RunID = %q, want %q", snap.RunID, s.RunID())
	}
}
