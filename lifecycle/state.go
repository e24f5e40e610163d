package lifecycle

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/enginecore/errors"
)

// State holds the engine's run phase and telemetry counters.
// All methods are safe for concurrent use and never block.
type State struct {
	start    time.Time
	runID    uuid.UUID
	log      *zap.Logger
	phase    atomic.Int32
	ticks    atomic.Uint64
	frames   atomic.Uint64
	entities atomic.Uint64
	chunks   atomic.Uint64
}

// Snapshot is a field-by-field read of a State. Fields are loaded one at a
// time, so a Snapshot is not a consistent cut.
type Snapshot struct {
	RunID    string
	Phase    Phase
	Uptime   time.Duration
	Ticks    uint64
	Frames   uint64
	Entities uint64
	Chunks   uint64
}

// NewState creates a State in the Uninitialized phase with zeroed counters.
func NewState() *State {
	s := &State{
		start: time.Now(),
		runID: uuid.New(),
	}
	s.log = Logger().With(zap.String("run", s.runID.String()))
	return s
}

// RunID identifies this engine run in logs.
func (s *State) RunID() string {
	return s.runID.String()
}

// Phase returns the last stored phase.
func (s *State) Phase() Phase {
	return PhaseFromInt(s.phase.Load())
}

// SetPhase stores p without checking the transition table.
func (s *State) SetPhase(p Phase) {
	prev := PhaseFromInt(s.phase.Swap(int32(p)))
	if prev != p {
		s.log.Debug("phase set", zap.Stringer("from", prev), zap.Stringer("to", p))
	}
}

// Transition moves to p only if the move is legal from the current phase.
// A concurrent writer that lands first makes the call re-evaluate against
// the new phase.
func (s *State) Transition(p Phase) error {
	for {
		cur := s.phase.Load()
		from := PhaseFromInt(cur)
		if !CanTransition(from, p) {
			return errors.InvalidTransition(from, p)
		}
		if s.phase.CompareAndSwap(cur, int32(p)) {
			s.log.Debug("phase transition", zap.Stringer("from", from), zap.Stringer("to", p))
			return nil
		}
	}
}

// AdvanceTick increments the tick counter, wrapping on overflow.
func (s *State) AdvanceTick() {
	s.ticks.Add(1)
}

// AdvanceFrame increments the frame counter, wrapping on overflow.
func (s *State) AdvanceFrame() {
	s.frames.Add(1)
}

// RecordEntitySpawn counts one more live entity.
func (s *State) RecordEntitySpawn() {
	s.entities.Add(1)
}

// RecordEntityDespawn counts one fewer live entity.
func (s *State) RecordEntityDespawn() {
	if !decrement(&s.entities) {
		s.log.Warn("entity despawn without matching spawn")
	}
}

// RecordChunkLoad counts one more loaded chunk.
func (s *State) RecordChunkLoad() {
	s.chunks.Add(1)
}

// RecordChunkUnload counts one fewer loaded chunk.
func (s *State) RecordChunkUnload() {
	if !decrement(&s.chunks) {
		s.log.Warn("chunk unload without matching load")
	}
}

func (s *State) Ticks() uint64    { return s.ticks.Load() }
func (s *State) Frames() uint64   { return s.frames.Load() }
func (s *State) Entities() uint64 { return s.entities.Load() }
func (s *State) Chunks() uint64   { return s.chunks.Load() }

// StartedAt returns the construction time.
func (s *State) StartedAt() time.Time {
	return s.start
}

// Uptime returns the time elapsed since construction on the monotonic clock.
func (s *State) Uptime() time.Duration {
	return time.Since(s.start)
}

// Snapshot reads every field once.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		RunID:    s.runID.String(),
		Phase:    s.Phase(),
		Uptime:   s.Uptime(),
		Ticks:    s.ticks.Load(),
		Frames:   s.frames.Load(),
		Entities: s.entities.Load(),
		Chunks:   s.chunks.Load(),
	}
}

// decrement subtracts one unless the counter is already zero.
func decrement(c *atomic.Uint64) bool {
	for {
		v := c.Load()
		if v == 0 {
			return false
		}
		if c.CompareAndSwap(v, v-1) {
			return true
		}
	}
}
