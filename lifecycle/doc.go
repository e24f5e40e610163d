// Package lifecycle tracks the engine's coarse run phase and its telemetry
// counters.
//
// A State is shared by pointer between every goroutine that needs it (render,
// simulation, host call handlers). Every field is an independent atomic: there
// is no cross-field atomicity, so two separate reads may observe a
// combination that never existed at a single instant. Consumers treat the
// phase and each counter as independent signals.
//
// # Phases
//
//	Uninitialized -> Initializing -> Ready -> Running <-> Paused -> Stopping -> Stopped
//
// Error is reachable from any phase. SetPhase stores unconditionally, leaving
// legality to callers. Transition enforces the table above:
//
//	st := lifecycle.NewState()
//	st.SetPhase(lifecycle.Stopped)               // always succeeds
//	err := st.Transition(lifecycle.Running)      // rejected: stopped -> running
//
// # Counters
//
// Ticks and frames only grow and wrap on overflow. Entity and chunk counts
// move both ways; a decrement at zero is a caller bug and saturates at zero
// with a logged warning rather than wrapping.
package lifecycle
