package lifecycle

// transitions lists the legal successors of each phase. Error is appended
// to every row by CanTransition.
var transitions = map[Phase][]Phase{
	Uninitialized: {Initializing},
	Initializing:  {Ready},
	Ready:         {Running, Stopping},
	Running:       {Paused, Stopping},
	Paused:        {Running, Stopping},
	Stopping:      {Stopped},
	Stopped:       nil,
	Error:         nil,
}

// CanTransition reports whether from -> to is a legal move.
// Self-transitions are never legal.
func CanTransition(from, to Phase) bool {
	if !from.Valid() || !to.Valid() || from == to {
		return false
	}
	if to == Error {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Successors returns the phases reachable from p in one step.
func Successors(p Phase) []Phase {
	if !p.Valid() {
		return nil
	}
	out := append([]Phase(nil), transitions[p]...)
	if p != Error {
		out = append(out, Error)
	}
	return out
}
