package lifecycle

import "strings"

// Phase is the coarse run state of the engine.
type Phase int32

const (
	Uninitialized Phase = iota
	Initializing
	Ready
	Running
	Paused
	Stopping
	Stopped
	Error
)

var phaseNames = [...]string{
	Uninitialized: "uninitialized",
	Initializing:  "initializing",
	Ready:         "ready",
	Running:       "running",
	Paused:        "paused",
	Stopping:      "stopping",
	Stopped:       "stopped",
	Error:         "error",
}

// PhaseFromInt decodes a stored integer. Unknown values map to Error.
func PhaseFromInt(v int32) Phase {
	p := Phase(v)
	if !p.Valid() {
		return Error
	}
	return p
}

// ParsePhase looks a phase up by its lowercase name.
func ParsePhase(s string) (Phase, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range phaseNames {
		if name == s {
			return Phase(i), true
		}
	}
	return Error, false
}

// Valid reports whether p is one of the defined phases.
func (p Phase) Valid() bool {
	return p >= Uninitialized && p <= Error
}

func (p Phase) String() string {
	if !p.Valid() {
		return "error"
	}
	return phaseNames[p]
}

// Active reports whether the engine is running or paused.
func (p Phase) Active() bool {
	return p == Running || p == Paused
}

// Terminal reports whether only an external restart can leave p.
func (p Phase) Terminal() bool {
	return p == Stopped || p == Error
}
