package engine

import "time"

// NewState returns an empty warning table with the given grace window.
// A non-positive window falls back to DefaultWindow.
func NewState(window time.Duration) State {
	if window <= 0 {
		window = DefaultWindow
	}
	return State{
		Window:   window,
		Warnings: map[string]Warning{},
	}
}

// ActiveWarning reports the warning currently held for id, if any.
func (s State) ActiveWarning(id string) (Warning, bool) {
	w, ok := s.Warnings[id]
	return w, ok
}

// CopyWarnings returns a snapshot of the warning table safe to hand to
// other goroutines.
func (s State) CopyWarnings() map[string]Warning {
	out := make(map[string]Warning, len(s.Warnings))
	for id, w := range s.Warnings {
		out[id] = w
	}
	return out
}

// ContainsAction reports whether actions holds at least one action of the
// given type.
func ContainsAction(actions []Action, t ActionType) bool {
	for _, a := range actions {
		if a.Type == t {
			return true
		}
	}
	return false
}
