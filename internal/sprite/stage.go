package sprite

import "sync"

// Stage owns the single sprite state. The engine writes through Apply and
// Reset; renderers read through Snapshot or register an observer.
type Stage struct {
	mu        sync.RWMutex
	state     State
	observers []func(State)
}

// NewStage returns a stage holding the default state.
func NewStage() *Stage {
	return &Stage{state: Default()}
}

// Snapshot returns the current state.
func (s *Stage) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Apply replaces the state with fn(previous) and returns the new state.
func (s *Stage) Apply(fn func(State) State) State {
	s.mu.Lock()
	next := fn(s.state)
	s.state = next
	observers := s.observers
	s.mu.Unlock()

	notify(observers, next)
	return next
}

// Reset restores the default state.
func (s *Stage) Reset() State {
	return s.Apply(func(State) State { return Default() })
}

// Observe registers fn to be called with every new state. Observers run on
// the writer's goroutine and must not call back into the stage.
func (s *Stage) Observe(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(append([]func(State){}, s.observers...), fn)
}

func notify(observers []func(State), st State) {
	for _, fn := range observers {
		fn(st)
	}
}
