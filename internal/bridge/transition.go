package bridge

import "sync"

// CutTransition is the transition name OBS uses for instant switches.
const CutTransition = "Cut"

// TransitionState caches the name of the active OBS transition.
//
// With a Cut, OBS only emits SwitchScenes. Every other transition emits
// TransitionBegin first, so the cached name decides which event fires a cue.
type TransitionState struct {
	mu      sync.RWMutex
	current string
}

// NewTransitionState creates an empty cache. Current returns "" until Set.
func NewTransitionState() *TransitionState {
	return &TransitionState{}
}

// Set records the active transition.
func (s *TransitionState) Set(name string) {
	s.mu.Lock()
	s.current = name
	s.mu.Unlock()
}

// Current returns the last recorded transition name.
func (s *TransitionState) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// IsCut reports whether the active transition is a Cut.
func (s *TransitionState) IsCut() bool {
	return s.Current() == CutTransition
}
