package core

import "sync"

// AppState regroups the state shared between views.
// The state is created once and passed explicitly to components needing it.
type AppState struct {
	mu        sync.RWMutex
	focusMode bool
}

func NewAppState() *AppState {
	return &AppState{}
}

// FocusMode returns if distractions (navigation, side panels) must be hidden.
func (s *AppState) FocusMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.focusMode
}

func (s *AppState) SetFocusMode(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focusMode = enabled
}

// ToggleFocusMode switches the focus mode and returns the new value.
func (s *AppState) ToggleFocusMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focusMode = !s.focusMode
	return s.focusMode
}
