package voice

import "sync"

// Slot holds at most one live resource, identified by a token. Replacing the
// resource tears the old one down before the new one is acquired, under a
// single lock, so two resources are never live at once.
type Slot struct {
	mu       sync.Mutex
	token    uint64
	teardown func()
}

// Replace tears down the current resource, then calls acquire. On success the
// returned teardown is held and a fresh token is returned.
func (s *Slot) Replace(acquire func() (func(), error)) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.teardown != nil {
		s.teardown()
		s.teardown = nil
	}

	teardown, err := acquire()
	if err != nil {
		return 0, err
	}
	s.token++
	s.teardown = teardown
	return s.token, nil
}

// Release empties the slot without teardown if token is still current.
// It reports whether the slot was released.
func (s *Slot) Release(token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.teardown == nil || token != s.token {
		return false
	}
	s.teardown = nil
	return true
}

// Clear tears down and empties the slot. It reports whether anything was held.
func (s *Slot) Clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.teardown == nil {
		return false
	}
	s.teardown()
	s.teardown = nil
	return true
}

// Holds reports whether token is the live resource.
func (s *Slot) Holds(token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.teardown != nil && token == s.token
}

// Occupied reports whether the slot holds a resource.
func (s *Slot) Occupied() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.teardown != nil
}
