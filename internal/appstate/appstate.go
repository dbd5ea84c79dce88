// Package appstate holds the authenticated profile of a client process.
// It is populated on login and cleared on logout or when the backend
// answers 401.
package appstate

import "sync"

type Profile struct {
	UserID   uint
	TenantID uint
	BranchID *uint
	Name     string
	Email    string
	Role     string
}

type Store struct {
	mu      sync.RWMutex
	token   string
	profile *Profile
	hooks   []func()
}

func New() *Store {
	return &Store{}
}

// Init replaces the current session with token and profile.
func (s *Store) Init(token string, p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	s.profile = &p
}

// Current returns a copy of the profile and whether a session exists.
func (s *Store) Current() (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.profile == nil {
		return Profile{}, false
	}
	return *s.profile, true
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// OnTeardown registers fn to run every time an active session is torn down.
func (s *Store) OnTeardown(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Teardown clears the session. Hooks run outside the lock and only when
// there was a session to clear, so repeated 401s fire them once.
func (s *Store) Teardown() {
	s.mu.Lock()
	if s.token == "" && s.profile == nil {
		s.mu.Unlock()
		return
	}
	s.token = ""
	s.profile = nil
	hooks := append([]func(){}, s.hooks...)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}
