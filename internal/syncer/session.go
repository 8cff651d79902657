package syncer

import (
	"context"
	"strings"
	"sync"
)

// User identifies the signed-in reviewer. Checklists in the remote
// store are scoped to the user ID.
type User struct {
	ID    string
	Email string
}

// Session abstracts the auth provider. CurrentUser reports the
// signed-in user if any; OnChange registers a listener for sign-in
// and sign-out transitions and returns an unsubscribe func.
type Session interface {
	CurrentUser(ctx context.Context) (User, bool, error)
	OnChange(fn func(user User, signedIn bool)) (unsubscribe func())
	SignOut(ctx context.Context) error
}

// StaticSession is a Session backed by in-process state. It serves
// single-operator deployments where the identity comes from config
// rather than an interactive sign-in, and doubles as the test double
// for auth transitions.
type StaticSession struct {
	mu        sync.Mutex
	user      User
	signedIn  bool
	listeners map[int]func(User, bool)
	nextID    int
}

func NewStaticSession(user User) *StaticSession {
	s := &StaticSession{listeners: map[int]func(User, bool){}}
	if strings.TrimSpace(user.ID) != "" {
		s.user = user
		s.signedIn = true
	}
	return s
}

func (s *StaticSession) CurrentUser(ctx context.Context) (User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user, s.signedIn, nil
}

func (s *StaticSession) OnChange(fn func(user User, signedIn bool)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *StaticSession) SignIn(user User) {
	s.mu.Lock()
	s.user = user
	s.signedIn = true
	listeners := s.snapshotListeners()
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(user, true)
	}
}

func (s *StaticSession) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.user = User{}
	s.signedIn = false
	listeners := s.snapshotListeners()
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(User{}, false)
	}
	return nil
}

func (s *StaticSession) snapshotListeners() []func(User, bool) {
	out := make([]func(User, bool), 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}
