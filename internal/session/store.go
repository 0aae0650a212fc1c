// Package session holds the signed-in user's tokens and profile.
//
// A *Store is created once per process and handed to the vendor client and
// the application service; there is no package-level session.
package session

import (
	"context"
	"sync"

	"github.com/okian/skinlens/internal/domain/model"
	"github.com/okian/skinlens/pkg/logger"
)

// Listener receives a snapshot after every change.
type Listener func(model.Session)

// Store is a mutex-guarded session with change notification.
type Store struct {
	mu        sync.RWMutex
	state     model.Session
	listeners map[int]Listener
	nextID    int

	persister Persister
}

// Option configures a Store.
type Option func(*Store)

// WithPersister saves every change through p.
func WithPersister(p Persister) Option {
	return func(s *Store) {
		if p != nil {
			s.persister = p
		}
	}
}

// NewStore creates an empty session store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		listeners: make(map[int]Listener),
		persister: NopPersister{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads the persisted session, if any, without notifying listeners.
func (s *Store) Restore(ctx context.Context) error {
	state, err := s.persister.Load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.state = clone(state)
	s.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.state)
}

// User returns the signed-in user, or nil.
func (s *Store) User() *model.User { return s.Snapshot().User }

// Profile returns the loaded profile, or nil.
func (s *Store) Profile() *model.Profile { return s.Snapshot().Profile }

// AccessToken returns the current bearer token.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AccessToken
}

// RefreshToken returns the current refresh token.
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.RefreshToken
}

// SignedIn reports whether an access token is held.
func (s *Store) SignedIn() bool { return s.AccessToken() != "" }

// SetUser replaces the signed-in user.
func (s *Store) SetUser(ctx context.Context, u *model.User) {
	s.update(ctx, func(st *model.Session) { st.User = u })
}

// SetTokens replaces both tokens.
func (s *Store) SetTokens(ctx context.Context, access, refresh string) {
	s.update(ctx, func(st *model.Session) {
		st.AccessToken = access
		st.RefreshToken = refresh
	})
}

// SetProfile replaces the loaded profile.
func (s *Store) SetProfile(ctx context.Context, p *model.Profile) {
	s.update(ctx, func(st *model.Session) { st.Profile = p })
}

// SignIn sets user and tokens in one change.
func (s *Store) SignIn(ctx context.Context, u *model.User, access, refresh string) {
	s.update(ctx, func(st *model.Session) {
		st.User = u
		st.AccessToken = access
		st.RefreshToken = refresh
	})
}

// Logout clears every field and removes the persisted copy.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.state = model.Session{}
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	if err := s.persister.Clear(ctx); err != nil {
		logger.Get().Warn(ctx, "failed to clear persisted session", logger.Error(err))
	}
	for _, l := range listeners {
		l(model.Session{})
	}
}

// Subscribe registers l for change notifications and returns a func that
// removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) update(ctx context.Context, mutate func(*model.Session)) {
	s.mu.Lock()
	mutate(&s.state)
	snap := clone(s.state)
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	if err := s.persister.Save(ctx, snap); err != nil {
		logger.Get().Warn(ctx, "failed to persist session", logger.Error(err))
	}
	for _, l := range listeners {
		l(clone(snap))
	}
}

// snapshotListeners must be called with s.mu held. Listeners run outside the
// lock so they may read the store.
func (s *Store) snapshotListeners() []Listener {
	out := make([]Listener, 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if l, ok := s.listeners[id]; ok {
			out = append(out, l)
		}
	}
	return out
}

func clone(in model.Session) model.Session {
	out := in
	if in.User != nil {
		u := *in.User
		out.User = &u
	}
	if in.Profile != nil {
		p := *in.Profile
		p.Concerns = append([]string(nil), in.Profile.Concerns...)
		out.Profile = &p
	}
	return out
}
