package memory

import (
	"context"
	"sync"

	"villabook/internal/app/services/auth"
	domainuser "villabook/internal/domain/user"
)

type UserRepository struct {
	mu    sync.RWMutex
	items map[domainuser.ID]*domainuser.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{items: make(map[domainuser.ID]*domainuser.User)}
}

func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.items[id]
	if !ok {
		return nil, domainuser.ErrNotFound
	}
	return u, nil
}

func (r *UserRepository) ByLineID(ctx context.Context, lineID string) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.items {
		if u.LineID == lineID {
			return u, nil
		}
	}
	return nil, domainuser.ErrNotFound
}

func (r *UserRepository) Save(ctx context.Context, u *domainuser.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[u.ID] = u
	return nil
}

var _ domainuser.Repository = (*UserRepository)(nil)

// SessionStore keeps admin sessions in process memory. Sessions do not
// survive a restart, which matches how the admin console is used.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]auth.AdminSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]auth.AdminSession)}
}

func (s *SessionStore) Save(ctx context.Context, session auth.AdminSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = session
	return nil
}

func (s *SessionStore) Get(ctx context.Context, token string) (auth.AdminSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[token]
	if !ok {
		return auth.AdminSession{}, auth.ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

var _ auth.SessionStore = (*SessionStore)(nil)
