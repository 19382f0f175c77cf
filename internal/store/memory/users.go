package memory

import (
	"context"
	"sync"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
)

// UserStore implementa repository.UserRepository.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]repository.User
}

var _ repository.UserRepository = (*UserStore)(nil)

func NewUserStore(users ...repository.User) *UserStore {
	s := &UserStore{users: make(map[string]repository.User, len(users))}
	for _, u := range users {
		s.users[u.Username] = u
	}
	return s
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*repository.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *UserStore) Upsert(ctx context.Context, user *repository.User) error {
	if user == nil || user.Username == "" {
		return repository.ErrInvalidInput
	}
	s.mu.Lock()
	s.users[user.Username] = *user
	s.mu.Unlock()
	return nil
}
