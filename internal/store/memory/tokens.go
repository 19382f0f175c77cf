// Package memory implementa los repositorios en memoria del proceso.
// Sirve para desarrollo, tests y despliegues single-node.
package memory

import (
	"context"
	"sync"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
)

// TokenStore implementa repository.TokenStore con maps indexados por id,
// por par (client, username) y por refresh id.
type TokenStore struct {
	mu        sync.RWMutex
	byID      map[string]*repository.AccessToken
	byPair    map[string]string // pairKey → access id
	byRefresh map[string]string // refresh id → access id

	locks keyedMutex
}

var _ repository.TokenStore = (*TokenStore)(nil)

// NewTokenStore crea un store vacío.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		byID:      make(map[string]*repository.AccessToken),
		byPair:    make(map[string]string),
		byRefresh: make(map[string]string),
	}
}

func pairKey(clientID, username string) string {
	return clientID + "\x00" + username
}

func (s *TokenStore) Save(ctx context.Context, token *repository.AccessToken) error {
	if token == nil || token.ID == "" {
		return repository.ErrInvalidInput
	}
	cp := token.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.byPair[pairKey(cp.ClientID, cp.Username)]; ok {
		s.deleteLocked(prev)
	}
	s.deleteLocked(cp.ID)

	s.byID[cp.ID] = cp
	s.byPair[pairKey(cp.ClientID, cp.Username)] = cp.ID
	if cp.RefreshToken != nil {
		s.byRefresh[cp.RefreshToken.ID] = cp.ID
	}
	return nil
}

func (s *TokenStore) FindByID(ctx context.Context, id string) (*repository.AccessToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t.Clone(), nil
}

func (s *TokenStore) FindByClientAndUsername(ctx context.Context, clientID, username string) (*repository.AccessToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byPair[pairKey(clientID, username)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *TokenStore) FindRefresh(ctx context.Context, refreshID string) (*repository.AccessToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byRefresh[refreshID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *TokenStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return repository.ErrNotFound
	}
	s.deleteLocked(id)
	return nil
}

func (s *TokenStore) DeleteRefresh(ctx context.Context, refreshID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byRefresh[refreshID]
	if !ok {
		return repository.ErrNotFound
	}
	s.deleteLocked(id)
	return nil
}

// WithPrincipalLock serializa fn por par (client, username).
func (s *TokenStore) WithPrincipalLock(ctx context.Context, clientID, username string, fn func(ctx context.Context, tx repository.TokenStore) error) error {
	unlock := s.locks.lock(pairKey(clientID, username))
	defer unlock()
	return fn(ctx, s)
}

// Len retorna la cantidad de access tokens.
func (s *TokenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func (s *TokenStore) deleteLocked(id string) {
	t, ok := s.byID[id]
	if !ok {
		return
	}
	delete(s.byID, id)
	if cur := s.byPair[pairKey(t.ClientID, t.Username)]; cur == id {
		delete(s.byPair, pairKey(t.ClientID, t.Username))
	}
	if t.RefreshToken != nil {
		delete(s.byRefresh, t.RefreshToken.ID)
	}
}

