package memory

import (
	"context"
	"sync"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
)

// ScopeStore implementa repository.ScopeRepository.
type ScopeStore struct {
	mu     sync.RWMutex
	scopes map[string]repository.Scope
}

var _ repository.ScopeRepository = (*ScopeStore)(nil)

func NewScopeStore(scopes ...repository.Scope) *ScopeStore {
	s := &ScopeStore{scopes: make(map[string]repository.Scope, len(scopes))}
	for _, sc := range scopes {
		s.scopes[sc.ID] = sc
	}
	return s
}

// LoadByIDs respeta el orden de ids y omite los desconocidos.
func (s *ScopeStore) LoadByIDs(ctx context.Context, ids []string) ([]repository.Scope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]repository.Scope, 0, len(ids))
	for _, id := range ids {
		if sc, ok := s.scopes[id]; ok {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (s *ScopeStore) Upsert(ctx context.Context, scope repository.Scope) error {
	if scope.ID == "" {
		return repository.ErrInvalidInput
	}
	s.mu.Lock()
	s.scopes[scope.ID] = scope
	s.mu.Unlock()
	return nil
}
