package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
)

// ClientStore implementa repository.ClientRepository.
type ClientStore struct {
	mu      sync.RWMutex
	clients map[string]repository.Client
}

var _ repository.ClientRepository = (*ClientStore)(nil)

// NewClientStore crea un store con los clientes dados.
func NewClientStore(clients ...repository.Client) *ClientStore {
	s := &ClientStore{clients: make(map[string]repository.Client, len(clients))}
	for _, c := range clients {
		s.clients[c.ClientID] = c.Clone()
	}
	return s
}

func (s *ClientStore) LoadClient(ctx context.Context, clientID string) (*repository.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clients[clientID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := c.Clone()
	return &cp, nil
}

func (s *ClientStore) Upsert(ctx context.Context, client *repository.Client) error {
	if client == nil || client.ClientID == "" {
		return repository.ErrInvalidInput
	}
	s.mu.Lock()
	s.clients[client.ClientID] = client.Clone()
	s.mu.Unlock()
	return nil
}

func (s *ClientStore) List(ctx context.Context) ([]repository.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]repository.Client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out, nil
}
