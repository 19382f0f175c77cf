// Package cachestore implementa stores efímeros sobre cache.Client
// (memory o redis): authorization codes y sesiones del authorize endpoint.
package cachestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/cache"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/types"
)

const codePrefix = "oauth2:code:"

// CodeStore implementa repository.AuthorizationCodeStore. Consume usa
// cache.Client.Take (GETDEL en redis).
type CodeStore struct {
	c cache.Client
}

var _ repository.AuthorizationCodeStore = (*CodeStore)(nil)

func NewCodeStore(c cache.Client) *CodeStore {
	return &CodeStore{c: c}
}

type codeRecord struct {
	ClientID    string         `json:"client_id"`
	Username    string         `json:"username"`
	Scopes      types.ScopeSet `json:"scope"`
	RedirectURI string         `json:"redirect_uri"`
	State       string         `json:"state,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	ExpiresAt   time.Time      `json:"expires_at"`
}

func (s *CodeStore) Save(ctx context.Context, code *repository.AuthorizationCode) error {
	b, err := json.Marshal(codeRecord{
		ClientID:    code.ClientID,
		Username:    code.Username,
		Scopes:      code.Scopes,
		RedirectURI: code.RedirectURI,
		State:       code.State,
		CreatedAt:   code.CreatedAt,
		ExpiresAt:   code.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("encode code: %w", err)
	}

	// TTL relativo a CreatedAt: no depende del reloj de pared.
	var ttl time.Duration
	if !code.ExpiresAt.IsZero() {
		ttl = code.ExpiresAt.Sub(code.CreatedAt)
	}
	ok, err := s.c.SetNX(ctx, codePrefix+code.Code, string(b), ttl)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrConflict
	}
	return nil
}

func (s *CodeStore) Consume(ctx context.Context, code string) (*repository.AuthorizationCode, error) {
	raw, err := s.c.Take(ctx, codePrefix+code)
	if err != nil {
		if cache.IsNotFound(err) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	var rec codeRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode code: %w", err)
	}
	return &repository.AuthorizationCode{
		Code:        code,
		ClientID:    rec.ClientID,
		Username:    rec.Username,
		Scopes:      rec.Scopes,
		RedirectURI: rec.RedirectURI,
		State:       rec.State,
		CreatedAt:   rec.CreatedAt,
		ExpiresAt:   rec.ExpiresAt,
	}, nil
}
