package cachestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/cache"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/authorize"
)

const sessionPrefix = "oauth2:authz-session:"

// DefaultSessionTTL acota cuánto puede esperar un request pendiente de aprobación.
const DefaultSessionTTL = 15 * time.Minute

// SessionStore implementa authorize.SessionStore serializando en JSON.
type SessionStore struct {
	c   cache.Client
	ttl time.Duration
}

var _ authorize.SessionStore = (*SessionStore)(nil)

func NewSessionStore(c cache.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{c: c, ttl: ttl}
}

func (s *SessionStore) Load(ctx context.Context, sessionID string) (*authorize.Session, error) {
	if sessionID == "" {
		return nil, nil
	}
	raw, err := s.c.Get(ctx, sessionPrefix+sessionID)
	if err != nil {
		if cache.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var sess authorize.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *SessionStore) Save(ctx context.Context, sessionID string, sess *authorize.Session) error {
	if sessionID == "" {
		return fmt.Errorf("save session: empty session id")
	}
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.c.Set(ctx, sessionPrefix+sessionID, string(b), s.ttl)
}

func (s *SessionStore) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.c.Delete(ctx, sessionPrefix+sessionID)
}
