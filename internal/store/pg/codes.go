package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/types"
)

// CodeStore implementa repository.AuthorizationCodeStore.
type CodeStore struct{ db dbtx }

var _ repository.AuthorizationCodeStore = (*CodeStore)(nil)

func (s *CodeStore) Save(ctx context.Context, c *repository.AuthorizationCode) error {
	if c == nil || c.Code == "" {
		return repository.ErrInvalidInput
	}
	var expires *time.Time
	if !c.ExpiresAt.IsZero() {
		expires = &c.ExpiresAt
	}
	const q = `
		INSERT INTO oauth_authorization_codes
			(code, client_id, username, scopes, redirect_uri, state, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (code) DO NOTHING`
	tag, err := s.db.Exec(ctx, q, c.Code, c.ClientID, c.Username, c.Scopes.Slice(),
		c.RedirectURI, c.State, c.CreatedAt, expires)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrConflict
	}
	return nil
}

// Consume usa DELETE ... RETURNING: de dos llamadas concurrentes solo una
// recibe la fila.
func (s *CodeStore) Consume(ctx context.Context, code string) (*repository.AuthorizationCode, error) {
	const q = `
		DELETE FROM oauth_authorization_codes WHERE code = $1
		RETURNING code, client_id, username, scopes, redirect_uri, state, created_at, expires_at`
	var (
		c       repository.AuthorizationCode
		scopes  []string
		expires *time.Time
	)
	err := s.db.QueryRow(ctx, q, code).Scan(&c.Code, &c.ClientID, &c.Username, &scopes,
		&c.RedirectURI, &c.State, &c.CreatedAt, &expires)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	c.Scopes = types.NewScopeSet(scopes...)
	if expires != nil {
		c.ExpiresAt = *expires
	}
	return &c, nil
}

// PurgeExpired borra códigos vencidos nunca canjeados.
func (s *CodeStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM oauth_authorization_codes WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
