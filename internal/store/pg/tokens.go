package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/types"
)

// TokenStore implementa repository.TokenStore. Dentro de WithPrincipalLock
// db es la transacción que sostiene el advisory lock.
type TokenStore struct {
	db   dbtx
	inTx bool
}

var _ repository.TokenStore = (*TokenStore)(nil)

const selectToken = `
	SELECT a.id, a.client_id, a.username, a.scopes, a.grant_type,
	       a.issued_at, a.expires_at, a.additional_info,
	       r.id, r.expires_at
	FROM oauth_access_tokens a
	LEFT JOIN oauth_refresh_tokens r ON r.access_token_id = a.id`

func scanToken(row pgx.Row) (*repository.AccessToken, error) {
	var (
		t         repository.AccessToken
		scopes    []string
		info      []byte
		refreshID *string
		refreshEx *time.Time
	)
	err := row.Scan(&t.ID, &t.ClientID, &t.Username, &scopes, &t.GrantType,
		&t.IssuedAt, &t.ExpiresAt, &info, &refreshID, &refreshEx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	t.Scopes = types.NewScopeSet(scopes...)
	if len(info) > 0 && string(info) != "{}" {
		if err := json.Unmarshal(info, &t.AdditionalInfo); err != nil {
			return nil, fmt.Errorf("pg: additional_info: %w", err)
		}
	}
	if refreshID != nil {
		t.RefreshToken = &repository.RefreshToken{ID: *refreshID, AccessTokenID: t.ID}
		if refreshEx != nil {
			t.RefreshToken.ExpiresAt = *refreshEx
		}
	}
	return &t, nil
}

func (s *TokenStore) Save(ctx context.Context, token *repository.AccessToken) error {
	if token == nil || token.ID == "" {
		return repository.ErrInvalidInput
	}
	info := []byte("{}")
	if len(token.AdditionalInfo) > 0 {
		b, err := json.Marshal(token.AdditionalInfo)
		if err != nil {
			return fmt.Errorf("pg: additional_info: %w", err)
		}
		info = b
	}

	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		const del = `DELETE FROM oauth_access_tokens WHERE (client_id = $1 AND username = $2) OR id = $3`
		if _, err := tx.Exec(ctx, del, token.ClientID, token.Username, token.ID); err != nil {
			return err
		}

		const ins = `
			INSERT INTO oauth_access_tokens
				(id, client_id, username, scopes, grant_type, issued_at, expires_at, additional_info)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb)`
		if _, err := tx.Exec(ctx, ins, token.ID, token.ClientID, token.Username, token.Scopes.Slice(),
			token.GrantType, token.IssuedAt, token.ExpiresAt, string(info)); err != nil {
			return err
		}

		if rt := token.RefreshToken; rt != nil {
			const insR = `INSERT INTO oauth_refresh_tokens (id, access_token_id, expires_at) VALUES ($1, $2, $3)`
			if _, err := tx.Exec(ctx, insR, rt.ID, token.ID, rt.ExpiresAt); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *TokenStore) FindByID(ctx context.Context, id string) (*repository.AccessToken, error) {
	return scanToken(s.db.QueryRow(ctx, selectToken+` WHERE a.id = $1`, id))
}

func (s *TokenStore) FindByClientAndUsername(ctx context.Context, clientID, username string) (*repository.AccessToken, error) {
	return scanToken(s.db.QueryRow(ctx, selectToken+` WHERE a.client_id = $1 AND a.username = $2`, clientID, username))
}

func (s *TokenStore) FindRefresh(ctx context.Context, refreshID string) (*repository.AccessToken, error) {
	return scanToken(s.db.QueryRow(ctx, selectToken+` WHERE r.id = $1`, refreshID))
}

func (s *TokenStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM oauth_access_tokens WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteRefresh borra el access token dueño; el refresh cae por ON DELETE CASCADE.
func (s *TokenStore) DeleteRefresh(ctx context.Context, refreshID string) error {
	const q = `
		DELETE FROM oauth_access_tokens
		WHERE id = (SELECT access_token_id FROM oauth_refresh_tokens WHERE id = $1)`
	tag, err := s.db.Exec(ctx, q, refreshID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// WithPrincipalLock abre una transacción y toma pg_advisory_xact_lock sobre
// el par. El lock se libera con el commit/rollback. Colisiones de hashtext
// solo serializan de más.
func (s *TokenStore) WithPrincipalLock(ctx context.Context, clientID, username string, fn func(ctx context.Context, tx repository.TokenStore) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, clientID+":"+username); err != nil {
			return fmt.Errorf("pg: advisory lock: %w", err)
		}
		return fn(ctx, &TokenStore{db: tx, inTx: true})
	})
}

// PurgeExpired borra access tokens vencidos sin refresh token vivo.
func (s *TokenStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	const q = `
		DELETE FROM oauth_access_tokens a
		WHERE a.expires_at <= $1
		  AND NOT EXISTS (
		      SELECT 1 FROM oauth_refresh_tokens r
		      WHERE r.access_token_id = a.id AND r.expires_at > $1)`
	tag, err := s.db.Exec(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
