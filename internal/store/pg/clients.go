package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/types"
)

// ClientStore implementa repository.ClientRepository.
type ClientStore struct{ db dbtx }

var _ repository.ClientRepository = (*ClientStore)(nil)

const selectClient = `
	SELECT client_id, name, secret_hash, scopes, redirect_uris, grant_types,
	       access_validity, refresh_validity
	FROM oauth_clients`

func scanClient(row pgx.Row) (*repository.Client, error) {
	var (
		c      repository.Client
		scopes []string
	)
	err := row.Scan(&c.ClientID, &c.Name, &c.SecretHash, &scopes, &c.RedirectURIs, &c.GrantTypes,
		&c.AccessTokenValiditySeconds, &c.RefreshTokenValiditySeconds)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	c.Scopes = types.NewScopeSet(scopes...)
	return &c, nil
}

func (s *ClientStore) LoadClient(ctx context.Context, clientID string) (*repository.Client, error) {
	return scanClient(s.db.QueryRow(ctx, selectClient+` WHERE client_id = $1`, clientID))
}

func (s *ClientStore) Upsert(ctx context.Context, c *repository.Client) error {
	if c == nil || c.ClientID == "" {
		return repository.ErrInvalidInput
	}
	const q = `
		INSERT INTO oauth_clients
			(client_id, name, secret_hash, scopes, redirect_uris, grant_types, access_validity, refresh_validity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (client_id) DO UPDATE SET
			name = EXCLUDED.name,
			secret_hash = EXCLUDED.secret_hash,
			scopes = EXCLUDED.scopes,
			redirect_uris = EXCLUDED.redirect_uris,
			grant_types = EXCLUDED.grant_types,
			access_validity = EXCLUDED.access_validity,
			refresh_validity = EXCLUDED.refresh_validity,
			updated_at = NOW()`
	_, err := s.db.Exec(ctx, q, c.ClientID, c.Name, c.SecretHash, c.Scopes.Slice(),
		nonNil(c.RedirectURIs), nonNil(c.GrantTypes),
		c.AccessTokenValiditySeconds, c.RefreshTokenValiditySeconds)
	return err
}

func (s *ClientStore) List(ctx context.Context) ([]repository.Client, error) {
	rows, err := s.db.Query(ctx, selectClient+` ORDER BY client_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// nonNil evita insertar NULL en columnas TEXT[] NOT NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
