package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
)

// UserStore implementa repository.UserRepository.
type UserStore struct{ db dbtx }

var _ repository.UserRepository = (*UserStore)(nil)

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*repository.User, error) {
	var u repository.User
	err := s.db.QueryRow(ctx,
		`SELECT username, password_hash, disabled FROM oauth_users WHERE username = $1`, username,
	).Scan(&u.Username, &u.PasswordHash, &u.Disabled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) Upsert(ctx context.Context, u *repository.User) error {
	if u == nil || u.Username == "" {
		return repository.ErrInvalidInput
	}
	const q = `
		INSERT INTO oauth_users (username, password_hash, disabled)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			disabled = EXCLUDED.disabled,
			updated_at = NOW()`
	_, err := s.db.Exec(ctx, q, u.Username, u.PasswordHash, u.Disabled)
	return err
}
