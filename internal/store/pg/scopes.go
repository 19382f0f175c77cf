package pg

import (
	"context"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
)

// ScopeStore implementa repository.ScopeRepository.
type ScopeStore struct{ db dbtx }

var _ repository.ScopeRepository = (*ScopeStore)(nil)

// LoadByIDs respeta el orden de ids y omite los desconocidos.
func (s *ScopeStore) LoadByIDs(ctx context.Context, ids []string) ([]repository.Scope, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, display_name, description FROM oauth_scopes WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]repository.Scope, len(ids))
	for rows.Next() {
		var sc repository.Scope
		if err := rows.Scan(&sc.ID, &sc.DisplayName, &sc.Description); err != nil {
			return nil, err
		}
		byID[sc.ID] = sc
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]repository.Scope, 0, len(byID))
	for _, id := range ids {
		if sc, ok := byID[id]; ok {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (s *ScopeStore) Upsert(ctx context.Context, sc repository.Scope) error {
	if sc.ID == "" {
		return repository.ErrInvalidInput
	}
	const q = `
		INSERT INTO oauth_scopes (id, display_name, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			description = EXCLUDED.description`
	_, err := s.db.Exec(ctx, q, sc.ID, sc.DisplayName, sc.Description)
	return err
}
