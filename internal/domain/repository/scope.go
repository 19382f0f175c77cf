package repository

import "context"

// Scope es la metadata de un scope, usada solo para renderizar la pantalla
// de aprobación.
type Scope struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
}

// ScopeDirectory resuelve metadata de scopes.
type ScopeDirectory interface {
	// LoadByIDs retorna los scopes conocidos de ids. IDs desconocidos se omiten.
	LoadByIDs(ctx context.Context, ids []string) ([]Scope, error)
}

// ScopeRepository agrega escritura para seeds.
type ScopeRepository interface {
	ScopeDirectory
	Upsert(ctx context.Context, scope Scope) error
}
