package repository

import (
	"context"
	"time"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/types"
)

// AccessToken es un access token autorizado, con su refresh token opcional.
type AccessToken struct {
	ID             string
	ClientID       string
	Username       string // vacío para client_credentials
	Scopes         types.ScopeSet
	GrantType      string
	IssuedAt       time.Time
	ExpiresAt      time.Time
	AdditionalInfo map[string]any
	RefreshToken   *RefreshToken
}

// IsExpired reporta si el token venció en now.
func (t *AccessToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// ExpiresIn retorna los segundos restantes (nunca negativo).
func (t *AccessToken) ExpiresIn(now time.Time) int64 {
	d := t.ExpiresAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return int64(d / time.Second)
}

// Clone retorna una copia profunda.
func (t *AccessToken) Clone() *AccessToken {
	if t == nil {
		return nil
	}
	cp := *t
	cp.Scopes = t.Scopes.Clone()
	if t.AdditionalInfo != nil {
		cp.AdditionalInfo = make(map[string]any, len(t.AdditionalInfo))
		for k, v := range t.AdditionalInfo {
			cp.AdditionalInfo[k] = v
		}
	}
	if t.RefreshToken != nil {
		rt := *t.RefreshToken
		cp.RefreshToken = &rt
	}
	return &cp
}

// RefreshToken pertenece a exactamente un AccessToken y no lo sobrevive.
type RefreshToken struct {
	ID            string
	AccessTokenID string
	ExpiresAt     time.Time
}

// IsExpired reporta si el refresh token venció en now.
func (r *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// TokenStore persiste access tokens y sus refresh tokens.
// Hay a lo sumo un token por par (client, username).
type TokenStore interface {
	// Save persiste el token y su refresh token. Reemplaza cualquier token
	// previo del mismo par (client, username).
	Save(ctx context.Context, token *AccessToken) error

	// FindByID retorna ErrNotFound si no existe.
	FindByID(ctx context.Context, id string) (*AccessToken, error)

	// FindByClientAndUsername retorna el token del par o ErrNotFound.
	FindByClientAndUsername(ctx context.Context, clientID, username string) (*AccessToken, error)

	// FindRefresh retorna el access token dueño del refresh token refreshID.
	FindRefresh(ctx context.Context, refreshID string) (*AccessToken, error)

	// Delete borra el access token y su refresh token. ErrNotFound si no existe.
	Delete(ctx context.Context, id string) error

	// DeleteRefresh borra el refresh token y su access token. ErrNotFound si no existe.
	DeleteRefresh(ctx context.Context, refreshID string) error

	// WithPrincipalLock ejecuta fn en exclusión mutua por (client, username).
	// El store pasado a fn opera dentro de la misma sección crítica/transacción.
	WithPrincipalLock(ctx context.Context, clientID, username string, fn func(ctx context.Context, tx TokenStore) error) error
}
