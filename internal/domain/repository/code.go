package repository

import (
	"context"
	"time"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/types"
	oauth2errors "github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/errors"
)

// AuthorizationCode es un código one-time-use emitido tras la aprobación.
type AuthorizationCode struct {
	Code        string // SHA256 del valor entregado al cliente
	ClientID    string
	Username    string
	Scopes      types.ScopeSet
	RedirectURI string
	State       string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// IsExpired reporta si el código venció en now.
func (c *AuthorizationCode) IsExpired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Validate chequea el código contra los parámetros del token request.
// redirectURI vacío se acepta (el cliente puede omitirlo si tiene una sola URI);
// state debe coincidir exactamente, incluido el caso vacío.
func (c *AuthorizationCode) Validate(clientID, redirectURI, state string) error {
	if c.ClientID != clientID {
		return oauth2errors.InvalidGrant("authorization code was not issued to this client")
	}
	if redirectURI != "" && redirectURI != c.RedirectURI {
		return oauth2errors.RedirectMismatch("redirect_uri does not match the authorization request")
	}
	if state != c.State {
		return oauth2errors.InvalidGrant("state does not match the authorization request")
	}
	return nil
}

// AuthorizationCodeStore persiste códigos de autorización.
type AuthorizationCodeStore interface {
	// Save persiste el código. ErrConflict si ya existe.
	Save(ctx context.Context, code *AuthorizationCode) error

	// Consume obtiene y borra el código en una sola operación atómica.
	// Dos llamadas concurrentes con el mismo valor: solo una lo obtiene,
	// la otra recibe ErrNotFound.
	Consume(ctx context.Context, code string) (*AuthorizationCode, error)
}
