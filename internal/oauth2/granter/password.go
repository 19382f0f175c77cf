package granter

import (
	"context"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2"
	oauth2errors "github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/errors"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/scope"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/observability/logger"
)

// Authenticator verifica credenciales del resource owner y retorna el
// nombre de la identidad autenticada.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (string, error)
}

// PasswordGranter implementa grant_type=password.
type PasswordGranter struct {
	factory
	auth Authenticator
}

func NewPasswordGranter(o Options, auth Authenticator) *PasswordGranter {
	return &PasswordGranter{factory: newFactory(o), auth: auth}
}

func (g *PasswordGranter) GrantType() string { return oauth2.GrantPassword }

func (g *PasswordGranter) CreateAccessToken(ctx context.Context, client *repository.Client, req oauth2.TokenRequest) (*repository.AccessToken, error) {
	if req.Username == "" || req.Password == "" {
		return nil, oauth2errors.InvalidRequest("username and password are required")
	}
	scopes, err := scope.Resolve(client.Scopes, req.Scopes)
	if err != nil {
		return nil, err
	}

	name, err := g.auth.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		// El detalle (password incorrecta, cuenta deshabilitada) queda solo en logs.
		logger.From(ctx).Debug("resource owner authentication failed",
			logger.Layer("oauth2"),
			logger.Op("granter.password"),
			logger.ClientID(client.ClientID),
			logger.Err(err),
		)
		return nil, oauth2errors.InvalidGrant("bad credentials")
	}

	return g.newToken(client, name, scopes, oauth2.GrantPassword, true)
}
