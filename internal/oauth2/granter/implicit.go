package granter

import (
	"context"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2"
	oauth2errors "github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/errors"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/scope"
)

// ImplicitGranter emite access tokens sin refresh para response_type=token.
// Solo lo invoca el authorization endpoint, con el usuario ya autenticado.
type ImplicitGranter struct {
	factory
}

func NewImplicitGranter(o Options) *ImplicitGranter {
	return &ImplicitGranter{factory: newFactory(o)}
}

func (g *ImplicitGranter) GrantType() string { return oauth2.GrantImplicit }

func (g *ImplicitGranter) CreateAccessToken(ctx context.Context, client *repository.Client, req oauth2.TokenRequest) (*repository.AccessToken, error) {
	if req.Username == "" {
		return nil, oauth2errors.InvalidRequest("implicit grant requires an authenticated user")
	}
	scopes, err := scope.Resolve(client.Scopes, req.Scopes)
	if err != nil {
		return nil, err
	}
	return g.newToken(client, req.Username, scopes, oauth2.GrantImplicit, false)
}
