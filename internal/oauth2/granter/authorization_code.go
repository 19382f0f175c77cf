package granter

import (
	"context"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/code"
	oauth2errors "github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/errors"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/scope"
)

// AuthorizationCodeGranter canjea un authorization code por un par
// access + refresh.
type AuthorizationCodeGranter struct {
	factory
	codes code.Services
}

// NewAuthorizationCodeGranter crea el granter de grant_type=authorization_code.
func NewAuthorizationCodeGranter(o Options, codes code.Services) *AuthorizationCodeGranter {
	return &AuthorizationCodeGranter{factory: newFactory(o), codes: codes}
}

func (g *AuthorizationCodeGranter) GrantType() string { return oauth2.GrantAuthorizationCode }

func (g *AuthorizationCodeGranter) CreateAccessToken(ctx context.Context, client *repository.Client, req oauth2.TokenRequest) (*repository.AccessToken, error) {
	if req.Code == "" {
		return nil, oauth2errors.InvalidRequest("an authorization code must be supplied")
	}
	ac, err := g.codes.Consume(ctx, req.Code)
	if err != nil {
		return nil, err
	}

	scopes, err := scope.Resolve(client.Scopes, ac.Scopes)
	if err != nil {
		return nil, err
	}
	if err := ac.Validate(client.ClientID, req.RedirectURI, req.State); err != nil {
		return nil, err
	}

	return g.newToken(client, ac.Username, scopes, oauth2.GrantAuthorizationCode, true)
}
