package granter

import (
	"context"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/scope"
)

// ClientCredentialsGranter emite tokens sin usuario.
type ClientCredentialsGranter struct {
	factory
	issueRefresh bool
}

// NewClientCredentialsGranter crea el granter de grant_type=client_credentials.
// issueRefresh habilita refresh tokens para este grant (off por defecto).
func NewClientCredentialsGranter(o Options, issueRefresh bool) *ClientCredentialsGranter {
	return &ClientCredentialsGranter{factory: newFactory(o), issueRefresh: issueRefresh}
}

func (g *ClientCredentialsGranter) GrantType() string { return oauth2.GrantClientCredentials }

func (g *ClientCredentialsGranter) CreateAccessToken(ctx context.Context, client *repository.Client, req oauth2.TokenRequest) (*repository.AccessToken, error) {
	scopes, err := scope.Resolve(client.Scopes, req.Scopes)
	if err != nil {
		return nil, err
	}
	return g.newToken(client, "", scopes, oauth2.GrantClientCredentials, g.issueRefresh)
}
