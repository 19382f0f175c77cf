package granter

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2"
	oauth2errors "github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/errors"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/scope"
)

// RefreshTokenGranter rota un refresh token por un nuevo par access + refresh.
type RefreshTokenGranter struct {
	factory
	store repository.TokenStore
}

func NewRefreshTokenGranter(o Options, store repository.TokenStore) *RefreshTokenGranter {
	return &RefreshTokenGranter{factory: newFactory(o), store: store}
}

func (g *RefreshTokenGranter) GrantType() string { return oauth2.GrantRefreshToken }

func (g *RefreshTokenGranter) CreateAccessToken(ctx context.Context, client *repository.Client, req oauth2.TokenRequest) (*repository.AccessToken, error) {
	if req.RefreshToken == "" {
		return nil, oauth2errors.InvalidRequest("a refresh token must be supplied")
	}

	orig, err := g.store.FindRefresh(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, oauth2errors.InvalidGrant("invalid refresh token")
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}

	if orig.RefreshToken.IsExpired(g.clock.Now()) {
		if err := g.store.DeleteRefresh(ctx, req.RefreshToken); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("delete expired refresh token: %w", err)
		}
		return nil, oauth2errors.InvalidGrant("refresh token is expired")
	}

	// Un cliente ajeno no puede forzar la revocación: no se borra nada.
	if orig.ClientID != client.ClientID {
		return nil, oauth2errors.InvalidClient("invalid refresh token")
	}

	if err := g.store.DeleteRefresh(ctx, req.RefreshToken); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Otro request concurrente ya rotó este refresh token.
			return nil, oauth2errors.InvalidGrant("invalid refresh token")
		}
		return nil, fmt.Errorf("delete refresh token: %w", err)
	}

	scopes, err := scope.Resolve(orig.Scopes, req.Scopes)
	if err != nil {
		return nil, err
	}

	return g.newToken(client, orig.Username, scopes, orig.GrantType, true)
}
