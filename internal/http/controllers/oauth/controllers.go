// Package oauth contiene los controllers HTTP del authorization server.
package oauth

import (
	"context"
	"time"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/clock"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/http/helpers"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/authorize"
)

// Granter emite tokens; lo implementa granter.Dispatcher.
type Granter interface {
	Grant(ctx context.Context, client *repository.Client, req oauth2.TokenRequest) (*repository.AccessToken, error)
}

// Introspector resuelve token_info; lo implementa introspect.Converter.
type Introspector interface {
	Introspect(ctx context.Context, tokenID string) (map[string]any, error)
}

// Revoker lo implementa revoke.Revoker.
type Revoker interface {
	Revoke(ctx context.Context, principal *oauth2.Principal, tokenID string) error
}

// SessionCookie configura la cookie que liga authorize con approval.
type SessionCookie struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// Deps contiene las dependencias de todos los controllers OAuth2.
type Deps struct {
	Clients       repository.ClientDirectory
	Granter       Granter
	Authorize     *authorize.Endpoint
	Introspector  Introspector
	ClientRevoker Revoker
	UserRevoker   Revoker
	Clock         clock.Clock
	Cookie        SessionCookie
}

// Controllers agrupa los controllers del dominio OAuth2.
type Controllers struct {
	Token      *TokenController
	Authorize  *AuthorizeController
	Introspect *IntrospectController
	Revoke     *RevokeController
}

func NewControllers(d Deps) *Controllers {
	if d.Clock == nil {
		d.Clock = clock.System{}
	}
	if d.Cookie.Name == "" {
		d.Cookie.Name = "oauth_authz"
	}
	auth := &helpers.ClientAuthenticator{Clients: d.Clients}
	return &Controllers{
		Token:      &TokenController{clients: auth, granter: d.Granter, clock: d.Clock},
		Authorize:  &AuthorizeController{endpoint: d.Authorize, cookie: d.Cookie},
		Introspect: &IntrospectController{clients: auth, introspector: d.Introspector},
		Revoke:     &RevokeController{clients: auth, byClient: d.ClientRevoker, byUser: d.UserRevoker},
	}
}
