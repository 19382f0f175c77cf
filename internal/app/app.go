// Package app cablea stores, servicios OAuth2, controllers y router en un
// http.Handler listo para servir.
package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/clientdir"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/clock"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/http/controllers/health"
	oauthctrl "github.com/dropDatabas3/hellojohn-oauth2/internal/http/controllers/oauth"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/http/router"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/jwt"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/authorize"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/code"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/granter"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/introspect"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/revoke"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/rate"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/security/password"
	tokens "github.com/dropDatabas3/hellojohn-oauth2/internal/security/token"
)

// Config son los parámetros de comportamiento (ya parseados).
type Config struct {
	AccessTokenValidity      time.Duration
	RefreshTokenValidity     time.Duration
	CodeTTL                  time.Duration
	ClientCredentialsRefresh bool
	Location                 *time.Location
	ClientCacheTTL           time.Duration // 0 = sin cache de clientes
	Cookie                   oauthctrl.SessionCookie
	Metrics                  bool
}

// Deps son los colaboradores ya construidos (memory, postgres, redis...).
type Deps struct {
	Clients  repository.ClientDirectory
	Users    repository.UserRepository
	Scopes   repository.ScopeDirectory
	Tokens   repository.TokenStore
	Codes    repository.AuthorizationCodeStore
	Sessions authorize.SessionStore

	Limiter      rate.Limiter // opcional
	Signer       *jwt.Signer  // opcional; activa JWTEnhancer
	Clock        clock.Clock  // nil = reloj del sistema en Config.Location
	AccessIDs    tokens.Generator
	HealthChecks map[string]health.Pinger
}

// App es la aplicación cableada.
type App struct {
	Handler    http.Handler
	Dispatcher *granter.Dispatcher
	Authorize  *authorize.Endpoint
}

func New(cfg Config, d Deps) (*App, error) {
	if d.Clients == nil || d.Users == nil || d.Tokens == nil || d.Codes == nil || d.Sessions == nil {
		return nil, errors.New("app: clients, users, tokens, codes and sessions are required")
	}

	clk := d.Clock
	if clk == nil {
		clk = clock.System{Location: cfg.Location}
	}
	ids := d.AccessIDs
	if ids == nil {
		ids = tokens.UUIDGenerator{}
	}

	clients := d.Clients
	if cfg.ClientCacheTTL > 0 {
		clients = clientdir.NewCached(clients, cfg.ClientCacheTTL)
	}

	// 1. Servicios OAuth2
	opts := granter.Options{
		Clock:                  clk,
		AccessIDs:              ids,
		DefaultAccessValidity:  cfg.AccessTokenValidity,
		DefaultRefreshValidity: cfg.RefreshTokenValidity,
	}
	codes := code.New(code.Deps{Store: d.Codes, Clock: clk, TTL: cfg.CodeTTL})
	users := &password.Authenticator{Users: d.Users}

	var enhancer granter.TokenEnhancer
	if d.Signer != nil {
		enhancer = &granter.JWTEnhancer{Signer: d.Signer}
	}

	dispatcher := granter.NewDispatcher(granter.DispatcherDeps{
		Granters: []granter.TokenGranter{
			granter.NewAuthorizationCodeGranter(opts, codes),
			granter.NewClientCredentialsGranter(opts, cfg.ClientCredentialsRefresh),
			granter.NewPasswordGranter(opts, users),
			granter.NewRefreshTokenGranter(opts, d.Tokens),
			granter.NewImplicitGranter(opts),
		},
		Store:    d.Tokens,
		Enhancer: enhancer,
		Clock:    clk,
	})

	endpoint := authorize.New(authorize.Deps{
		Clients:  clients,
		Scopes:   d.Scopes,
		Sessions: d.Sessions,
		Enhancers: []authorize.ResponseEnhancer{
			&authorize.CodeEnhancer{Codes: codes},
			&authorize.ImplicitEnhancer{Granter: dispatcher, Clock: clk},
		},
	})

	// 2. Controllers
	controllers := oauthctrl.NewControllers(oauthctrl.Deps{
		Clients:       clients,
		Granter:       dispatcher,
		Authorize:     endpoint,
		Introspector:  introspect.New(introspect.Deps{Store: d.Tokens, Clock: clk, Location: cfg.Location}),
		ClientRevoker: revoke.NewClientRevoker(d.Tokens),
		UserRevoker:   revoke.NewUserRevoker(d.Tokens),
		Clock:         clk,
		Cookie:        cfg.Cookie,
	})

	// 3. Rutas
	handler := router.New(router.Deps{
		OAuth:   controllers,
		Health:  health.NewController(d.HealthChecks),
		Users:   users,
		Limiter: d.Limiter,
		Metrics: cfg.Metrics,
	})

	return &App{Handler: handler, Dispatcher: dispatcher, Authorize: endpoint}, nil
}
