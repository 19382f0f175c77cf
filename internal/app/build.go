package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/bootstrap"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/cache"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/config"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/http/controllers/health"
	oauthctrl "github.com/dropDatabas3/hellojohn-oauth2/internal/http/controllers/oauth"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/jwt"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/rate"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/store/cachestore"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/store/memory"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/store/pg"
	migrations "github.com/dropDatabas3/hellojohn-oauth2/migrations/postgres"
)

// Runtime agrupa la App con los recursos externos que hay que cerrar.
type Runtime struct {
	App   *App
	PG    *pg.Store // nil con storage.driver=memory
	Cache cache.Client
}

// Close libera pool y cache.
func (r *Runtime) Close() {
	if r.Cache != nil {
		_ = r.Cache.Close()
	}
	if r.PG != nil {
		r.PG.Close()
	}
}

// Build arma stores, cache, limiter y signer a partir de cfg, aplica
// migraciones y seeds si corresponde, y cablea la App.
func Build(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	log := logger.From(ctx).With(logger.Component("app"), logger.Op("Build"))
	rt := &Runtime{}
	ok := false
	defer func() {
		if !ok {
			rt.Close()
		}
	}()

	// 1. Cache (códigos, sesiones, rate limit)
	c, err := cache.New(ctx, cache.Config{
		Driver:   cfg.Cache.Kind,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   strings.TrimSuffix(cfg.Cache.Redis.Prefix, ":"),
	})
	if err != nil {
		return nil, err
	}
	rt.Cache = c

	// 2. Stores
	var (
		clients repository.ClientRepository
		users   repository.UserRepository
		scopes  repository.ScopeRepository
		toks    repository.TokenStore
		codes   repository.AuthorizationCodeStore = cachestore.NewCodeStore(c)
	)
	checks := map[string]health.Pinger{"cache": c}

	switch cfg.Storage.Driver {
	case "postgres":
		st, err := pg.Open(ctx, pg.Config{
			DSN:             cfg.Storage.DSN,
			MaxConns:        int32(cfg.Storage.Postgres.MaxOpenConns),
			MinConns:        int32(cfg.Storage.Postgres.MaxIdleConns),
			ConnMaxLifetime: config.Duration(cfg.Storage.Postgres.ConnMaxLifetime),
		})
		if err != nil {
			return nil, err
		}
		rt.PG = st
		if cfg.Storage.Migrate {
			res, err := st.Migrate(ctx, migrations.FS, migrations.Dir)
			if err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
			log.Info("migrations applied", logger.Int("count", len(res.Applied)))
		}
		clients, users, scopes, toks = st.Clients(), st.Users(), st.Scopes(), st.Tokens()
		codes = st.Codes()
		checks["postgres"] = st
	default:
		clients = memory.NewClientStore()
		users = memory.NewUserStore()
		scopes = memory.NewScopeStore()
		toks = memory.NewTokenStore()
	}

	// 3. Seeds
	if _, err := bootstrap.Seed(ctx, bootstrap.Files{
		Clients: cfg.Seed.Clients,
		Users:   cfg.Seed.Users,
		Scopes:  cfg.Seed.Scopes,
	}, bootstrap.Targets{Clients: clients, Users: users, Scopes: scopes}); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}

	// 4. Opcionales: rate limit y JWT
	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		window := config.Duration(cfg.Rate.Window)
		if rc := cache.Underlying(c); rc != nil {
			limiter = rate.NewRedisLimiter(rc, cfg.Cache.Redis.Prefix+"rl:", cfg.Rate.MaxRequests, window)
		} else {
			limiter = rate.NewMemoryLimiter(cfg.Rate.MaxRequests, window)
		}
	}

	var signer *jwt.Signer
	if cfg.JWT.Enabled {
		signer, err = jwt.NewHS256Signer([]byte(cfg.JWT.Secret), cfg.JWT.Issuer)
		if err != nil {
			return nil, err
		}
	}

	loc := cfg.Location()
	a, err := New(Config{
		AccessTokenValidity:      config.Duration(cfg.OAuth2.AccessTokenValidity),
		RefreshTokenValidity:     config.Duration(cfg.OAuth2.RefreshTokenValidity),
		CodeTTL:                  config.Duration(cfg.OAuth2.CodeTTL),
		ClientCredentialsRefresh: cfg.OAuth2.ClientCredentialsRefresh,
		Location:                 loc,
		ClientCacheTTL:           config.Duration(cfg.Cache.ClientTTL),
		Cookie: oauthctrl.SessionCookie{
			Name:   cfg.OAuth2.SessionCookie,
			Secure: cfg.OAuth2.SessionCookieSecure,
			TTL:    config.Duration(cfg.OAuth2.SessionTTL),
		},
		Metrics: true,
	}, Deps{
		Clients:      clients,
		Users:        users,
		Scopes:       scopes,
		Tokens:       toks,
		Codes:        codes,
		Sessions:     cachestore.NewSessionStore(c, config.Duration(cfg.OAuth2.SessionTTL)),
		Limiter:      limiter,
		Signer:       signer,
		HealthChecks: checks,
	})
	if err != nil {
		return nil, err
	}
	rt.App = a

	log.Info("app ready",
		logger.String("storage", cfg.Storage.Driver),
		logger.String("cache", cfg.Cache.Kind),
		logger.Bool("jwt", signer != nil),
		logger.Bool("rate_limit", limiter != nil),
		logger.Int("pid", os.Getpid()))
	ok = true
	return rt, nil
}
