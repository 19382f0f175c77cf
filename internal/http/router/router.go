// Package router define las rutas HTTP del authorization server.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/http/controllers/health"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/http/controllers/oauth"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/http/helpers"
	mw "github.com/dropDatabas3/hellojohn-oauth2/internal/http/middlewares"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/metrics"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/rate"
)

// Deps contiene lo necesario para armar el router.
type Deps struct {
	OAuth   *oauth.Controllers
	Health  *health.Controller
	Users   helpers.UserVerifier
	Limiter rate.Limiter // opcional; nil = sin rate limit
	Metrics bool         // exponer /metrics
}

// New arma el router chi con la cadena global de middlewares.
func New(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		mw.WithRequestID(),
		mw.WithLogging(),
		mw.WithRecover(),
		metrics.WithMetrics,
	)

	if d.Health != nil {
		r.Get("/healthz", d.Health.Healthz)
	}
	if d.Metrics {
		r.Handle("/metrics", metrics.Handler())
	}

	c := d.OAuth
	r.Route("/oauth", func(r chi.Router) {
		// Endpoints autenticados por cliente
		r.Group(func(r chi.Router) {
			r.Use(mw.WithRateLimit(d.Limiter, mw.ClientRateKey))
			r.Post("/token", c.Token.Token)
			r.Post("/token_info", c.Introspect.Introspect)
		})
		r.Delete("/token/{tokenID}", c.Revoke.RevokeByClient)

		// Endpoints del resource owner
		r.Group(func(r chi.Router) {
			r.Use(mw.WithUserAuth(d.Users))
			r.Get("/authorize", c.Authorize.Authorize)
			r.Post("/authorize", c.Authorize.Authorize)
			r.Post("/authorize/approval", c.Authorize.Approval)
			r.Delete("/users/me/tokens/{tokenID}", c.Revoke.RevokeByUser)
		})
	})
	return r
}
