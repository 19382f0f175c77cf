package middlewares

import (
	"net/http"
	"strconv"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/http/helpers"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/metrics"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/rate"
)

// RateKeyFunc define cómo generar la clave de rate limiting.
type RateKeyFunc func(r *http.Request) string

// ClientRateKey usa IP + path + client_id (Basic o form). El form parseado
// queda en r.Form para el controller.
func ClientRateKey(r *http.Request) string {
	id := helpers.BasicUsername(r)
	if id == "" {
		id = r.PostFormValue("client_id")
	}
	if id == "" {
		id = "-"
	}
	return clientIP(r) + "|" + r.URL.Path + "|" + id
}

// WithRateLimit aplica limiter; nil deja pasar todo. Un error del limiter
// deja pasar el request (fail-open) y se loguea.
func WithRateLimit(limiter rate.Limiter, key RateKeyFunc) Middleware {
	if limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if key == nil {
		key = ClientRateKey
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := limiter.Allow(r.Context(), key(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limit error", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if !res.Allowed {
				metrics.RecordRateLimited()
				secs := int(res.RetryAfter.Seconds())
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				helpers.WriteJSON(w, http.StatusTooManyRequests, map[string]string{
					"error":             "rate_limited",
					"error_description": "too many requests",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
