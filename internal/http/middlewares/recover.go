package middlewares

import (
	"fmt"
	"net/http"

	httperrors "github.com/dropDatabas3/hellojohn-oauth2/internal/http/errors"
	oauth2errors "github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/errors"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/observability/logger"
)

// WithRecover captura panics y devuelve server_error en lugar de crashear.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.From(r.Context()).Error("panic recovered",
						logger.Op("recover"),
						logger.Any("panic", rec),
					)
					httperrors.WriteError(w, r, oauth2errors.ServerError("panic recovered").WithCause(fmt.Errorf("panic: %v", rec)))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
