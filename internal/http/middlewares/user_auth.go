package middlewares

import (
	"errors"
	"net/http"

	httperrors "github.com/dropDatabas3/hellojohn-oauth2/internal/http/errors"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/http/helpers"
)

// WithUserAuth autentica al resource owner por HTTP Basic y lo deja en el
// contexto. Sin credenciales el request sigue sin principal (el endpoint
// decide); credenciales inválidas cortan con 401.
func WithUserAuth(users helpers.UserVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := helpers.UserPrincipal(r, users)
			if err != nil {
				if errors.Is(err, helpers.ErrBadUserCredentials) {
					httperrors.WriteUnauthenticated(w, "bad credentials")
					return
				}
				httperrors.WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}
