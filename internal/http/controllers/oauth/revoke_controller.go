package oauth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/dropDatabas3/hellojohn-oauth2/internal/http/errors"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/http/helpers"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/http/middlewares"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2"
)

// RevokeController maneja la revocación por cliente y por usuario.
type RevokeController struct {
	clients  *helpers.ClientAuthenticator
	byClient Revoker
	byUser   Revoker
}

// RevokeByClient: DELETE /oauth/token/{tokenID}
func (c *RevokeController) RevokeByClient(w http.ResponseWriter, r *http.Request) {
	params, err := helpers.Params(w, r)
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	client, err := c.clients.Authenticate(r, params)
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}

	principal := &oauth2.Principal{Name: client.ClientID, Authenticated: true}
	if err := c.byClient.Revoke(r.Context(), principal, chi.URLParam(r, "tokenID")); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RevokeByUser: DELETE /oauth/users/me/tokens/{tokenID}
func (c *RevokeController) RevokeByUser(w http.ResponseWriter, r *http.Request) {
	principal := middlewares.GetPrincipal(r.Context())
	if !principal.IsAuthenticated() {
		httperrors.WriteUnauthenticated(w, "full authentication is required to access this resource")
		return
	}
	if err := c.byUser.Revoke(r.Context(), principal, chi.URLParam(r, "tokenID")); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
