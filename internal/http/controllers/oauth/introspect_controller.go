package oauth

import (
	"net/http"

	httperrors "github.com/dropDatabas3/hellojohn-oauth2/internal/http/errors"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/http/helpers"
	oauth2errors "github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/errors"
)

// IntrospectController maneja POST /oauth/token_info (RFC 7662).
type IntrospectController struct {
	clients      *helpers.ClientAuthenticator
	introspector Introspector
}

func (c *IntrospectController) Introspect(w http.ResponseWriter, r *http.Request) {
	params, err := helpers.Params(w, r)
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	if _, err := c.clients.Authenticate(r, params); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	token := params["token"]
	if token == "" {
		httperrors.WriteError(w, r, oauth2errors.InvalidRequest("missing token"))
		return
	}

	out, err := c.introspector.Introspect(r.Context(), token)
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	httperrors.SetNoStore(w)
	helpers.WriteJSON(w, http.StatusOK, out)
}
