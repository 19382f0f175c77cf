package oauth

import (
	"net/http"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/clock"
	httperrors "github.com/dropDatabas3/hellojohn-oauth2/internal/http/errors"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/http/helpers"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2"
	oauth2errors "github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/errors"
)

// TokenController maneja POST /oauth/token.
type TokenController struct {
	clients *helpers.ClientAuthenticator
	granter Granter
	clock   clock.Clock
}

// reservedTokenFields no pueden ser pisados por AdditionalInfo.
var reservedTokenFields = map[string]bool{
	"access_token": true, "token_type": true, "expires_in": true, "scope": true, "refresh_token": true,
}

func (c *TokenController) Token(w http.ResponseWriter, r *http.Request) {
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

	req := oauth2.TokenRequestFromParams(params)
	req.ClientID = client.ClientID
	switch req.GrantType {
	case "":
		httperrors.WriteError(w, r, oauth2errors.InvalidRequest("missing grant type"))
		return
	case oauth2.GrantImplicit:
		httperrors.WriteError(w, r, oauth2errors.InvalidGrant("implicit grant type not supported from token endpoint"))
		return
	}

	tok, err := c.granter.Grant(r.Context(), client, req)
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}

	body := make(map[string]any, 5+len(tok.AdditionalInfo))
	for k, v := range tok.AdditionalInfo {
		if !reservedTokenFields[k] {
			body[k] = v
		}
	}
	body["access_token"] = tok.ID
	body["token_type"] = oauth2.TokenTypeBearer
	body["expires_in"] = tok.ExpiresIn(c.clock.Now())
	body["scope"] = tok.Scopes.String()
	if tok.RefreshToken != nil {
		body["refresh_token"] = tok.RefreshToken.ID
	}

	httperrors.SetNoStore(w)
	helpers.WriteJSON(w, http.StatusOK, body)
}
