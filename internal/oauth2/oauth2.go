// Package oauth2 contiene los tipos de request compartidos por granters y
// endpoints del authorization server.
package oauth2

import (
	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/types"
)

// Grant types (RFC 6749).
const (
	GrantAuthorizationCode = "authorization_code"
	GrantImplicit          = "implicit"
	GrantClientCredentials = "client_credentials"
	GrantPassword          = "password"
	GrantRefreshToken      = "refresh_token"
)

// Response types del authorization endpoint.
const (
	ResponseTypeCode  = "code"
	ResponseTypeToken = "token"
)

// TokenTypeBearer es el único token_type emitido (RFC 6750).
const TokenTypeBearer = "Bearer"

// Nombres de parámetros del protocolo.
const (
	ParamResponseType = "response_type"
	ParamClientID     = "client_id"
	ParamRedirectURI  = "redirect_uri"
	ParamScope        = "scope"
	ParamState        = "state"
	ParamGrantType    = "grant_type"
	ParamCode         = "code"
	ParamUsername     = "username"
	ParamPassword     = "password"
	ParamRefreshToken = "refresh_token"
)

// AuthorizationRequest es el estado de un flujo authorize → approval.
// Vive en la sesión, nunca en storage durable.
type AuthorizationRequest struct {
	ClientID     string         `json:"client_id"`
	RedirectURI  string         `json:"redirect_uri"`
	Scopes       types.ScopeSet `json:"scope"`
	ResponseType string         `json:"response_type"`
	State        string         `json:"state,omitempty"`
	Username     string         `json:"username"`
	Approved     bool           `json:"approved"`
}

// TokenRequest es la vista normalizada de los parámetros del token endpoint.
type TokenRequest struct {
	GrantType    string
	ClientID     string
	Scopes       types.ScopeSet
	Code         string
	RedirectURI  string
	State        string
	Username     string
	Password     string
	RefreshToken string
}

// TokenRequestFromParams arma un TokenRequest desde un mapa de parámetros.
func TokenRequestFromParams(params map[string]string) TokenRequest {
	return TokenRequest{
		GrantType:    params[ParamGrantType],
		ClientID:     params[ParamClientID],
		Scopes:       types.ParseScopes(params[ParamScope]),
		Code:         params[ParamCode],
		RedirectURI:  params[ParamRedirectURI],
		State:        params[ParamState],
		Username:     params[ParamUsername],
		Password:     params[ParamPassword],
		RefreshToken: params[ParamRefreshToken],
	}
}

// Principal es la identidad autenticada del caller (usuario o cliente).
type Principal struct {
	Name          string
	Authenticated bool
}

// IsAuthenticated reporta si p es una identidad autenticada con nombre.
func (p *Principal) IsAuthenticated() bool {
	return p != nil && p.Authenticated && p.Name != ""
}
