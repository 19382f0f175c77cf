package helpers

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2"
	oauth2errors "github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/errors"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/security/password"
)

// basicAuth lee HTTP Basic; usuario y secreto vienen form-urlencoded
// (RFC 6749 §2.3.1).
func basicAuth(r *http.Request) (string, string, bool) {
	u, p, ok := r.BasicAuth()
	if !ok {
		return "", "", false
	}
	if du, err := url.QueryUnescape(u); err == nil {
		u = du
	}
	if dp, err := url.QueryUnescape(p); err == nil {
		p = dp
	}
	return u, p, true
}

// BasicUsername retorna el usuario del header Basic, si hay.
func BasicUsername(r *http.Request) string {
	u, _, _ := basicAuth(r)
	return u
}

// ClientAuthenticator autentica clientes en token, token_info y revocación.
type ClientAuthenticator struct {
	Clients repository.ClientDirectory
}

// Authenticate resuelve el cliente por Basic o por client_id/client_secret
// en params. Clientes públicos se aceptan solo con client_id y sin secreto.
func (a *ClientAuthenticator) Authenticate(r *http.Request, params map[string]string) (*repository.Client, error) {
	id, secret, viaBasic := basicAuth(r)
	if viaBasic {
		if formID := params[oauth2.ParamClientID]; formID != "" && formID != id {
			return nil, oauth2errors.InvalidClient("client_id does not match the authenticated client")
		}
	} else {
		id = params[oauth2.ParamClientID]
		secret = params["client_secret"]
	}
	if id == "" {
		return nil, oauth2errors.InvalidClient("client authentication is required")
	}

	client, err := a.Clients.LoadClient(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, oauth2errors.InvalidClient("bad client credentials")
		}
		return nil, err
	}
	if !password.CheckClientSecret(client, secret) {
		return nil, oauth2errors.InvalidClient("bad client credentials")
	}
	return client, nil
}

// UserVerifier verifica credenciales del resource owner; lo implementa
// password.Authenticator.
type UserVerifier interface {
	Authenticate(ctx context.Context, username, plain string) (string, error)
}

// ErrBadUserCredentials indica un header Basic presente pero inválido.
var ErrBadUserCredentials = errors.New("bad user credentials")

// UserPrincipal autentica al usuario por HTTP Basic. Sin header retorna un
// principal no autenticado y nil.
func UserPrincipal(r *http.Request, users UserVerifier) (*oauth2.Principal, error) {
	u, p, ok := basicAuth(r)
	if !ok {
		return &oauth2.Principal{}, nil
	}
	name, err := users.Authenticate(r.Context(), u, p)
	if err != nil {
		if errors.Is(err, password.ErrBadCredentials) || errors.Is(err, password.ErrAccountDisabled) {
			return nil, ErrBadUserCredentials
		}
		return nil, err
	}
	return &oauth2.Principal{Name: name, Authenticated: true}, nil
}
