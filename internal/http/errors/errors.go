// Package errors escribe errores OAuth2 como respuestas HTTP.
package errors

import (
	"encoding/json"
	"net/http"

	oauth2errors "github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/errors"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/observability/logger"
)

// errorResponse es el cuerpo RFC 6749 §5.2.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// Realm usado en WWW-Authenticate.
const (
	RealmClient = "oauth2/client"
	RealmUser   = "oauth2"
)

// SetNoStore agrega los headers anti-cache obligatorios en respuestas con tokens.
func SetNoStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// WriteError traduce err (cualquier error) a {error, error_description}.
// Errores que no son OAuth2 salen como server_error 500 y se loguean.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	oe := oauth2errors.Translate(err)
	status := oe.HTTPStatus
	if status == 0 {
		status = http.StatusBadRequest
	}

	log := logger.From(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request failed", logger.OAuthError(oe.Code), logger.Err(err))
	} else {
		log.Debug("oauth2 error", logger.OAuthError(oe.Code), logger.Err(err))
	}

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Basic realm="`+RealmClient+`"`)
	}
	desc := oe.Description
	if status >= http.StatusInternalServerError {
		desc = "internal server error"
	}
	SetNoStore(w)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: oe.Code, ErrorDescription: desc})
}

// WriteUnauthenticated responde 401 pidiendo credenciales de usuario.
func WriteUnauthenticated(w http.ResponseWriter, description string) {
	w.Header().Set("WWW-Authenticate", `Basic realm="`+RealmUser+`"`)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: "unauthorized", ErrorDescription: description})
}
