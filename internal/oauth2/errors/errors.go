// Package errors define la taxonomía de errores OAuth2 (RFC 6749 §4.1.2.1, §5.2)
// que usan granters, endpoints y adapters HTTP.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind clasifica un error OAuth2. Varios Kind pueden compartir el mismo Code
// en el wire (ej: ClientRegistration y InvalidClient).
type Kind string

const (
	KindInvalidRequest          Kind = "InvalidRequest"
	KindInvalidClient           Kind = "InvalidClient"
	KindInvalidGrant            Kind = "InvalidGrant"
	KindUnauthorizedClient      Kind = "UnauthorizedClient"
	KindUnsupportedResponseType Kind = "UnsupportedResponseType"
	KindRedirectMismatch        Kind = "RedirectMismatch"
	KindUserDenied              Kind = "UserDeniedAuthorization"
	KindClientRegistration      Kind = "ClientRegistration"
	KindTokenNotFound           Kind = "TokenNotFound"
	KindTokenExpired            Kind = "TokenExpired"
	KindAccessDenied            Kind = "AccessDenied"
	KindServerError             Kind = "ServerError"
)

// Códigos estándar OAuth2.
const (
	CodeInvalidRequest          = "invalid_request"
	CodeInvalidClient           = "invalid_client"
	CodeInvalidGrant            = "invalid_grant"
	CodeInvalidScope            = "invalid_scope"
	CodeInvalidToken            = "invalid_token"
	CodeUnauthorizedClient      = "unauthorized_client"
	CodeUnsupportedGrantType    = "unsupported_grant_type"
	CodeUnsupportedResponseType = "unsupported_response_type"
	CodeRedirectMismatch        = "redirect_uri_mismatch"
	CodeAccessDenied            = "access_denied"
	CodeServerError             = "server_error"
)

// Error es un error OAuth2 tipado. Se compara con errors.Is contra los
// sentinels Err* (match por Kind, y por Code si el sentinel lo fija).
type Error struct {
	Kind        Kind
	Code        string
	Description string
	HTTPStatus  int
	Err         error
}

func (e *Error) Error() string {
	msg := e.Code
	if e.Description != "" {
		msg += ": " + e.Description
	}
	if e.Err != nil {
		return fmt.Sprintf("%s (%v)", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matchea por Kind. Si target fija Code, también debe coincidir.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// WithCause retorna una copia con la causa adjunta.
func (e *Error) WithCause(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// WithDescription retorna una copia con otra descripción.
func (e *Error) WithDescription(desc string) *Error {
	cp := *e
	cp.Description = desc
	return &cp
}

// ─── Sentinels (para errors.Is) ───

var (
	ErrInvalidRequest          = &Error{Kind: KindInvalidRequest}
	ErrInvalidClient           = &Error{Kind: KindInvalidClient}
	ErrInvalidGrant            = &Error{Kind: KindInvalidGrant}
	ErrInvalidScope            = &Error{Kind: KindInvalidGrant, Code: CodeInvalidScope}
	ErrUnauthorizedClient      = &Error{Kind: KindUnauthorizedClient}
	ErrUnsupportedGrantType    = &Error{Kind: KindInvalidGrant, Code: CodeUnsupportedGrantType}
	ErrUnsupportedResponseType = &Error{Kind: KindUnsupportedResponseType}
	ErrRedirectMismatch        = &Error{Kind: KindRedirectMismatch}
	ErrUserDenied              = &Error{Kind: KindUserDenied}
	ErrClientRegistration      = &Error{Kind: KindClientRegistration}
	ErrTokenNotFound           = &Error{Kind: KindTokenNotFound}
	ErrTokenExpired            = &Error{Kind: KindTokenExpired}
	ErrAccessDenied            = &Error{Kind: KindAccessDenied}
	ErrServerError             = &Error{Kind: KindServerError}
)

// ─── Constructores ───

func newError(kind Kind, code string, status int, desc string) *Error {
	return &Error{Kind: kind, Code: code, Description: desc, HTTPStatus: status}
}

func InvalidRequest(desc string) *Error {
	return newError(KindInvalidRequest, CodeInvalidRequest, http.StatusBadRequest, desc)
}

func InvalidClient(desc string) *Error {
	return newError(KindInvalidClient, CodeInvalidClient, http.StatusUnauthorized, desc)
}

func InvalidGrant(desc string) *Error {
	return newError(KindInvalidGrant, CodeInvalidGrant, http.StatusBadRequest, desc)
}

// InvalidScope se expone como InvalidGrant con code invalid_scope.
func InvalidScope(desc string) *Error {
	return newError(KindInvalidGrant, CodeInvalidScope, http.StatusBadRequest, desc)
}

func UnauthorizedClient(desc string) *Error {
	return newError(KindUnauthorizedClient, CodeUnauthorizedClient, http.StatusBadRequest, desc)
}

// UnsupportedGrantType se expone como InvalidGrant con code unsupported_grant_type.
func UnsupportedGrantType(desc string) *Error {
	return newError(KindInvalidGrant, CodeUnsupportedGrantType, http.StatusBadRequest, desc)
}

func UnsupportedResponseType(desc string) *Error {
	return newError(KindUnsupportedResponseType, CodeUnsupportedResponseType, http.StatusBadRequest, desc)
}

func RedirectMismatch(desc string) *Error {
	return newError(KindRedirectMismatch, CodeRedirectMismatch, http.StatusBadRequest, desc)
}

func UserDeniedAuthorization(desc string) *Error {
	return newError(KindUserDenied, CodeAccessDenied, http.StatusForbidden, desc)
}

func ClientRegistration(desc string) *Error {
	return newError(KindClientRegistration, CodeInvalidClient, http.StatusUnauthorized, desc)
}

func TokenNotFound(desc string) *Error {
	return newError(KindTokenNotFound, CodeInvalidToken, http.StatusNotFound, desc)
}

func TokenExpired(desc string) *Error {
	return newError(KindTokenExpired, CodeInvalidToken, http.StatusUnauthorized, desc)
}

// AccessDenied con code access_denied. Para ownership de cliente usar
// AccessDenied(...).WithCode(CodeInvalidClient).
func AccessDenied(desc string) *Error {
	return newError(KindAccessDenied, CodeAccessDenied, http.StatusForbidden, desc)
}

func ServerError(desc string) *Error {
	return newError(KindServerError, CodeServerError, http.StatusInternalServerError, desc)
}

// WithCode retorna una copia con otro código de wire, mismo Kind.
func (e *Error) WithCode(code string) *Error {
	cp := *e
	cp.Code = code
	return &cp
}

// As es un atajo sobre errors.As.
func As(err error) (*Error, bool) {
	var oe *Error
	if stderrors.As(err, &oe) {
		return oe, true
	}
	return nil, false
}

// Translator convierte cualquier error en un *Error presentable.
type Translator interface {
	Translate(err error) *Error
}

// DefaultTranslator deja pasar errores OAuth2 y mapea el resto a server_error.
type DefaultTranslator struct{}

func (DefaultTranslator) Translate(err error) *Error {
	return Translate(err)
}

// Translate retorna el *Error de la cadena o un server_error que envuelve err.
// Nunca retorna nil para err != nil.
func Translate(err error) *Error {
	if err == nil {
		return nil
	}
	if oe, ok := As(err); ok {
		if oe.HTTPStatus == 0 {
			cp := *oe
			cp.HTTPStatus = http.StatusBadRequest
			return &cp
		}
		return oe
	}
	return ServerError("internal error").WithCause(err)
}
