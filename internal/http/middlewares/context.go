package middlewares

import (
	"context"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2"
)

type ctxKey string

const (
	ctxRequestIDKey ctxKey = "request_id"
	ctxPrincipalKey ctxKey = "principal"
)

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetRequestID obtiene el request ID del contexto ("" si no hay).
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithPrincipal inyecta el usuario autenticado.
func WithPrincipal(ctx context.Context, p *oauth2.Principal) context.Context {
	return context.WithValue(ctx, ctxPrincipalKey, p)
}

// GetPrincipal retorna el usuario autenticado o un principal vacío.
func GetPrincipal(ctx context.Context) *oauth2.Principal {
	if p, ok := ctx.Value(ctxPrincipalKey).(*oauth2.Principal); ok && p != nil {
		return p
	}
	return &oauth2.Principal{}
}
