package authorize

import (
	"context"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2"
)

// Session es el estado que viaja entre Authorize y Approval para una sesión
// HTTP: el request resuelto y los parámetros originales sin procesar.
type Session struct {
	Request        *oauth2.AuthorizationRequest `json:"request,omitempty"`
	OriginalParams map[string]string            `json:"original_params,omitempty"`
}

// complete reporta si la sesión tiene ambos componentes.
func (s *Session) complete() bool {
	return s != nil && s.Request != nil && s.OriginalParams != nil
}

// SessionStore guarda Session por id de sesión. Single-writer por sesión.
type SessionStore interface {
	// Load retorna (nil, nil) si no hay estado para sessionID.
	Load(ctx context.Context, sessionID string) (*Session, error)
	Save(ctx context.Context, sessionID string, s *Session) error
	Clear(ctx context.Context, sessionID string) error
}
