// Package audit emite eventos de seguridad en un logger zap dedicado
// ("audit"), separable del resto de los logs por nombre.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/observability/logger"
)

// Eventos
const (
	TokenIssued           = "token.issued"
	TokenRevoked          = "token.revoked"
	AuthorizationApproved = "authorization.approved"
)

// Log escribe el evento con el logger del contexto (request_id incluido).
func Log(ctx context.Context, event string, fields ...zap.Field) {
	logger.From(ctx).Named("audit").Info(event, append(fields, zap.String("event", event))...)
}
