// Package introspect convierte tokens almacenados a respuestas RFC 7662.
package introspect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/clock"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/metrics"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/observability/logger"
)

// Deps contiene las dependencias del converter.
type Deps struct {
	Store    repository.TokenStore
	Clock    clock.Clock
	Location *time.Location // zona del servidor; nil = UTC
}

// Converter resuelve tokens y arma la respuesta de introspección.
type Converter struct {
	store repository.TokenStore
	clock clock.Clock
	loc   *time.Location
}

func New(d Deps) *Converter {
	clk := d.Clock
	if clk == nil {
		clk = clock.System{Location: d.Location}
	}
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Converter{store: d.Store, clock: clk, loc: loc}
}

// Inactive es la respuesta para tokens ausentes o vencidos.
func Inactive() map[string]any {
	return map[string]any{"active": false}
}

// Convert mapea un token vivo a la respuesta RFC 7662. username se omite
// para client_credentials.
func (c *Converter) Convert(tok *repository.AccessToken) map[string]any {
	out := map[string]any{
		"active":     true,
		"client_id":  tok.ClientID,
		"scope":      tok.Scopes.String(),
		"exp":        tok.ExpiresAt.In(c.loc).Unix(),
		"iat":        tok.IssuedAt.In(c.loc).Unix(),
		"token_type": oauth2.TokenTypeBearer,
	}
	if tok.GrantType != oauth2.GrantClientCredentials && tok.Username != "" {
		out["username"] = tok.Username
	}
	return out
}

// Introspect busca tokenID y retorna su respuesta. Un token vencido se
// reporta inactivo y se borra, salvo que su refresh token siga vivo.
func (c *Converter) Introspect(ctx context.Context, tokenID string) (map[string]any, error) {
	log := logger.From(ctx).With(logger.Layer("oauth2"), logger.Op("introspect.Introspect"), logger.TokenID(tokenID))

	if tokenID == "" {
		metrics.RecordIntrospection(false)
		return Inactive(), nil
	}
	tok, err := c.store.FindByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordIntrospection(false)
			return Inactive(), nil
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	now := c.clock.Now()
	if tok.IsExpired(now) {
		metrics.RecordIntrospection(false)
		if tok.RefreshToken == nil || tok.RefreshToken.IsExpired(now) {
			if err := c.store.Delete(ctx, tok.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
				log.Warn("delete expired token failed", logger.Err(err))
			}
		}
		return Inactive(), nil
	}

	metrics.RecordIntrospection(true)
	return c.Convert(tok), nil
}
