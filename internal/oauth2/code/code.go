// Package code emite y consume authorization codes one-time-use.
package code

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/clock"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2"
	oauth2errors "github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/errors"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/observability/logger"
	tokens "github.com/dropDatabas3/hellojohn-oauth2/internal/security/token"
)

// DefaultTTL es la vida de un código si Deps.TTL no se fija.
const DefaultTTL = 10 * time.Minute

// Services emite y consume authorization codes.
type Services interface {
	// Create persiste un código nuevo para req y retorna su valor en claro.
	Create(ctx context.Context, req oauth2.AuthorizationRequest) (string, error)

	// Consume retorna el código y lo invalida. Un código ausente, ya usado o
	// vencido retorna InvalidRequest.
	Consume(ctx context.Context, value string) (*repository.AuthorizationCode, error)
}

// Deps contiene las dependencias del servicio.
type Deps struct {
	Store     repository.AuthorizationCodeStore
	Clock     clock.Clock
	Generator tokens.Generator
	TTL       time.Duration
}

type services struct {
	store repository.AuthorizationCodeStore
	clock clock.Clock
	gen   tokens.Generator
	ttl   time.Duration
}

// New crea el servicio de códigos.
func New(d Deps) Services {
	ttl := d.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	gen := d.Generator
	if gen == nil {
		gen = tokens.OpaqueGenerator{Bytes: 32}
	}
	clk := d.Clock
	if clk == nil {
		clk = clock.System{}
	}
	return &services{store: d.Store, clock: clk, gen: gen, ttl: ttl}
}

func (s *services) Create(ctx context.Context, req oauth2.AuthorizationRequest) (string, error) {
	value, err := s.gen.NewID()
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	now := s.clock.Now()
	ac := &repository.AuthorizationCode{
		Code:        tokens.SHA256Base64URL(value),
		ClientID:    req.ClientID,
		Username:    req.Username,
		Scopes:      req.Scopes.Clone(),
		RedirectURI: req.RedirectURI,
		State:       req.State,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}
	if err := s.store.Save(ctx, ac); err != nil {
		return "", fmt.Errorf("save code: %w", err)
	}

	logger.From(ctx).Debug("authorization code issued",
		logger.Layer("oauth2"),
		logger.Op("code.Create"),
		logger.ClientID(req.ClientID),
		logger.Username(req.Username),
	)
	return value, nil
}

func (s *services) Consume(ctx context.Context, value string) (*repository.AuthorizationCode, error) {
	if value == "" {
		return nil, oauth2errors.InvalidRequest("an authorization code must be supplied")
	}
	ac, err := s.store.Consume(ctx, tokens.SHA256Base64URL(value))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, oauth2errors.InvalidRequest("invalid authorization code")
		}
		return nil, fmt.Errorf("consume code: %w", err)
	}
	if ac.IsExpired(s.clock.Now()) {
		return nil, oauth2errors.InvalidRequest("authorization code expired")
	}
	return ac, nil
}
