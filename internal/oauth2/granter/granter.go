// Package granter implementa los token granters (uno por grant type), el
// dispatcher que los enruta y el protocolo compartido de emisión/reemplazo.
package granter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/audit"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/clock"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/types"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/metrics"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2"
	oauth2errors "github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/errors"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/observability/logger"
	tokens "github.com/dropDatabas3/hellojohn-oauth2/internal/security/token"
)

// Validez por defecto cuando el cliente no define la suya.
const (
	DefaultAccessTokenValidity  = 12 * time.Hour
	DefaultRefreshTokenValidity = 30 * 24 * time.Hour
)

// TokenGranter crea un token candidato para un grant type.
// No persiste nada: la persistencia es responsabilidad del Dispatcher.
type TokenGranter interface {
	GrantType() string
	CreateAccessToken(ctx context.Context, client *repository.Client, req oauth2.TokenRequest) (*repository.AccessToken, error)
}

// TokenEnhancer post-procesa un token antes de persistirlo.
type TokenEnhancer interface {
	Enhance(ctx context.Context, token *repository.AccessToken, client *repository.Client) (*repository.AccessToken, error)
}

// Options son las dependencias comunes de los granters.
type Options struct {
	Clock      clock.Clock
	AccessIDs  tokens.Generator
	RefreshIDs tokens.Generator // nil = mismo generador que AccessIDs

	DefaultAccessValidity  time.Duration
	DefaultRefreshValidity time.Duration
}

// factory arma tokens candidatos con ids y expiraciones.
type factory struct {
	clock          clock.Clock
	accessIDs      tokens.Generator
	refreshIDs     tokens.Generator
	defaultAccess  time.Duration
	defaultRefresh time.Duration
}

func newFactory(o Options) factory {
	f := factory{
		clock:          o.Clock,
		accessIDs:      o.AccessIDs,
		refreshIDs:     o.RefreshIDs,
		defaultAccess:  o.DefaultAccessValidity,
		defaultRefresh: o.DefaultRefreshValidity,
	}
	if f.clock == nil {
		f.clock = clock.System{}
	}
	if f.accessIDs == nil {
		f.accessIDs = tokens.UUIDGenerator{}
	}
	if f.refreshIDs == nil {
		f.refreshIDs = f.accessIDs
	}
	if f.defaultAccess <= 0 {
		f.defaultAccess = DefaultAccessTokenValidity
	}
	if f.defaultRefresh <= 0 {
		f.defaultRefresh = DefaultRefreshTokenValidity
	}
	return f
}

func (f factory) accessValidity(c *repository.Client) time.Duration {
	if c.AccessTokenValiditySeconds > 0 {
		return time.Duration(c.AccessTokenValiditySeconds) * time.Second
	}
	return f.defaultAccess
}

func (f factory) refreshValidity(c *repository.Client) time.Duration {
	if c.RefreshTokenValiditySeconds > 0 {
		return time.Duration(c.RefreshTokenValiditySeconds) * time.Second
	}
	return f.defaultRefresh
}

// newToken arma un access token (y opcionalmente su refresh token) con
// expiraciones now + validez del cliente.
func (f factory) newToken(client *repository.Client, username string, scopes types.ScopeSet, grantType string, withRefresh bool) (*repository.AccessToken, error) {
	id, err := f.accessIDs.NewID()
	if err != nil {
		return nil, fmt.Errorf("generate access token id: %w", err)
	}
	now := f.clock.Now()
	tok := &repository.AccessToken{
		ID:        id,
		ClientID:  client.ClientID,
		Username:  username,
		Scopes:    scopes.Clone(),
		GrantType: grantType,
		IssuedAt:  now,
		ExpiresAt: now.Add(f.accessValidity(client)),
	}
	if withRefresh {
		rid, err := f.refreshIDs.NewID()
		if err != nil {
			return nil, fmt.Errorf("generate refresh token id: %w", err)
		}
		tok.RefreshToken = &repository.RefreshToken{
			ID:            rid,
			AccessTokenID: id,
			ExpiresAt:     now.Add(f.refreshValidity(client)),
		}
	}
	return tok, nil
}

// =================================================================================
// Dispatcher
// =================================================================================

// DispatcherDeps contiene las dependencias del Dispatcher.
type DispatcherDeps struct {
	Granters []TokenGranter
	Store    repository.TokenStore
	Enhancer TokenEnhancer // opcional
	Clock    clock.Clock
}

// Dispatcher enruta un TokenRequest al granter de su grant type y aplica el
// protocolo de emisión compartido.
type Dispatcher struct {
	granters map[string]TokenGranter
	store    repository.TokenStore
	enhancer TokenEnhancer
	clock    clock.Clock
}

// NewDispatcher crea un Dispatcher. Un grant type registrado dos veces
// conserva el último.
func NewDispatcher(d DispatcherDeps) *Dispatcher {
	clk := d.Clock
	if clk == nil {
		clk = clock.System{}
	}
	m := make(map[string]TokenGranter, len(d.Granters))
	for _, g := range d.Granters {
		m[g.GrantType()] = g
	}
	return &Dispatcher{granters: m, store: d.Store, enhancer: d.Enhancer, clock: clk}
}

// Supports reporta si hay un granter para grantType.
func (d *Dispatcher) Supports(grantType string) bool {
	_, ok := d.granters[grantType]
	return ok
}

// Grant emite (o reutiliza) un access token para client según req.
func (d *Dispatcher) Grant(ctx context.Context, client *repository.Client, req oauth2.TokenRequest) (*repository.AccessToken, error) {
	log := logger.From(ctx).With(
		logger.Layer("oauth2"),
		logger.Op("granter.Grant"),
		logger.ClientID(client.ClientID),
		logger.GrantType(req.GrantType),
	)

	tok, err := d.grant(ctx, client, req)
	metrics.RecordGrant(req.GrantType, err)
	if err != nil {
		log.Info("grant rejected", logger.Err(err))
		return nil, err
	}
	audit.Log(ctx, audit.TokenIssued,
		logger.ClientID(client.ClientID),
		logger.GrantType(req.GrantType),
		logger.Username(tok.Username),
		logger.TokenID(tok.ID),
		logger.Scope(tok.Scopes.String()),
	)
	return tok, nil
}

func (d *Dispatcher) grant(ctx context.Context, client *repository.Client, req oauth2.TokenRequest) (*repository.AccessToken, error) {
	g, ok := d.granters[req.GrantType]
	if !ok {
		return nil, oauth2errors.UnsupportedGrantType("unsupported grant type: " + req.GrantType)
	}
	if !client.AllowsGrant(req.GrantType) {
		return nil, oauth2errors.UnauthorizedClient("client is not allowed to use grant type " + req.GrantType)
	}

	candidate, err := g.CreateAccessToken(ctx, client, req)
	if err != nil {
		return nil, err
	}
	return issue(ctx, d.store, d.enhancer, client, candidate, d.clock.Now())
}

// issue aplica el protocolo de emisión bajo lock por (client, username):
//
//   - si existe un token vivo del mismo grant type, se retorna sin cambios
//     y el candidato se descarta (sin enhancer ni persistencia);
//   - si no, se borra el existente (si lo hay), se aplica el enhancer y se
//     persiste el candidato.
func issue(ctx context.Context, store repository.TokenStore, enhancer TokenEnhancer, client *repository.Client, candidate *repository.AccessToken, now time.Time) (*repository.AccessToken, error) {
	var out *repository.AccessToken

	err := store.WithPrincipalLock(ctx, candidate.ClientID, candidate.Username, func(ctx context.Context, tx repository.TokenStore) error {
		existing, err := tx.FindByClientAndUsername(ctx, candidate.ClientID, candidate.Username)
		switch {
		case err == nil:
			if existing.GrantType == candidate.GrantType && !existing.IsExpired(now) {
				metrics.RecordGrantReuse(candidate.GrantType)
				out = existing
				return nil
			}
			if err := tx.Delete(ctx, existing.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("delete replaced token: %w", err)
			}
		case errors.Is(err, repository.ErrNotFound):
		default:
			return fmt.Errorf("find existing token: %w", err)
		}

		tok := candidate
		if enhancer != nil {
			enhanced, err := enhancer.Enhance(ctx, candidate, client)
			if err != nil {
				return fmt.Errorf("enhance token: %w", err)
			}
			tok = enhanced
		}
		if tok.RefreshToken != nil {
			tok.RefreshToken.AccessTokenID = tok.ID
		}
		if err := tx.Save(ctx, tok); err != nil {
			return fmt.Errorf("save token: %w", err)
		}
		out = tok
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
