// Package revoke implementa la revocación de tokens con chequeo de ownership.
package revoke

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/audit"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/metrics"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2"
	oauth2errors "github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/errors"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/observability/logger"
)

// Policy decide si principal puede revocar token.
type Policy interface {
	Name() string
	Check(principal *oauth2.Principal, token *repository.AccessToken) error
}

// ClientPolicy: el principal es un cliente y debe ser el dueño del token.
type ClientPolicy struct{}

func (ClientPolicy) Name() string { return "client" }

func (ClientPolicy) Check(p *oauth2.Principal, t *repository.AccessToken) error {
	if p.Name != t.ClientID {
		return oauth2errors.AccessDenied("token was not issued to this client").WithCode(oauth2errors.CodeInvalidClient)
	}
	return nil
}

// UserPolicy: el principal es un usuario y debe ser el dueño del token.
type UserPolicy struct{}

func (UserPolicy) Name() string { return "user" }

func (UserPolicy) Check(p *oauth2.Principal, t *repository.AccessToken) error {
	if t.Username == "" || p.Name != t.Username {
		return oauth2errors.AccessDenied("token does not belong to this user")
	}
	return nil
}

// Revoker borra tokens (y sus refresh tokens) tras validar ownership.
type Revoker struct {
	store  repository.TokenStore
	policy Policy
}

func New(store repository.TokenStore, policy Policy) *Revoker {
	return &Revoker{store: store, policy: policy}
}

// NewClientRevoker crea un Revoker para callers autenticados como cliente.
func NewClientRevoker(store repository.TokenStore) *Revoker {
	return New(store, ClientPolicy{})
}

// NewUserRevoker crea un Revoker para callers autenticados como usuario.
func NewUserRevoker(store repository.TokenStore) *Revoker {
	return New(store, UserPolicy{})
}

// Revoke borra el token tokenID. tokenID puede ser el id del access token o
// de su refresh token.
func (r *Revoker) Revoke(ctx context.Context, principal *oauth2.Principal, tokenID string) error {
	err := r.revoke(ctx, principal, tokenID)
	metrics.RecordRevocation(r.policy.Name(), err)

	log := logger.From(ctx).With(
		logger.Layer("oauth2"),
		logger.Op("revoke.Revoke"),
		logger.Component(r.policy.Name()),
		logger.TokenID(tokenID),
	)
	if err != nil {
		log.Info("revocation rejected", logger.Err(err))
		return err
	}
	audit.Log(ctx, audit.TokenRevoked,
		logger.Component(r.policy.Name()),
		logger.String("principal", principal.Name),
		logger.TokenID(tokenID),
	)
	return nil
}

func (r *Revoker) revoke(ctx context.Context, principal *oauth2.Principal, tokenID string) error {
	if !principal.IsAuthenticated() {
		return oauth2errors.AccessDenied("authentication required")
	}
	tok, err := r.lookup(ctx, tokenID)
	if err != nil {
		return err
	}
	if err := r.policy.Check(principal, tok); err != nil {
		return err
	}
	if err := r.store.Delete(ctx, tok.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return oauth2errors.TokenNotFound("token not found")
		}
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

func (r *Revoker) lookup(ctx context.Context, tokenID string) (*repository.AccessToken, error) {
	if tokenID == "" {
		return nil, oauth2errors.TokenNotFound("token not found")
	}
	tok, err := r.store.FindByID(ctx, tokenID)
	if errors.Is(err, repository.ErrNotFound) {
		tok, err = r.store.FindRefresh(ctx, tokenID)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, oauth2errors.TokenNotFound("token not found")
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	return tok, nil
}
