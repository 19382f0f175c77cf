package revoke

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/types"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2"
	oauth2errors "github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/errors"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/store/memory"
)

func seed(t *testing.T) *memory.TokenStore {
	t.Helper()
	s := memory.NewTokenStore()
	require.NoError(t, s.Save(context.Background(), &repository.AccessToken{
		ID:           "tok-1",
		ClientID:     "web",
		Username:     "alice",
		Scopes:       types.NewScopeSet("read"),
		GrantType:    oauth2.GrantPassword,
		ExpiresAt:    time.Now().Add(time.Hour),
		RefreshToken: &repository.RefreshToken{ID: "ref-1", AccessTokenID: "tok-1", ExpiresAt: time.Now().Add(24 * time.Hour)},
	}))
	return s
}

func principal(name string) *oauth2.Principal {
	return &oauth2.Principal{Name: name, Authenticated: true}
}

func TestClientRevokerOwner(t *testing.T) {
	ctx := context.Background()
	s := seed(t)

	require.NoError(t, NewClientRevoker(s).Revoke(ctx, principal("web"), "tok-1"))

	_, err := s.FindByID(ctx, "tok-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.FindRefresh(ctx, "ref-1")
	assert.ErrorIs(t, err, repository.ErrNotFound, "refresh token goes with its access token")
}

func TestClientRevokerOtherClientIsDenied(t *testing.T) {
	ctx := context.Background()
	s := seed(t)

	err := NewClientRevoker(s).Revoke(ctx, principal("mobile"), "tok-1")
	require.True(t, errors.Is(err, oauth2errors.ErrAccessDenied))
	var oe *oauth2errors.Error
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, oauth2errors.CodeInvalidClient, oe.Code)

	_, err = s.FindByID(ctx, "tok-1")
	assert.NoError(t, err, "token remains in the store")
}

func TestUserRevoker(t *testing.T) {
	ctx := context.Background()
	s := seed(t)
	r := NewUserRevoker(s)

	err := r.Revoke(ctx, principal("bob"), "tok-1")
	assert.True(t, errors.Is(err, oauth2errors.ErrAccessDenied))

	require.NoError(t, r.Revoke(ctx, principal("alice"), "tok-1"))
	assert.Equal(t, 0, s.Len())
}

func TestRevokeByRefreshID(t *testing.T) {
	s := seed(t)
	require.NoError(t, NewUserRevoker(s).Revoke(context.Background(), principal("alice"), "ref-1"))
	assert.Equal(t, 0, s.Len())
}

func TestRevokeNotFound(t *testing.T) {
	s := seed(t)
	err := NewClientRevoker(s).Revoke(context.Background(), principal("web"), "missing")
	assert.True(t, errors.Is(err, oauth2errors.ErrTokenNotFound))
}
