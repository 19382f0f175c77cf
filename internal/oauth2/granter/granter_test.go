package granter

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/cache"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/clock"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/types"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/jwt"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/code"
	oauth2errors "github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/errors"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/store/cachestore"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/store/memory"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type fakeAuth struct{}

// Authenticate acepta cualquier casing del usuario y retorna el nombre canónico.
func (fakeAuth) Authenticate(ctx context.Context, username, password string) (string, error) {
	if password != "secret" {
		return "", errors.New("password mismatch for " + username)
	}
	return strings.ToLower(username), nil
}

type countingEnhancer struct{ calls int32 }

func (e *countingEnhancer) Enhance(ctx context.Context, tok *repository.AccessToken, client *repository.Client) (*repository.AccessToken, error) {
	atomic.AddInt32(&e.calls, 1)
	return tok, nil
}

type fixture struct {
	clk        *clock.Mock
	store      *memory.TokenStore
	codes      code.Services
	enhancer   *countingEnhancer
	dispatcher *Dispatcher
	client     *repository.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := clock.NewMock(t0)
	store := memory.NewTokenStore()
	codes := code.New(code.Deps{Store: cachestore.NewCodeStore(cache.NewMemory("")), Clock: clk})
	enh := &countingEnhancer{}
	opts := Options{Clock: clk}

	d := NewDispatcher(DispatcherDeps{
		Granters: []TokenGranter{
			NewAuthorizationCodeGranter(opts, codes),
			NewClientCredentialsGranter(opts, false),
			NewPasswordGranter(opts, fakeAuth{}),
			NewRefreshTokenGranter(opts, store),
			NewImplicitGranter(opts),
		},
		Store:    store,
		Enhancer: enh,
		Clock:    clk,
	})

	return &fixture{
		clk:        clk,
		store:      store,
		codes:      codes,
		enhancer:   enh,
		dispatcher: d,
		client: &repository.Client{
			ClientID:     "web",
			Name:         "Web App",
			Scopes:       types.NewScopeSet("read", "write"),
			RedirectURIs: []string{"https://app.example.com/cb"},
			GrantTypes: []string{
				oauth2.GrantAuthorizationCode, oauth2.GrantClientCredentials,
				oauth2.GrantPassword, oauth2.GrantRefreshToken, oauth2.GrantImplicit,
			},
			AccessTokenValiditySeconds:  600,
			RefreshTokenValiditySeconds: 3600,
		},
	}
}

func (f *fixture) password(t *testing.T, scopes ...string) *repository.AccessToken {
	t.Helper()
	tok, err := f.dispatcher.Grant(context.Background(), f.client, oauth2.TokenRequest{
		GrantType: oauth2.GrantPassword,
		ClientID:  f.client.ClientID,
		Username:  "alice",
		Password:  "secret",
		Scopes:    types.NewScopeSet(scopes...),
	})
	require.NoError(t, err)
	return tok
}

// =================================================================================
// Dispatcher
// =================================================================================

func TestClientCredentialsScenario(t *testing.T) {
	f := newFixture(t)

	tok, err := f.dispatcher.Grant(context.Background(), f.client, oauth2.TokenRequest{
		GrantType: oauth2.GrantClientCredentials,
		ClientID:  "web",
	})
	require.NoError(t, err)

	assert.EqualValues(t, 600, tok.ExpiresIn(t0))
	assert.True(t, tok.Scopes.Equal(f.client.Scopes))
	assert.Empty(t, tok.Username)
	assert.Nil(t, tok.RefreshToken)
}

func TestUnsupportedGrantType(t *testing.T) {
	f := newFixture(t)
	_, err := f.dispatcher.Grant(context.Background(), f.client, oauth2.TokenRequest{GrantType: "urn:foo"})
	assert.True(t, errors.Is(err, oauth2errors.ErrUnsupportedGrantType))
	assert.True(t, errors.Is(err, oauth2errors.ErrInvalidGrant))
}

func TestClientNotAllowedGrantType(t *testing.T) {
	f := newFixture(t)
	f.client.GrantTypes = []string{oauth2.GrantAuthorizationCode}

	_, err := f.dispatcher.Grant(context.Background(), f.client, oauth2.TokenRequest{GrantType: oauth2.GrantClientCredentials})
	assert.True(t, errors.Is(err, oauth2errors.ErrUnauthorizedClient))
}

func TestClientWithoutGrantTypesIsUnrestricted(t *testing.T) {
	f := newFixture(t)
	f.client.GrantTypes = nil

	tok, err := f.dispatcher.Grant(context.Background(), f.client, oauth2.TokenRequest{GrantType: oauth2.GrantClientCredentials})
	require.NoError(t, err)
	assert.Empty(t, tok.Username)
}

func TestGrantIsIdempotent(t *testing.T) {
	f := newFixture(t)

	first := f.password(t)
	second := f.password(t)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.RefreshToken.ID, second.RefreshToken.ID)
	assert.EqualValues(t, 1, atomic.LoadInt32(&f.enhancer.calls))
	assert.Equal(t, 1, f.store.Len())
}

func TestGrantReplacesExpiredToken(t *testing.T) {
	f := newFixture(t)

	first := f.password(t)
	f.clk.Advance(601 * time.Second)
	second := f.password(t)

	assert.NotEqual(t, first.ID, second.ID)
	_, err := f.store.FindByID(context.Background(), first.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, 1, f.store.Len())
}

func TestGrantReplacesDifferentGrantType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	implicit, err := f.dispatcher.Grant(ctx, f.client, oauth2.TokenRequest{
		GrantType: oauth2.GrantImplicit,
		Username:  "alice",
	})
	require.NoError(t, err)

	pw := f.password(t)
	assert.NotEqual(t, implicit.ID, pw.ID)

	_, err = f.store.FindByID(ctx, implicit.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.EqualValues(t, 2, atomic.LoadInt32(&f.enhancer.calls))
}

func TestConcurrentGrantsYieldOneToken(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	ids := make([]string, 16)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := f.dispatcher.Grant(context.Background(), f.client, oauth2.TokenRequest{
				GrantType: oauth2.GrantPassword, Username: "alice", Password: "secret",
			})
			if err == nil {
				ids[i] = tok.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&f.enhancer.calls))
	assert.Equal(t, 1, f.store.Len())
}

// =================================================================================
// Authorization code
// =================================================================================

func (f *fixture) issueCode(t *testing.T, scopes types.ScopeSet) string {
	t.Helper()
	v, err := f.codes.Create(context.Background(), oauth2.AuthorizationRequest{
		ClientID:    "web",
		RedirectURI: "https://app.example.com/cb",
		Scopes:      scopes,
		State:       "st",
		Username:    "alice",
	})
	require.NoError(t, err)
	return v
}

func TestAuthorizationCodeExchange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.issueCode(t, types.NewScopeSet("read"))

	req := oauth2.TokenRequest{
		GrantType:   oauth2.GrantAuthorizationCode,
		Code:        v,
		RedirectURI: "https://app.example.com/cb",
		State:       "st",
	}
	tok, err := f.dispatcher.Grant(ctx, f.client, req)
	require.NoError(t, err)
	assert.Equal(t, "alice", tok.Username)
	assert.True(t, tok.Scopes.Equal(types.NewScopeSet("read")))
	require.NotNil(t, tok.RefreshToken)
	assert.True(t, tok.RefreshToken.ExpiresAt.Equal(t0.Add(time.Hour)))

	_, err = f.dispatcher.Grant(ctx, f.client, req)
	assert.True(t, errors.Is(err, oauth2errors.ErrInvalidRequest), "code is single-use")
}

func TestAuthorizationCodeEmptyScopesFallBackToClient(t *testing.T) {
	f := newFixture(t)
	v := f.issueCode(t, nil)

	tok, err := f.dispatcher.Grant(context.Background(), f.client, oauth2.TokenRequest{
		GrantType: oauth2.GrantAuthorizationCode, Code: v, State: "st",
	})
	require.NoError(t, err)
	assert.True(t, tok.Scopes.Equal(f.client.Scopes))
}

func TestAuthorizationCodeRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(f *fixture, req *oauth2.TokenRequest)
		scopes types.ScopeSet
		want   error
	}{
		{
			name:   "redirect mismatch",
			mutate: func(f *fixture, req *oauth2.TokenRequest) { req.RedirectURI = "https://other.example.com/cb" },
			want:   oauth2errors.ErrRedirectMismatch,
		},
		{
			name:   "state mismatch",
			mutate: func(f *fixture, req *oauth2.TokenRequest) { req.State = "other" },
			want:   oauth2errors.ErrInvalidGrant,
		},
		{
			name:   "other client",
			mutate: func(f *fixture, req *oauth2.TokenRequest) { f.client.ClientID = "mobile" },
			want:   oauth2errors.ErrInvalidGrant,
		},
		{
			name:   "code scope exceeds client",
			scopes: types.NewScopeSet("admin"),
			want:   oauth2errors.ErrInvalidScope,
		},
		{
			name:   "missing code",
			mutate: func(f *fixture, req *oauth2.TokenRequest) { req.Code = "" },
			want:   oauth2errors.ErrInvalidRequest,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			scopes := tc.scopes
			if scopes == nil {
				scopes = types.NewScopeSet("read")
			}
			req := oauth2.TokenRequest{
				GrantType:   oauth2.GrantAuthorizationCode,
				Code:        f.issueCode(t, scopes),
				RedirectURI: "https://app.example.com/cb",
				State:       "st",
			}
			if tc.mutate != nil {
				tc.mutate(f, &req)
			}
			_, err := f.dispatcher.Grant(context.Background(), f.client, req)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
			assert.Equal(t, 0, f.store.Len())
		})
	}
}

// =================================================================================
// Password
// =================================================================================

func TestPasswordGrant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tok, err := f.dispatcher.Grant(ctx, f.client, oauth2.TokenRequest{
		GrantType: oauth2.GrantPassword, Username: "ALICE", Password: "secret",
		Scopes: types.NewScopeSet("read"),
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", tok.Username, "username is the authenticated identity")
	assert.NotNil(t, tok.RefreshToken)

	_, err = f.dispatcher.Grant(ctx, f.client, oauth2.TokenRequest{
		GrantType: oauth2.GrantPassword, Username: "alice", Password: "wrong",
	})
	var oe *oauth2errors.Error
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, oauth2errors.CodeInvalidGrant, oe.Code)
	assert.Equal(t, "bad credentials", oe.Description)
	assert.NotContains(t, oe.Error(), "mismatch")

	_, err = f.dispatcher.Grant(ctx, f.client, oauth2.TokenRequest{GrantType: oauth2.GrantPassword, Username: "alice"})
	assert.True(t, errors.Is(err, oauth2errors.ErrInvalidRequest))

	_, err = f.dispatcher.Grant(ctx, f.client, oauth2.TokenRequest{
		GrantType: oauth2.GrantPassword, Username: "bob", Password: "secret",
		Scopes: types.NewScopeSet("admin"),
	})
	assert.True(t, errors.Is(err, oauth2errors.ErrInvalidScope))
}

// =================================================================================
// Refresh token
// =================================================================================

func TestRefreshRotation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	orig := f.password(t, "read", "write")

	f.clk.Advance(30 * time.Minute)
	refreshedAt := f.clk.Now()

	tok, err := f.dispatcher.Grant(ctx, f.client, oauth2.TokenRequest{
		GrantType:    oauth2.GrantRefreshToken,
		RefreshToken: orig.RefreshToken.ID,
	})
	require.NoError(t, err)

	assert.NotEqual(t, orig.ID, tok.ID)
	assert.Equal(t, "alice", tok.Username)
	assert.Equal(t, oauth2.GrantPassword, tok.GrantType)
	assert.True(t, tok.Scopes.Equal(orig.Scopes))
	assert.True(t, tok.ExpiresAt.Equal(refreshedAt.Add(600*time.Second)))
	require.NotNil(t, tok.RefreshToken)
	assert.True(t, tok.RefreshToken.ExpiresAt.Equal(refreshedAt.Add(3600*time.Second)))
	assert.Equal(t, tok.ID, tok.RefreshToken.AccessTokenID)

	_, err = f.store.FindRefresh(ctx, orig.RefreshToken.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.dispatcher.Grant(ctx, f.client, oauth2.TokenRequest{
		GrantType: oauth2.GrantRefreshToken, RefreshToken: orig.RefreshToken.ID,
	})
	assert.True(t, errors.Is(err, oauth2errors.ErrInvalidGrant))
}

func TestRefreshNarrowsScopes(t *testing.T) {
	f := newFixture(t)
	orig := f.password(t, "read", "write")

	tok, err := f.dispatcher.Grant(context.Background(), f.client, oauth2.TokenRequest{
		GrantType: oauth2.GrantRefreshToken, RefreshToken: orig.RefreshToken.ID,
		Scopes: types.NewScopeSet("read"),
	})
	require.NoError(t, err)
	assert.True(t, tok.Scopes.Equal(types.NewScopeSet("read")))
}

func TestRefreshCannotWidenScopes(t *testing.T) {
	f := newFixture(t)
	orig := f.password(t, "read")

	_, err := f.dispatcher.Grant(context.Background(), f.client, oauth2.TokenRequest{
		GrantType: oauth2.GrantRefreshToken, RefreshToken: orig.RefreshToken.ID,
		Scopes: types.NewScopeSet("read", "write"),
	})
	assert.True(t, errors.Is(err, oauth2errors.ErrInvalidScope))
}

func TestRefreshExpiredIsDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	orig := f.password(t)

	f.clk.Advance(2 * time.Hour)
	_, err := f.dispatcher.Grant(ctx, f.client, oauth2.TokenRequest{
		GrantType: oauth2.GrantRefreshToken, RefreshToken: orig.RefreshToken.ID,
	})
	var oe *oauth2errors.Error
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, oauth2errors.CodeInvalidGrant, oe.Code)
	assert.Equal(t, "refresh token is expired", oe.Description)

	_, err = f.store.FindRefresh(ctx, orig.RefreshToken.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRefreshFromOtherClientKeepsToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	orig := f.password(t)

	other := *f.client
	other.ClientID = "mobile"
	_, err := f.dispatcher.Grant(ctx, &other, oauth2.TokenRequest{
		GrantType: oauth2.GrantRefreshToken, RefreshToken: orig.RefreshToken.ID,
	})
	assert.True(t, errors.Is(err, oauth2errors.ErrInvalidClient))

	_, err = f.store.FindRefresh(ctx, orig.RefreshToken.ID)
	assert.NoError(t, err)
}

func TestRefreshUnknown(t *testing.T) {
	f := newFixture(t)
	_, err := f.dispatcher.Grant(context.Background(), f.client, oauth2.TokenRequest{
		GrantType: oauth2.GrantRefreshToken, RefreshToken: "nope",
	})
	var oe *oauth2errors.Error
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "invalid refresh token", oe.Description)
}

// =================================================================================
// Implicit / client credentials options
// =================================================================================

func TestImplicitHasNoRefresh(t *testing.T) {
	f := newFixture(t)
	tok, err := f.dispatcher.Grant(context.Background(), f.client, oauth2.TokenRequest{
		GrantType: oauth2.GrantImplicit, Username: "alice", Scopes: types.NewScopeSet("read"),
	})
	require.NoError(t, err)
	assert.Nil(t, tok.RefreshToken)
	assert.EqualValues(t, 600, tok.ExpiresIn(t0))
}

func TestClientCredentialsWithRefreshEnabled(t *testing.T) {
	clk := clock.NewMock(t0)
	g := NewClientCredentialsGranter(Options{Clock: clk}, true)
	tok, err := g.CreateAccessToken(context.Background(), &repository.Client{ClientID: "svc"}, oauth2.TokenRequest{})
	require.NoError(t, err)
	require.NotNil(t, tok.RefreshToken)
	assert.True(t, tok.ExpiresAt.Equal(t0.Add(DefaultAccessTokenValidity)))
	assert.True(t, tok.RefreshToken.ExpiresAt.Equal(t0.Add(DefaultRefreshTokenValidity)))
}

// =================================================================================
// JWT enhancer
// =================================================================================

func TestJWTEnhancer(t *testing.T) {
	signer, err := jwt.NewHS256Signer([]byte("0123456789abcdef0123456789abcdef"), "https://auth.example.com")
	require.NoError(t, err)

	clk := clock.NewMock(time.Now())
	store := memory.NewTokenStore()
	d := NewDispatcher(DispatcherDeps{
		Granters: []TokenGranter{NewPasswordGranter(Options{Clock: clk}, fakeAuth{})},
		Store:    store,
		Enhancer: &JWTEnhancer{Signer: signer},
		Clock:    clk,
	})
	client := &repository.Client{ClientID: "web", Scopes: types.NewScopeSet("read"), GrantTypes: []string{oauth2.GrantPassword}}

	tok, err := d.Grant(context.Background(), client, oauth2.TokenRequest{GrantType: oauth2.GrantPassword, Username: "alice", Password: "secret"})
	require.NoError(t, err)

	claims, err := signer.Parse(tok.ID, clk.Now())
	require.NoError(t, err)
	assert.Equal(t, "alice", claims["sub"])
	assert.Equal(t, "web", claims["client_id"])
	assert.Equal(t, "read", claims["scope"])
	assert.Equal(t, claims["jti"], tok.AdditionalInfo["jti"])
	assert.Equal(t, tok.ID, tok.RefreshToken.AccessTokenID)

	stored, err := store.FindByID(context.Background(), tok.ID)
	require.NoError(t, err)
	assert.Equal(t, tok.ID, stored.ID)
}
