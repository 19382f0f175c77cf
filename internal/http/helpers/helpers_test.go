package helpers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
	oauth2errors "github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/errors"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/security/password"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/store/memory"
)

func postForm(target, body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestParams(t *testing.T) {
	r := postForm("/oauth/token?scope=query&state=s1", "scope=body&grant_type=password")
	p, err := Params(httptest.NewRecorder(), r)
	require.NoError(t, err)
	assert.Equal(t, "body", p["scope"])
	assert.Equal(t, "s1", p["state"])
	assert.Equal(t, "password", p["grant_type"])
}

func TestParamsRejectsDuplicates(t *testing.T) {
	for _, r := range []*http.Request{
		postForm("/oauth/token", "scope=a&scope=b"),
		httptest.NewRequest(http.MethodGet, "/oauth/authorize?state=a&state=b", nil),
	} {
		_, err := Params(httptest.NewRecorder(), r)
		var oe *oauth2errors.Error
		require.True(t, errors.As(err, &oe))
		assert.Equal(t, oauth2errors.CodeInvalidRequest, oe.Code)
	}
}

func TestParamsBodyTooLarge(t *testing.T) {
	r := postForm("/oauth/token", "x="+strings.Repeat("a", maxFormBytes+1))
	_, err := Params(httptest.NewRecorder(), r)
	assert.Error(t, err)
}

func newClients(t *testing.T) *memory.ClientStore {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	return memory.NewClientStore(
		repository.Client{ClientID: "web", SecretHash: string(h)},
		repository.Client{ClientID: "pub"},
	)
}

func TestClientAuthenticator(t *testing.T) {
	a := &ClientAuthenticator{Clients: newClients(t)}

	tests := []struct {
		name   string
		user   string
		pass   string
		params map[string]string
		want   string // client_id esperado; "" = error
	}{
		{name: "basic", user: "web", pass: "s3cret", want: "web"},
		{name: "form", params: map[string]string{"client_id": "web", "client_secret": "s3cret"}, want: "web"},
		{name: "public no secret", params: map[string]string{"client_id": "pub"}, want: "pub"},
		{name: "basic url-encoded", user: url.QueryEscape("web"), pass: url.QueryEscape("s3cret"), want: "web"},
		{name: "bad secret", user: "web", pass: "nope"},
		{name: "public with secret", params: map[string]string{"client_id": "pub", "client_secret": "x"}},
		{name: "unknown", user: "ghost", pass: "x"},
		{name: "missing"},
		{name: "basic and form mismatch", user: "web", pass: "s3cret", params: map[string]string{"client_id": "pub"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/oauth/token", nil)
			if tt.user != "" {
				r.SetBasicAuth(tt.user, tt.pass)
			}
			params := tt.params
			if params == nil {
				params = map[string]string{}
			}
			c, err := a.Authenticate(r, params)
			if tt.want == "" {
				var oe *oauth2errors.Error
				require.True(t, errors.As(err, &oe), "err=%v", err)
				assert.Equal(t, oauth2errors.CodeInvalidClient, oe.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.ClientID)
		})
	}
}

type fakeUsers map[string]string

func (f fakeUsers) Authenticate(_ context.Context, username, plain string) (string, error) {
	if pw, ok := f[username]; ok && pw == plain {
		return username, nil
	}
	return "", password.ErrBadCredentials
}

func TestUserPrincipal(t *testing.T) {
	users := fakeUsers{"alice": "pw"}

	r := httptest.NewRequest(http.MethodGet, "/oauth/authorize", nil)
	p, err := UserPrincipal(r, users)
	require.NoError(t, err)
	assert.False(t, p.IsAuthenticated())

	r.SetBasicAuth("alice", "pw")
	p, err = UserPrincipal(r, users)
	require.NoError(t, err)
	assert.True(t, p.IsAuthenticated())
	assert.Equal(t, "alice", p.Name)

	r.SetBasicAuth("alice", "wrong")
	_, err = UserPrincipal(r, users)
	assert.ErrorIs(t, err, ErrBadUserCredentials)
}
