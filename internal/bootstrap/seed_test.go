package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/security/password"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/store/memory"
)

func TestSeedIntoMemory(t *testing.T) {
	clients := memory.NewClientStore()
	users := memory.NewUserStore()
	scopes := memory.NewScopeStore()
	ctx := context.Background()

	res, err := Seed(ctx, Files{
		Clients: "testdata/clients.yaml",
		Users:   "testdata/users.yaml",
		Scopes:  "testdata/scopes.yaml",
	}, Targets{Clients: clients, Users: users, Scopes: scopes})
	require.NoError(t, err)
	assert.Equal(t, Result{Clients: 2, Users: 2, Scopes: 2}, res)

	web, err := clients.LoadClient(ctx, "web")
	require.NoError(t, err)
	assert.False(t, web.IsPublic())
	assert.True(t, password.Verify("web-secret", web.SecretHash))
	assert.Equal(t, []string{"read", "write"}, web.Scopes.Slice())
	assert.Equal(t, 3600, web.AccessTokenValiditySeconds)

	spa, err := clients.LoadClient(ctx, "spa")
	require.NoError(t, err)
	assert.True(t, spa.IsPublic())
	assert.Equal(t, []string{"profile", "read"}, spa.Scopes.Slice())

	alice, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, password.Verify("alice-pw", alice.PasswordHash))

	bob, err := users.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, bob.Disabled)

	scs, err := scopes.LoadByIDs(ctx, []string{"write"})
	require.NoError(t, err)
	require.Len(t, scs, 1)
	assert.Equal(t, "Write", scs[0].DisplayName)
}

func TestSeedSkipsEmptyPaths(t *testing.T) {
	res, err := Seed(context.Background(), Files{}, Targets{})
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestLoadClientsRejectsDuplicates(t *testing.T) {
	p := filepath.Join(t.TempDir(), "clients.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
clients:
  - client_id: web
  - client_id: web
`), 0o600))
	_, err := LoadClients(p)
	assert.ErrorContains(t, err, "duplicate")
}

func TestLoadUsersRequiresPassword(t *testing.T) {
	p := filepath.Join(t.TempDir(), "users.yaml")
	require.NoError(t, os.WriteFile(p, []byte("users:\n  - username: ghost\n"), 0o600))
	_, err := LoadUsers(p)
	assert.ErrorIs(t, err, password.ErrEmpty)
}

func TestLoadClientsValidates(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown grant", "clients:\n  - client_id: web\n    grant_types: [magic]\n", "unknown grant type"},
		{"relative redirect", "clients:\n  - client_id: web\n    redirect_uris: [/cb]\n", "must be absolute"},
		{"fragment redirect", "clients:\n  - client_id: web\n    redirect_uris: [\"https://a.example.com/cb#x\"]\n", "fragment"},
		{"bad scope", "clients:\n  - client_id: web\n    scopes: [\"a\\\\b\"]\n", "invalid scope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := filepath.Join(t.TempDir(), "clients.yaml")
			require.NoError(t, os.WriteFile(p, []byte(tt.yaml), 0o600))
			_, err := LoadClients(p)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoadScopesRejectsInvalidID(t *testing.T) {
	p := filepath.Join(t.TempDir(), "scopes.yaml")
	require.NoError(t, os.WriteFile(p, []byte("scopes:\n  - id: \"has space\"\n"), 0o600))
	_, err := LoadScopes(p)
	assert.ErrorContains(t, err, "invalid scope")
}
