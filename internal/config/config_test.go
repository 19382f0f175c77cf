package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestDefaults(t *testing.T) {
	c := Default()
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "memory", c.Storage.Driver)
	assert.Equal(t, "memory", c.Cache.Kind)
	assert.Equal(t, 12*time.Hour, Duration(c.OAuth2.AccessTokenValidity))
	assert.Equal(t, 30*24*time.Hour, Duration(c.OAuth2.RefreshTokenValidity))
	assert.Equal(t, 10*time.Minute, Duration(c.OAuth2.CodeTTL))
	assert.Equal(t, time.UTC, c.Location())
	assert.NoError(t, c.Validate())
}

func TestLoadYAMLAndSeedPaths(t *testing.T) {
	p := writeYAML(t, `
server:
  addr: ":9000"
oauth2:
  access_token_validity: 1h
  client_credentials_refresh: true
  time_zone: America/Argentina/Buenos_Aires
seed:
  clients: seeds/clients.yaml
  users: /abs/users.yaml
`)
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, ":9000", c.Server.Addr)
	assert.Equal(t, time.Hour, Duration(c.OAuth2.AccessTokenValidity))
	assert.True(t, c.OAuth2.ClientCredentialsRefresh)
	assert.Equal(t, "America/Argentina/Buenos_Aires", c.Location().String())
	assert.Equal(t, filepath.Join(filepath.Dir(p), "seeds", "clients.yaml"), c.Seed.Clients)
	assert.Equal(t, "/abs/users.yaml", c.Seed.Users)
}

func TestEnvOverridesYAML(t *testing.T) {
	p := writeYAML(t, "server:\n  addr: \":9000\"\n")
	t.Setenv("OAUTH_SERVER_ADDR", ":7000")
	t.Setenv("OAUTH_RATE_ENABLED", "true")
	t.Setenv("OAUTH_RATE_MAX_REQUESTS", "5")

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, ":7000", c.Server.Addr)
	assert.True(t, c.Rate.Enabled)
	assert.Equal(t, 5, c.Rate.MaxRequests)
}

func TestValidateErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"postgres without dsn", "storage:\n  driver: postgres\n"},
		{"unknown storage", "storage:\n  driver: mongo\n"},
		{"redis without addr", "cache:\n  kind: redis\n"},
		{"bad duration", "oauth2:\n  code_ttl: soon\n"},
		{"negative duration", "oauth2:\n  code_ttl: -1m\n"},
		{"bad zone", "oauth2:\n  time_zone: Mars/Olympus\n"},
		{"short jwt secret", "jwt:\n  enabled: true\n  secret: short\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeYAML(t, tc.body))
			assert.Error(t, err)
		})
	}
}
