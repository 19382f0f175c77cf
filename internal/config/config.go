package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"` // debug | info | warn | error
	} `yaml:"log"`

	Server struct {
		Addr            string `yaml:"addr"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Storage struct {
		Driver   string `yaml:"driver"` // memory | postgres
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MaxIdleConns    int    `yaml:"max_idle_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
		Migrate bool `yaml:"migrate"` // aplicar migraciones al arrancar
	} `yaml:"storage"`

	// Cache respalda códigos de autorización, sesiones de autorización y rate limit.
	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		ClientTTL string `yaml:"client_ttl"` // cache del client directory
	} `yaml:"cache"`

	OAuth2 struct {
		AccessTokenValidity      string `yaml:"access_token_validity"`
		RefreshTokenValidity     string `yaml:"refresh_token_validity"`
		CodeTTL                  string `yaml:"code_ttl"`
		SessionTTL               string `yaml:"session_ttl"`
		ClientCredentialsRefresh bool   `yaml:"client_credentials_refresh"`
		TimeZone                 string `yaml:"time_zone"`
		SessionCookie            string `yaml:"session_cookie"`
		SessionCookieSecure      bool   `yaml:"session_cookie_secure"`
	} `yaml:"oauth2"`

	JWT struct {
		Enabled bool   `yaml:"enabled"`
		Issuer  string `yaml:"issuer"`
		Secret  string `yaml:"secret"` // HS256, >= 32 bytes
	} `yaml:"jwt"`

	Seed struct {
		Clients string `yaml:"clients"`
		Users   string `yaml:"users"`
		Scopes  string `yaml:"scopes"`
	} `yaml:"seed"`

	Rate struct {
		Enabled     bool   `yaml:"enabled"`
		Window      string `yaml:"window"`
		MaxRequests int    `yaml:"max_requests"`
	} `yaml:"rate"`
}

// Default retorna la config con todos los defaults aplicados, sin archivo.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

// Load lee el YAML de path (si path == "" solo aplica defaults + env),
// aplica overrides OAUTH_* y valida.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}

	c.applyEnvOverrides()
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}

	// Normalizar rutas de seeds (si relativas) respecto al directorio del YAML
	if path != "" {
		base := filepath.Dir(path)
		for _, p := range []*string{&c.Seed.Clients, &c.Seed.Users, &c.Seed.Scopes} {
			if v := strings.TrimSpace(*p); v != "" && !filepath.IsAbs(v) {
				*p = filepath.Clean(filepath.Join(base, v))
			}
		}
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "15s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "15s"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "oauthd:"
	}
	if c.Cache.ClientTTL == "" {
		c.Cache.ClientTTL = "30s"
	}
	if c.OAuth2.AccessTokenValidity == "" {
		c.OAuth2.AccessTokenValidity = "12h"
	}
	if c.OAuth2.RefreshTokenValidity == "" {
		c.OAuth2.RefreshTokenValidity = "720h" // 30d
	}
	if c.OAuth2.CodeTTL == "" {
		c.OAuth2.CodeTTL = "10m"
	}
	if c.OAuth2.SessionTTL == "" {
		c.OAuth2.SessionTTL = "15m"
	}
	if c.OAuth2.TimeZone == "" {
		c.OAuth2.TimeZone = "UTC"
	}
	if c.OAuth2.SessionCookie == "" {
		c.OAuth2.SessionCookie = "oauth_authz"
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 60
	}
}

// Validate chequea drivers, duraciones y la config JWT.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			errs = append(errs, errors.New("storage.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unknown %q", c.Storage.Driver))
	}

	switch c.Cache.Kind {
	case "memory":
	case "redis":
		if strings.TrimSpace(c.Cache.Redis.Addr) == "" {
			errs = append(errs, errors.New("cache.redis.addr is required for redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.kind: unknown %q", c.Cache.Kind))
	}

	durations := map[string]string{
		"server.read_timeout":           c.Server.ReadTimeout,
		"server.write_timeout":          c.Server.WriteTimeout,
		"server.shutdown_timeout":       c.Server.ShutdownTimeout,
		"cache.client_ttl":              c.Cache.ClientTTL,
		"oauth2.access_token_validity":  c.OAuth2.AccessTokenValidity,
		"oauth2.refresh_token_validity": c.OAuth2.RefreshTokenValidity,
		"oauth2.code_ttl":               c.OAuth2.CodeTTL,
		"oauth2.session_ttl":            c.OAuth2.SessionTTL,
		"rate.window":                   c.Rate.Window,
	}
	if c.Storage.Postgres.ConnMaxLifetime != "" {
		durations["storage.postgres.conn_max_lifetime"] = c.Storage.Postgres.ConnMaxLifetime
	}
	for key, v := range durations {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s: must be positive", key))
		}
	}

	if _, err := time.LoadLocation(c.OAuth2.TimeZone); err != nil {
		errs = append(errs, fmt.Errorf("oauth2.time_zone: %w", err))
	}

	if c.JWT.Enabled && len(c.JWT.Secret) < 32 {
		errs = append(errs, errors.New("jwt.secret must be at least 32 bytes"))
	}
	if c.Rate.Enabled && c.Rate.MaxRequests < 1 {
		errs = append(errs, errors.New("rate.max_requests must be >= 1"))
	}

	return errors.Join(errs...)
}

// Duration parsea un campo ya validado. Nunca falla tras Validate.
func Duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// Location retorna la zona horaria de introspección.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.OAuth2.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsProd reporta si APP_ENV es prod.
func (c *Config) IsProd() bool {
	return strings.EqualFold(c.App.Env, "prod")
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

// applyEnvOverrides: pisa el YAML con variables OAUTH_*.
func (c *Config) applyEnvOverrides() {
	str := func(key string, dst *string) {
		if v, ok := getEnvStr(key); ok {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := getEnvBool(key); ok {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := getEnvInt(key); ok {
			*dst = v
		}
	}

	if v, ok := getEnvStr("OAUTH_APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	str("OAUTH_LOG_LEVEL", &c.Log.Level)

	// SERVER
	str("OAUTH_SERVER_ADDR", &c.Server.Addr)

	// STORAGE
	str("OAUTH_STORAGE_DRIVER", &c.Storage.Driver)
	str("OAUTH_STORAGE_DSN", &c.Storage.DSN)
	integer("OAUTH_POSTGRES_MAX_OPEN_CONNS", &c.Storage.Postgres.MaxOpenConns)
	integer("OAUTH_POSTGRES_MAX_IDLE_CONNS", &c.Storage.Postgres.MaxIdleConns)
	str("OAUTH_POSTGRES_CONN_MAX_LIFETIME", &c.Storage.Postgres.ConnMaxLifetime)
	boolean("OAUTH_STORAGE_MIGRATE", &c.Storage.Migrate)

	// CACHE
	str("OAUTH_CACHE_KIND", &c.Cache.Kind)
	str("OAUTH_REDIS_ADDR", &c.Cache.Redis.Addr)
	str("OAUTH_REDIS_PASSWORD", &c.Cache.Redis.Password)
	integer("OAUTH_REDIS_DB", &c.Cache.Redis.DB)
	str("OAUTH_REDIS_PREFIX", &c.Cache.Redis.Prefix)

	// OAUTH2
	str("OAUTH_ACCESS_TOKEN_VALIDITY", &c.OAuth2.AccessTokenValidity)
	str("OAUTH_REFRESH_TOKEN_VALIDITY", &c.OAuth2.RefreshTokenValidity)
	str("OAUTH_CODE_TTL", &c.OAuth2.CodeTTL)
	str("OAUTH_SESSION_TTL", &c.OAuth2.SessionTTL)
	boolean("OAUTH_CLIENT_CREDENTIALS_REFRESH", &c.OAuth2.ClientCredentialsRefresh)
	str("OAUTH_TIME_ZONE", &c.OAuth2.TimeZone)

	// JWT
	boolean("OAUTH_JWT_ENABLED", &c.JWT.Enabled)
	str("OAUTH_JWT_ISSUER", &c.JWT.Issuer)
	str("OAUTH_JWT_SECRET", &c.JWT.Secret)

	// SEEDS
	str("OAUTH_SEED_CLIENTS", &c.Seed.Clients)
	str("OAUTH_SEED_USERS", &c.Seed.Users)
	str("OAUTH_SEED_SCOPES", &c.Seed.Scopes)

	// RATE
	boolean("OAUTH_RATE_ENABLED", &c.Rate.Enabled)
	str("OAUTH_RATE_WINDOW", &c.Rate.Window)
	integer("OAUTH_RATE_MAX_REQUESTS", &c.Rate.MaxRequests)
}
