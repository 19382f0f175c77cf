// Package bootstrap carga clientes, usuarios y scopes desde archivos YAML
// hacia los repositorios configurados (memory o postgres).
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/types"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/security/password"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/validation"
)

// ClientSeed es la forma YAML de un cliente. Secret en claro se hashea al
// cargar; en prod conviene usar secret_hash (ver `oauthd hash-secret`).
type ClientSeed struct {
	ClientID     string         `yaml:"client_id"`
	Name         string         `yaml:"name"`
	Secret       string         `yaml:"secret"`
	SecretHash   string         `yaml:"secret_hash"`
	Scopes       types.ScopeSet `yaml:"scopes"`
	RedirectURIs []string       `yaml:"redirect_uris"`
	GrantTypes   []string       `yaml:"grant_types"`

	AccessTokenValidity  int `yaml:"access_token_validity"`
	RefreshTokenValidity int `yaml:"refresh_token_validity"`
}

type UserSeed struct {
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
	Disabled     bool   `yaml:"disabled"`
}

type ScopeSeed struct {
	ID          string `yaml:"id"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
}

// Files agrupa las rutas de seeds; rutas vacías se omiten.
type Files struct {
	Clients string
	Users   string
	Scopes  string
}

// Targets son los repositorios destino.
type Targets struct {
	Clients repository.ClientRepository
	Users   repository.UserRepository
	Scopes  repository.ScopeRepository
}

// Result cuenta lo cargado.
type Result struct {
	Clients int
	Users   int
	Scopes  int
}

func readYAML(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// LoadClients parsea un archivo `clients: [...]`.
func LoadClients(path string) ([]repository.Client, error) {
	var doc struct {
		Clients []ClientSeed `yaml:"clients"`
	}
	if err := readYAML(path, &doc); err != nil {
		return nil, err
	}

	out := make([]repository.Client, 0, len(doc.Clients))
	seen := make(map[string]bool, len(doc.Clients))
	for i, cs := range doc.Clients {
		if cs.ClientID == "" {
			return nil, fmt.Errorf("%s: clients[%d]: client_id is required", path, i)
		}
		if !validation.ValidClientID(cs.ClientID) {
			return nil, fmt.Errorf("%s: clients[%d]: invalid client_id %q", path, i, cs.ClientID)
		}
		if err := validateClientSeed(cs); err != nil {
			return nil, fmt.Errorf("%s: client %q: %w", path, cs.ClientID, err)
		}
		if seen[cs.ClientID] {
			return nil, fmt.Errorf("%s: duplicate client_id %q", path, cs.ClientID)
		}
		seen[cs.ClientID] = true

		hash := cs.SecretHash
		if hash == "" && cs.Secret != "" {
			h, err := password.Hash(cs.Secret)
			if err != nil {
				return nil, fmt.Errorf("%s: client %q: %w", path, cs.ClientID, err)
			}
			hash = h
		}
		out = append(out, repository.Client{
			ClientID:                    cs.ClientID,
			Name:                        cs.Name,
			SecretHash:                  hash,
			Scopes:                      cs.Scopes,
			RedirectURIs:                cs.RedirectURIs,
			GrantTypes:                  cs.GrantTypes,
			AccessTokenValiditySeconds:  cs.AccessTokenValidity,
			RefreshTokenValiditySeconds: cs.RefreshTokenValidity,
		})
	}
	return out, nil
}

func validateClientSeed(cs ClientSeed) error {
	for sc := range cs.Scopes {
		if !validation.ValidScopeName(sc) {
			return fmt.Errorf("invalid scope %q", sc)
		}
	}
	for _, gt := range cs.GrantTypes {
		if err := validation.GrantType(gt); err != nil {
			return err
		}
	}
	for _, u := range cs.RedirectURIs {
		if err := validation.RedirectURI(u); err != nil {
			return err
		}
	}
	return nil
}

// LoadUsers parsea un archivo `users: [...]`.
func LoadUsers(path string) ([]repository.User, error) {
	var doc struct {
		Users []UserSeed `yaml:"users"`
	}
	if err := readYAML(path, &doc); err != nil {
		return nil, err
	}

	out := make([]repository.User, 0, len(doc.Users))
	for i, us := range doc.Users {
		if us.Username == "" {
			return nil, fmt.Errorf("%s: users[%d]: username is required", path, i)
		}
		hash := us.PasswordHash
		if hash == "" {
			h, err := password.Hash(us.Password)
			if err != nil {
				return nil, fmt.Errorf("%s: user %q: %w", path, us.Username, err)
			}
			hash = h
		}
		out = append(out, repository.User{Username: us.Username, PasswordHash: hash, Disabled: us.Disabled})
	}
	return out, nil
}

// LoadScopes parsea un archivo `scopes: [...]`.
func LoadScopes(path string) ([]repository.Scope, error) {
	var doc struct {
		Scopes []ScopeSeed `yaml:"scopes"`
	}
	if err := readYAML(path, &doc); err != nil {
		return nil, err
	}

	out := make([]repository.Scope, 0, len(doc.Scopes))
	for i, ss := range doc.Scopes {
		if ss.ID == "" {
			return nil, fmt.Errorf("%s: scopes[%d]: id is required", path, i)
		}
		if !validation.ValidScopeName(ss.ID) {
			return nil, fmt.Errorf("%s: scopes[%d]: invalid scope %q", path, i, ss.ID)
		}
		out = append(out, repository.Scope{ID: ss.ID, DisplayName: ss.DisplayName, Description: ss.Description})
	}
	return out, nil
}

// Seed carga los archivos presentes y hace upsert en los repositorios.
func Seed(ctx context.Context, files Files, to Targets) (Result, error) {
	log := logger.From(ctx).With(logger.Component("bootstrap"), logger.Op("Seed"))
	var res Result

	if files.Scopes != "" {
		scopes, err := LoadScopes(files.Scopes)
		if err != nil {
			return res, err
		}
		for _, sc := range scopes {
			if err := to.Scopes.Upsert(ctx, sc); err != nil {
				return res, fmt.Errorf("seed scope %q: %w", sc.ID, err)
			}
		}
		res.Scopes = len(scopes)
	}

	if files.Clients != "" {
		clients, err := LoadClients(files.Clients)
		if err != nil {
			return res, err
		}
		for i := range clients {
			if err := to.Clients.Upsert(ctx, &clients[i]); err != nil {
				return res, fmt.Errorf("seed client %q: %w", clients[i].ClientID, err)
			}
		}
		res.Clients = len(clients)
	}

	if files.Users != "" {
		users, err := LoadUsers(files.Users)
		if err != nil {
			return res, err
		}
		for i := range users {
			if err := to.Users.Upsert(ctx, &users[i]); err != nil {
				return res, fmt.Errorf("seed user %q: %w", users[i].Username, err)
			}
		}
		res.Users = len(users)
	}

	log.Info("seeds loaded",
		logger.Int("clients", res.Clients),
		logger.Int("users", res.Users),
		logger.Int("scopes", res.Scopes))
	return res, nil
}
