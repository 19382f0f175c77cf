package repository

import (
	"context"
	"slices"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/types"
)

// Client es un cliente OAuth2 registrado. Inmutable desde el core.
type Client struct {
	ClientID     string
	Name         string
	SecretHash   string // bcrypt; vacío = cliente público
	Scopes       types.ScopeSet
	RedirectURIs []string
	GrantTypes   []string

	AccessTokenValiditySeconds  int
	RefreshTokenValiditySeconds int
}

// IsPublic reporta si el cliente no tiene secret registrado.
func (c *Client) IsPublic() bool {
	return c.SecretHash == ""
}

// AllowsGrant reporta si grantType está entre los permitidos. Un cliente
// sin grant types registrados no tiene restricción.
func (c *Client) AllowsGrant(grantType string) bool {
	return len(c.GrantTypes) == 0 || slices.Contains(c.GrantTypes, grantType)
}

// HasRedirectURI compara por igualdad exacta (sin prefijos ni wildcards).
func (c *Client) HasRedirectURI(uri string) bool {
	return slices.Contains(c.RedirectURIs, uri)
}

// Clone retorna una copia profunda.
func (c Client) Clone() Client {
	c.Scopes = c.Scopes.Clone()
	c.RedirectURIs = slices.Clone(c.RedirectURIs)
	c.GrantTypes = slices.Clone(c.GrantTypes)
	return c
}

// ClientDirectory resuelve clientes por client_id.
type ClientDirectory interface {
	// LoadClient retorna ErrNotFound si el cliente no existe.
	LoadClient(ctx context.Context, clientID string) (*Client, error)
}

// ClientRepository agrega escritura para seeds y tooling.
type ClientRepository interface {
	ClientDirectory

	// Upsert crea o reemplaza el cliente.
	Upsert(ctx context.Context, client *Client) error

	// List retorna todos los clientes ordenados por client_id.
	List(ctx context.Context) ([]Client, error)
}
