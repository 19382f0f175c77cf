// Package validation chequea la forma de los datos que entran por seeds.
package validation

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2"
)

// scope-token (RFC 6749 §3.3): 1*( %x21 / %x23-5B / %x5D-7E ). Se acota a
// 128 chars para que entre cómodo en columnas e índices.
var scopeTokenRe = regexp.MustCompile(`^[\x21\x23-\x5B\x5D-\x7E]{1,128}$`)

// client_id (RFC 6749 A.1): *VSCHAR, acá no vacío y sin espacios a los bordes.
var clientIDRe = regexp.MustCompile(`^[\x21-\x7E](?:[\x20-\x7E]{0,126}[\x21-\x7E])?$`)

var knownGrants = map[string]bool{
	oauth2.GrantAuthorizationCode: true,
	oauth2.GrantClientCredentials: true,
	oauth2.GrantPassword:          true,
	oauth2.GrantRefreshToken:      true,
	oauth2.GrantImplicit:          true,
}

// ValidScopeName reporta si name es un scope-token válido.
func ValidScopeName(name string) bool {
	return scopeTokenRe.MatchString(name)
}

func ValidClientID(id string) bool {
	return clientIDRe.MatchString(id)
}

// GrantType retorna error si gt no es un grant soportado.
func GrantType(gt string) error {
	if !knownGrants[gt] {
		return fmt.Errorf("unknown grant type %q", gt)
	}
	return nil
}

// RedirectURI exige URI absoluta sin fragment (RFC 6749 §3.1.2).
func RedirectURI(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("redirect uri %q: %w", raw, err)
	}
	if !u.IsAbs() {
		return fmt.Errorf("redirect uri %q must be absolute", raw)
	}
	if u.Fragment != "" {
		return fmt.Errorf("redirect uri %q must not contain a fragment", raw)
	}
	return nil
}
