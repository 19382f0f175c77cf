// Package scope valida scopes solicitados y resuelve la aprobación del usuario.
package scope

import (
	"strings"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/types"
	oauth2errors "github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/errors"
)

// Validate retorna true si requested está vacío o es subconjunto de allowed.
func Validate(allowed, requested types.ScopeSet) bool {
	if requested.IsEmpty() {
		return true
	}
	return requested.IsSubsetOf(allowed)
}

// Check es Validate con el error estándar invalid_scope.
func Check(allowed, requested types.ScopeSet) error {
	if !Validate(allowed, requested) {
		return oauth2errors.InvalidScope("invalid scope: " + requested.String())
	}
	return nil
}

// Resolve aplica el fallback (requested vacío = allowed) y valida.
func Resolve(allowed, requested types.ScopeSet) (types.ScopeSet, error) {
	if err := Check(allowed, requested); err != nil {
		return nil, err
	}
	return requested.OrDefault(allowed), nil
}

// ResolveApproval retorna los scopes de requested cuyo flag en form es
// "true" (case-insensitive). Claves que no son scopes se ignoran.
func ResolveApproval(requested types.ScopeSet, form map[string]string) (types.ScopeSet, error) {
	approved := types.NewScopeSet()
	for sc := range requested {
		if v, ok := form[sc]; ok && strings.EqualFold(strings.TrimSpace(v), "true") {
			approved[sc] = struct{}{}
		}
	}
	if approved.IsEmpty() {
		return nil, oauth2errors.UserDeniedAuthorization("user denied access")
	}
	return approved, nil
}
