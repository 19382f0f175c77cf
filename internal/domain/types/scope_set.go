// Package types define tipos de dominio compartidos entre paquetes.
package types

import (
	"encoding/json"
	"sort"
	"strings"
)

// ScopeSet es un conjunto de scopes OAuth2: sin orden y sin duplicados.
// El zero value (nil) es un set vacío válido para lectura.
type ScopeSet map[string]struct{}

// NewScopeSet construye un set ignorando entradas vacías.
func NewScopeSet(scopes ...string) ScopeSet {
	s := make(ScopeSet, len(scopes))
	for _, sc := range scopes {
		sc = strings.TrimSpace(sc)
		if sc != "" {
			s[sc] = struct{}{}
		}
	}
	return s
}

// ParseScopes parsea el formato space-delimited de RFC 6749 §3.3.
func ParseScopes(raw string) ScopeSet {
	return NewScopeSet(strings.Fields(raw)...)
}

// IsEmpty reporta si el set no tiene scopes.
func (s ScopeSet) IsEmpty() bool {
	return len(s) == 0
}

// Contains reporta si scope pertenece al set.
func (s ScopeSet) Contains(scope string) bool {
	_, ok := s[scope]
	return ok
}

// IsSubsetOf reporta si todos los scopes de s están en other.
func (s ScopeSet) IsSubsetOf(other ScopeSet) bool {
	for sc := range s {
		if !other.Contains(sc) {
			return false
		}
	}
	return true
}

// Equal compara dos sets.
func (s ScopeSet) Equal(other ScopeSet) bool {
	return len(s) == len(other) && s.IsSubsetOf(other)
}

// Clone retorna una copia independiente.
func (s ScopeSet) Clone() ScopeSet {
	out := make(ScopeSet, len(s))
	for sc := range s {
		out[sc] = struct{}{}
	}
	return out
}

// Slice retorna los scopes ordenados alfabéticamente.
func (s ScopeSet) Slice() []string {
	out := make([]string, 0, len(s))
	for sc := range s {
		out = append(out, sc)
	}
	sort.Strings(out)
	return out
}

// String retorna los scopes space-joined (orden estable).
func (s ScopeSet) String() string {
	return strings.Join(s.Slice(), " ")
}

// OrDefault retorna s si no está vacío, o una copia de fallback.
func (s ScopeSet) OrDefault(fallback ScopeSet) ScopeSet {
	if !s.IsEmpty() {
		return s.Clone()
	}
	return fallback.Clone()
}

// MarshalJSON serializa como array ordenado.
func (s ScopeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// UnmarshalJSON acepta un array de strings.
func (s *ScopeSet) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*s = NewScopeSet(list...)
	return nil
}

// UnmarshalYAML acepta una lista o un string space-delimited.
func (s *ScopeSet) UnmarshalYAML(unmarshal func(any) error) error {
	var list []string
	if err := unmarshal(&list); err == nil {
		*s = NewScopeSet(list...)
		return nil
	}
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	*s = ParseScopes(raw)
	return nil
}
