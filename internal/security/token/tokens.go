// Package tokens genera identificadores de tokens y códigos.
package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	"github.com/google/uuid"
)

// GenerateOpaqueToken genera un token opaco aleatorio (base64url sin padding).
func GenerateOpaqueToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// SHA256Base64URL devuelve sha256(input) en base64url sin padding (para guardar en DB).
func SHA256Base64URL(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Generator produce IDs únicos para access/refresh tokens y códigos.
type Generator interface {
	NewID() (string, error)
}

// UUIDGenerator emite UUIDv4.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// OpaqueGenerator emite tokens aleatorios de Bytes bytes (default 32).
type OpaqueGenerator struct {
	Bytes int
}

func (g OpaqueGenerator) NewID() (string, error) {
	n := g.Bytes
	if n <= 0 {
		n = 32
	}
	return GenerateOpaqueToken(n)
}

// GeneratorFunc adapta una función a Generator.
type GeneratorFunc func() (string, error)

func (f GeneratorFunc) NewID() (string, error) { return f() }
