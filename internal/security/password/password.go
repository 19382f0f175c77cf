// Package password hashea y verifica secretos de usuarios y clientes.
// Acepta hashes bcrypt ($2a$/$2b$/$2y$) y argon2id (PHC).
package password

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
)

var (
	ErrEmpty           = errors.New("empty password")
	ErrBadCredentials  = errors.New("bad credentials")
	ErrAccountDisabled = errors.New("account disabled")
)

// Hash devuelve un hash bcrypt con el costo por defecto.
func Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmpty
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(b), nil
}

// Verify compara plain contra hash (bcrypt o argon2id) en tiempo constante.
func Verify(plain, hash string) bool {
	if plain == "" || hash == "" {
		return false
	}
	if strings.HasPrefix(hash, argon2Prefix) {
		return verifyArgon2id(plain, hash)
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// dummyHash se compara cuando el usuario no existe, para no filtrar por timing
// qué usernames son válidos.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)

// Authenticator verifica resource owners contra un UserRepository.
type Authenticator struct {
	Users repository.UserRepository
}

// Authenticate retorna el username canónico si las credenciales son válidas.
// Errores: ErrBadCredentials, ErrAccountDisabled o un error del repositorio.
func (a *Authenticator) Authenticate(ctx context.Context, username, plain string) (string, error) {
	u, err := a.Users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plain))
			return "", ErrBadCredentials
		}
		return "", err
	}
	if !Verify(plain, u.PasswordHash) {
		return "", ErrBadCredentials
	}
	if u.Disabled {
		return "", ErrAccountDisabled
	}
	return u.Username, nil
}

// CheckClientSecret verifica el secreto de un cliente confidencial.
// Un cliente público (sin SecretHash) solo pasa con secret vacío.
func CheckClientSecret(c *repository.Client, secret string) bool {
	if c.IsPublic() {
		return secret == ""
	}
	return Verify(secret, c.SecretHash)
}
