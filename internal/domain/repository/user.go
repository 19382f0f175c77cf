package repository

import "context"

// User es el resource owner autenticable por password.
type User struct {
	Username     string
	PasswordHash string // bcrypt
	Disabled     bool
}

// UserRepository define operaciones sobre usuarios.
type UserRepository interface {
	// GetByUsername retorna ErrNotFound si no existe.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// Upsert crea o reemplaza el usuario.
	Upsert(ctx context.Context, user *User) error
}
