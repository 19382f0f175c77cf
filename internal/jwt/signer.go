// Package jwt firma y valida access tokens en formato JWT.
package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid_jwt")
	ErrInvalidIssuer = errors.New("invalid_issuer")
)

// Signer firma claims con HS256 (secreto compartido) o EdDSA (ed25519).
type Signer struct {
	Iss string // "iss"
	KID string

	method  jwtv5.SigningMethod
	signKey any
	verKey  any
}

// NewHS256Signer crea un signer HMAC-SHA256. El secreto debe tener al menos 32 bytes.
func NewHS256Signer(secret []byte, iss string) (*Signer, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("jwt: hs256 secret must be at least 32 bytes, got %d", len(secret))
	}
	return &Signer{Iss: iss, method: jwtv5.SigningMethodHS256, signKey: secret, verKey: secret}, nil
}

// NewEd25519Signer crea un signer EdDSA desde una seed de 32 bytes.
func NewEd25519Signer(seed []byte, kid, iss string) (*Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("jwt: ed25519 seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Signer{
		Iss:     iss,
		KID:     kid,
		method:  jwtv5.SigningMethodEdDSA,
		signKey: priv,
		verKey:  priv.Public(),
	}, nil
}

// Algorithm retorna el "alg" del header.
func (s *Signer) Algorithm() string {
	return s.method.Alg()
}

// SignRaw firma un MapClaims arbitrario, setea header kid/typ y devuelve el JWT firmado.
// Si claims no trae "iss", usa s.Iss.
func (s *Signer) SignRaw(claims jwtv5.MapClaims) (string, error) {
	if _, ok := claims["iss"]; !ok && s.Iss != "" {
		claims["iss"] = s.Iss
	}
	tk := jwtv5.NewWithClaims(s.method, claims)
	if s.KID != "" {
		tk.Header["kid"] = s.KID
	}
	tk.Header["typ"] = "JWT"
	return tk.SignedString(s.signKey)
}

// Parse valida firma, iss y exp (con 30s de tolerancia, contra now) y
// devuelve las claims.
func (s *Signer) Parse(token string, now time.Time) (map[string]any, error) {
	tok, err := jwtv5.Parse(token,
		func(*jwtv5.Token) (any, error) { return s.verKey, nil },
		jwtv5.WithValidMethods([]string{s.method.Alg()}),
		jwtv5.WithTimeFunc(func() time.Time { return now }),
		jwtv5.WithLeeway(30*time.Second),
	)
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if s.Iss != "" {
		if iss, _ := claims["iss"].(string); iss != s.Iss {
			return nil, ErrInvalidIssuer
		}
	}

	out := make(map[string]any, len(claims))
	for k, v := range claims {
		out[k] = v
	}
	return out, nil
}
