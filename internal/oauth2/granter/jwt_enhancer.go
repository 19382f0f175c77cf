package granter

import (
	"context"
	"fmt"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/jwt"
)

// JWTEnhancer reemplaza el id opaco del access token por un JWT firmado.
// El id original queda como claim "jti" y en AdditionalInfo["jti"].
type JWTEnhancer struct {
	Signer *jwt.Signer
}

func (e *JWTEnhancer) Enhance(ctx context.Context, token *repository.AccessToken, client *repository.Client) (*repository.AccessToken, error) {
	out := token.Clone()

	claims := jwtv5.MapClaims{
		"jti":        token.ID,
		"client_id":  token.ClientID,
		"scope":      token.Scopes.String(),
		"grant_type": token.GrantType,
		"iat":        token.IssuedAt.Unix(),
		"exp":        token.ExpiresAt.Unix(),
	}
	if token.Username != "" {
		claims["sub"] = token.Username
	} else {
		claims["sub"] = token.ClientID
	}

	signed, err := e.Signer.SignRaw(claims)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	if out.AdditionalInfo == nil {
		out.AdditionalInfo = map[string]any{}
	}
	out.AdditionalInfo["jti"] = token.ID
	out.ID = signed
	return out, nil
}
