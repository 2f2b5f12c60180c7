package tokenizer

import (
	"crypto/ecdsa"
	"fmt"
	"slices"

	"github.com/golang-jwt/jwt/v5"
	"github.com/layer-3/warden/core"
	"github.com/layer-3/warden/ports"
)

const AudienceAccess = "warden:access"

// JWTTokenizer implements the Tokenizer interface using ES256 JWTs
type JWTTokenizer struct {
	signKey *ecdsa.PrivateKey
}

// NewJWTTokenizer creates a new JWT tokenizer
func NewJWTTokenizer(signKey *ecdsa.PrivateKey) ports.Tokenizer {
	return &JWTTokenizer{signKey: signKey}
}

// Encode signs the token's binding into a JWT
func (j *JWTTokenizer) Encode(token core.AccessToken) (string, error) {
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   token.Account,
			ID:        token.ID,
			ExpiresAt: jwt.NewNumericDate(token.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(token.IssuedAt),
			Audience:  jwt.ClaimStrings{AudienceAccess},
		},
		Origin: token.Origin,
		Asset:  string(token.AssetRef),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return signed, nil
}

// Decode verifies the JWT signature and audience and returns its id.
// Claims validation is skipped: expiry and origin are checked against the
// token store, which runs on the gate's clock.
func (j *JWTTokenizer) Decode(value string) (string, error) {
	token, err := jwt.ParseWithClaims(value, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return &j.signKey.PublicKey, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", core.ErrInvalidToken)
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid || claims.ID == "" {
		return "", core.ErrInvalidToken
	}
	if !slices.Contains(claims.Audience, AudienceAccess) {
		return "", core.ErrInvalidToken
	}

	return claims.ID, nil
}
