package tokenizer

import "github.com/golang-jwt/jwt/v5"

// AccessClaims combines standard claims with the access token binding
type AccessClaims struct {
	jwt.RegisteredClaims
	Origin string `json:"origin"`
	Asset  string `json:"asset,omitempty"`
}
