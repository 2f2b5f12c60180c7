package tokenizer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// LoadSigningKey parses a PEM encoded P-256 private key.
// An empty input yields a fresh key, which invalidates tokens on restart.
func LoadSigningKey(pemText string) (*ecdsa.PrivateKey, bool, error) {
	if strings.TrimSpace(pemText) == "" {
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, false, fmt.Errorf("failed to generate signing key: %w", err)
		}
		return key, true, nil
	}

	key, err := jwt.ParseECPrivateKeyFromPEM([]byte(pemText))
	if err != nil {
		return nil, false, fmt.Errorf("invalid token signing key: %w", err)
	}
	if key.Curve != elliptic.P256() {
		return nil, false, fmt.Errorf("token signing key must be on P-256, got %s", key.Curve.Params().Name)
	}
	return key, false, nil
}
