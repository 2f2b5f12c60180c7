package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/warden/core"
	"github.com/layer-3/warden/ports"
)

// TokenIssuer mints and redeems origin-bound access tokens
type TokenIssuer struct {
	store     ports.TokenStore
	tokenizer ports.Tokenizer
	ttl       time.Duration
}

// NewTokenIssuer creates a token issuer
func NewTokenIssuer(store ports.TokenStore, tokenizer ports.Tokenizer, ttl time.Duration) (*TokenIssuer, error) {
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &TokenIssuer{store: store, tokenizer: tokenizer, ttl: ttl}, nil
}

// Mint creates and stores a token valid for ttl from now
func (i *TokenIssuer) Mint(ctx context.Context, origin, account string, asset core.AssetRef, now time.Time) (core.AccessToken, error) {
	token := core.AccessToken{
		ID:        uuid.NewString(),
		Origin:    origin,
		Account:   account,
		AssetRef:  asset,
		IssuedAt:  now,
		ExpiresAt: now.Add(i.ttl),
	}

	value, err := i.tokenizer.Encode(token)
	if err != nil {
		return core.AccessToken{}, fmt.Errorf("failed to encode token: %w", err)
	}
	token.Value = value

	if err := i.store.Put(ctx, token); err != nil {
		return core.AccessToken{}, fmt.Errorf("failed to store token: %w", err)
	}

	return token, nil
}

// Redeem returns the token behind value if it is live and bound to origin.
// An expired token is deleted on the spot.
func (i *TokenIssuer) Redeem(ctx context.Context, value, origin string, now time.Time) (core.AccessToken, error) {
	id, err := i.tokenizer.Decode(value)
	if err != nil {
		return core.AccessToken{}, core.ErrTokenNotFound
	}

	token, err := i.store.Get(ctx, id)
	if err != nil {
		return core.AccessToken{}, err
	}
	// a forged or stale bearer string must not ride on a valid id
	if token.Value != value {
		return core.AccessToken{}, core.ErrTokenNotFound
	}

	if token.Expired(now) {
		if err := i.store.Delete(ctx, id); err != nil {
			return core.AccessToken{}, fmt.Errorf("failed to evict expired token: %w", err)
		}
		return core.AccessToken{}, core.ErrTokenExpired
	}

	if token.Origin != origin {
		return core.AccessToken{}, core.ErrTokenOriginMismatch
	}

	return token, nil
}
