package ports

import (
	"context"
	"time"

	"github.com/layer-3/warden/core"
)

// ChallengeStore holds pending challenges keyed by origin
type ChallengeStore interface {
	// Add stores a freshly issued challenge
	Add(ctx context.Context, challenge core.Challenge) error

	// Live returns the unexpired challenges of origin in issuance order,
	// evicting any expired entry met on the way
	Live(ctx context.Context, origin string, now time.Time) ([]core.Challenge, error)

	// Find returns the unexpired challenge of origin with the given value
	Find(ctx context.Context, origin, value string, now time.Time) (core.Challenge, error)

	// Consume removes exactly one challenge. It reports true only to the caller
	// that actually removed it.
	Consume(ctx context.Context, challenge core.Challenge) (bool, error)

	// Sweep removes every challenge expired at now and returns how many were removed
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// TokenStore holds live access tokens keyed by token id
type TokenStore interface {
	Put(ctx context.Context, token core.AccessToken) error
	Get(ctx context.Context, id string) (core.AccessToken, error)
	Delete(ctx context.Context, id string) error
	Sweep(ctx context.Context, now time.Time) (int, error)
}
