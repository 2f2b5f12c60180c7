package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/layer-3/warden/core"
	"github.com/layer-3/warden/ports"
)

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// ChallengeIssuer mints challenge strings and records them in a store
type ChallengeIssuer struct {
	store        ports.ChallengeStore
	vocabulary   []string
	suffixLength int
	ttl          time.Duration
}

// NewChallengeIssuer creates a challenge issuer
func NewChallengeIssuer(store ports.ChallengeStore, vocabulary []string, suffixLength int, ttl time.Duration) (*ChallengeIssuer, error) {
	if len(vocabulary) == 0 {
		return nil, errors.New("challenge vocabulary is empty")
	}
	if suffixLength < 10 {
		return nil, fmt.Errorf("challenge suffix length %d is below 10", suffixLength)
	}
	if ttl <= 0 {
		return nil, errors.New("challenge ttl must be positive")
	}
	return &ChallengeIssuer{
		store:        store,
		vocabulary:   vocabulary,
		suffixLength: suffixLength,
		ttl:          ttl,
	}, nil
}

// Issue creates a challenge for origin. Outstanding challenges of the same origin are kept.
func (i *ChallengeIssuer) Issue(ctx context.Context, origin string, now time.Time) (core.Challenge, error) {
	for {
		value, err := i.newValue()
		if err != nil {
			return core.Challenge{}, fmt.Errorf("failed to generate challenge: %w", err)
		}

		// the suffix carries enough entropy that this only loops on a broken reader
		if _, err := i.store.Find(ctx, origin, value, now); err == nil {
			continue
		} else if !errors.Is(err, core.ErrNoMatchingChallenge) {
			return core.Challenge{}, err
		}

		challenge := core.Challenge{
			Value:     value,
			Origin:    origin,
			IssuedAt:  now,
			ExpiresAt: now.Add(i.ttl),
		}
		if err := i.store.Add(ctx, challenge); err != nil {
			return core.Challenge{}, fmt.Errorf("failed to store challenge: %w", err)
		}
		return challenge, nil
	}
}

func (i *ChallengeIssuer) newValue() (string, error) {
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(i.vocabulary))))
	if err != nil {
		return "", err
	}
	suffix, err := randomString(i.suffixLength)
	if err != nil {
		return "", err
	}
	return i.vocabulary[idx.Int64()] + "-" + suffix, nil
}

func randomString(n int) (string, error) {
	size := big.NewInt(int64(len(suffixAlphabet)))
	out := make([]byte, n)
	for k := range out {
		idx, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		out[k] = suffixAlphabet[idx.Int64()]
	}
	return string(out), nil
}
