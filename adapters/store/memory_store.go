package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/warden/core"
	"github.com/layer-3/warden/ports"
)

// MemoryChallengeStore is an in-memory implementation of the ChallengeStore interface
type MemoryChallengeStore struct {
	byOrigin map[string][]core.Challenge
	mu       sync.Mutex
}

// NewMemoryChallengeStore creates a new in-memory challenge store
func NewMemoryChallengeStore() ports.ChallengeStore {
	return &MemoryChallengeStore{
		byOrigin: make(map[string][]core.Challenge),
	}
}

// Add appends a challenge to its origin's list
func (s *MemoryChallengeStore) Add(ctx context.Context, challenge core.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byOrigin[challenge.Origin] = append(s.byOrigin[challenge.Origin], challenge)
	return nil
}

// Live returns the unexpired challenges of origin, evicting expired ones while scanning
func (s *MemoryChallengeStore) Live(ctx context.Context, origin string, now time.Time) ([]core.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := s.compact(origin, now)
	out := make([]core.Challenge, len(live))
	copy(out, live)
	return out, nil
}

// Find returns the unexpired challenge of origin with the given value
func (s *MemoryChallengeStore) Find(ctx context.Context, origin, value string, now time.Time) (core.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.compact(origin, now) {
		if c.Value == value {
			return c, nil
		}
	}
	return core.Challenge{}, core.ErrNoMatchingChallenge
}

// Consume removes the challenge if it is still present
func (s *MemoryChallengeStore) Consume(ctx context.Context, challenge core.Challenge) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.byOrigin[challenge.Origin]
	for i, c := range list {
		if c.Value != challenge.Value {
			continue
		}
		list = append(list[:i:i], list[i+1:]...)
		if len(list) == 0 {
			delete(s.byOrigin, challenge.Origin)
		} else {
			s.byOrigin[challenge.Origin] = list
		}
		return true, nil
	}
	return false, nil
}

// Sweep removes every expired challenge
func (s *MemoryChallengeStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for origin, list := range s.byOrigin {
		removed += len(list) - len(s.compact(origin, now))
	}
	return removed, nil
}

// compact filters the origin's list down to live entries. Caller holds mu.
func (s *MemoryChallengeStore) compact(origin string, now time.Time) []core.Challenge {
	list := s.byOrigin[origin]
	live := list[:0]
	for _, c := range list {
		if !c.Expired(now) {
			live = append(live, c)
		}
	}
	if len(live) == 0 {
		delete(s.byOrigin, origin)
		return nil
	}
	// drop references held by the tail of the old backing array
	clear(list[len(live):])
	s.byOrigin[origin] = live
	return live
}

// MemoryTokenStore is an in-memory implementation of the TokenStore interface
type MemoryTokenStore struct {
	tokens map[string]core.AccessToken
	mu     sync.RWMutex
}

// NewMemoryTokenStore creates a new in-memory token store
func NewMemoryTokenStore() ports.TokenStore {
	return &MemoryTokenStore{
		tokens: make(map[string]core.AccessToken),
	}
}

// Put stores a token under its id
func (s *MemoryTokenStore) Put(ctx context.Context, token core.AccessToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[token.ID] = token
	return nil
}

// Get retrieves a token by id
func (s *MemoryTokenStore) Get(ctx context.Context, id string) (core.AccessToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[id]
	if !ok {
		return core.AccessToken{}, core.ErrTokenNotFound
	}
	return token, nil
}

// Delete removes a token
func (s *MemoryTokenStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, id)
	return nil
}

// Sweep removes every expired token
func (s *MemoryTokenStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, token := range s.tokens {
		if token.Expired(now) {
			delete(s.tokens, id)
			removed++
		}
	}
	return removed, nil
}
