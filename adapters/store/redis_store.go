package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/layer-3/warden/core"
	"github.com/layer-3/warden/ports"
	"github.com/redis/go-redis/v9"
)

// RedisChallengeStore keeps each origin's challenges in a sorted set scored by expiry
type RedisChallengeStore struct {
	client *redis.Client
	prefix string
}

// NewRedisChallengeStore creates a new Redis challenge store
func NewRedisChallengeStore(client *redis.Client) ports.ChallengeStore {
	return &RedisChallengeStore{
		client: client,
		prefix: "warden:challenges:",
	}
}

// Add stores the challenge and sets the origin key to expire with it. Challenges share
// one TTL, so the newest member always expires last.
func (s *RedisChallengeStore) Add(ctx context.Context, challenge core.Challenge) error {
	key := s.prefix + challenge.Origin

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(challenge.ExpiresAt.UnixNano()),
		Member: encodeChallenge(challenge),
	})
	pipe.PExpireAt(ctx, key, challenge.ExpiresAt)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to add challenge: %w", err)
	}

	return nil
}

// Live returns the unexpired challenges of origin, removing expired members it meets
func (s *RedisChallengeStore) Live(ctx context.Context, origin string, now time.Time) ([]core.Challenge, error) {
	key := s.prefix + origin

	members, err := s.client.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}

	var live []core.Challenge
	var expired []interface{}
	for _, m := range members {
		c, err := decodeChallenge(origin, m)
		if err != nil || c.Expired(now) {
			expired = append(expired, m)
			continue
		}
		live = append(live, c)
	}

	if len(expired) > 0 {
		if err := s.client.ZRem(ctx, key, expired...).Err(); err != nil {
			return nil, fmt.Errorf("failed to evict challenges: %w", err)
		}
	}

	return live, nil
}

// Find returns the unexpired challenge of origin with the given value
func (s *RedisChallengeStore) Find(ctx context.Context, origin, value string, now time.Time) (core.Challenge, error) {
	live, err := s.Live(ctx, origin, now)
	if err != nil {
		return core.Challenge{}, err
	}
	for _, c := range live {
		if c.Value == value {
			return c, nil
		}
	}
	return core.Challenge{}, core.ErrNoMatchingChallenge
}

// Consume removes the challenge; ZREM's reply count makes exactly one caller win
func (s *RedisChallengeStore) Consume(ctx context.Context, challenge core.Challenge) (bool, error) {
	n, err := s.client.ZRem(ctx, s.prefix+challenge.Origin, encodeChallenge(challenge)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to consume challenge: %w", err)
	}
	return n == 1, nil
}

// Sweep removes every challenge whose expiry is at or before now
func (s *RedisChallengeStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	upper := strconv.FormatInt(now.UnixNano(), 10)
	removed := 0

	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n, err := s.client.ZRemRangeByScore(ctx, iter.Val(), "-inf", upper).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to sweep challenges: %w", err)
		}
		removed += int(n)
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan challenges: %w", err)
	}

	return removed, nil
}

// encodeChallenge packs value and timestamps into a sorted set member
func encodeChallenge(c core.Challenge) string {
	return fmt.Sprintf("%s|%d|%d", c.Value, c.IssuedAt.UnixNano(), c.ExpiresAt.UnixNano())
}

// decodeChallenge reads the timestamps from the right so the value may hold any character
func decodeChallenge(origin, member string) (core.Challenge, error) {
	rest, expiresText, ok := cutLast(member, "|")
	if !ok {
		return core.Challenge{}, fmt.Errorf("malformed challenge member %q", member)
	}
	value, issuedText, ok := cutLast(rest, "|")
	if !ok {
		return core.Challenge{}, fmt.Errorf("malformed challenge member %q", member)
	}
	issued, err := strconv.ParseInt(issuedText, 10, 64)
	if err != nil {
		return core.Challenge{}, err
	}
	expires, err := strconv.ParseInt(expiresText, 10, 64)
	if err != nil {
		return core.Challenge{}, err
	}
	return core.Challenge{
		Value:     value,
		Origin:    origin,
		IssuedAt:  time.Unix(0, issued),
		ExpiresAt: time.Unix(0, expires),
	}, nil
}

func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}

// tokenRecord is the JSON form of an access token in Redis
type tokenRecord struct {
	ID        string    `json:"id"`
	Value     string    `json:"value"`
	Origin    string    `json:"origin"`
	Account   string    `json:"account"`
	AssetRef  string    `json:"asset_ref"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RedisTokenStore stores access tokens as JSON strings that Redis expires on its own
type RedisTokenStore struct {
	client *redis.Client
	prefix string
}

// NewRedisTokenStore creates a new Redis token store
func NewRedisTokenStore(client *redis.Client) ports.TokenStore {
	return &RedisTokenStore{
		client: client,
		prefix: "warden:token:",
	}
}

// Put stores a token with an absolute expiry
func (s *RedisTokenStore) Put(ctx context.Context, token core.AccessToken) error {
	payload, err := json.Marshal(tokenRecord{
		ID:        token.ID,
		Value:     token.Value,
		Origin:    token.Origin,
		Account:   token.Account,
		AssetRef:  string(token.AssetRef),
		IssuedAt:  token.IssuedAt,
		ExpiresAt: token.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	err = s.client.SetArgs(ctx, s.prefix+token.ID, payload, redis.SetArgs{ExpireAt: token.ExpiresAt}).Err()
	if err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	return nil
}

// Get retrieves a token by id
func (s *RedisTokenStore) Get(ctx context.Context, id string) (core.AccessToken, error) {
	payload, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return core.AccessToken{}, core.ErrTokenNotFound
		}
		return core.AccessToken{}, fmt.Errorf("failed to get token: %w", err)
	}

	var rec tokenRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return core.AccessToken{}, fmt.Errorf("failed to unmarshal token: %w", err)
	}

	return core.AccessToken{
		ID:        rec.ID,
		Value:     rec.Value,
		Origin:    rec.Origin,
		Account:   rec.Account,
		AssetRef:  core.AssetRef(rec.AssetRef),
		IssuedAt:  rec.IssuedAt,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

// Delete removes a token
func (s *RedisTokenStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// Sweep deletes tokens already expired at now that Redis has not dropped yet
func (s *RedisTokenStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	removed := 0

	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		id := strings.TrimPrefix(iter.Val(), s.prefix)
		token, err := s.Get(ctx, id)
		if err != nil {
			if errors.Is(err, core.ErrTokenNotFound) {
				continue
			}
			return removed, err
		}
		if !token.Expired(now) {
			continue
		}
		if err := s.Delete(ctx, id); err != nil {
			return removed, err
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan tokens: %w", err)
	}

	return removed, nil
}
