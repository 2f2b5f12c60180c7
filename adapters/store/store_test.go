package store

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/warden/core"
	"github.com/layer-3/warden/ports"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const challengeTTL = 2 * time.Hour

func newChallenge(origin, value string, issued time.Time) core.Challenge {
	return core.Challenge{
		Value:     value,
		Origin:    origin,
		IssuedAt:  issued,
		ExpiresAt: issued.Add(challengeTTL),
	}
}

// redisClient returns a client for REDIS_URL or skips the test
func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestMemoryChallengeStore(t *testing.T) {
	runChallengeStoreTests(t, func() ports.ChallengeStore { return NewMemoryChallengeStore() })
}

func TestRedisChallengeStore(t *testing.T) {
	client := redisClient(t)
	runChallengeStoreTests(t, func() ports.ChallengeStore {
		s := NewRedisChallengeStore(client).(*RedisChallengeStore)
		s.prefix = "warden:test:" + uuid.NewString() + ":"
		return s
	})
}

func TestMemoryTokenStore(t *testing.T) {
	runTokenStoreTests(t, func() ports.TokenStore { return NewMemoryTokenStore() })
}

func TestRedisTokenStore(t *testing.T) {
	client := redisClient(t)
	runTokenStoreTests(t, func() ports.TokenStore {
		s := NewRedisTokenStore(client).(*RedisTokenStore)
		s.prefix = "warden:test:" + uuid.NewString() + ":"
		return s
	})
}

func runChallengeStoreTests(t *testing.T, newStore func() ports.ChallengeStore) {
	ctx := context.Background()
	// Redis drops keys whose expiry has passed, so every test is anchored on the wall clock
	base := time.Now()

	t.Run("live returns challenges of the origin in issuance order", func(t *testing.T) {
		s := newStore()
		require.NoError(t, s.Add(ctx, newChallenge("1.2.3.4", "Kovan-aaaaaaaaaa", base)))
		require.NoError(t, s.Add(ctx, newChallenge("5.6.7.8", "Kovan-bbbbbbbbbb", base)))
		require.NoError(t, s.Add(ctx, newChallenge("1.2.3.4", "Goerli-cccccccccc", base.Add(time.Second))))

		live, err := s.Live(ctx, "1.2.3.4", base.Add(time.Minute))
		require.NoError(t, err)
		require.Len(t, live, 2)
		assert.Equal(t, "Kovan-aaaaaaaaaa", live[0].Value)
		assert.Equal(t, "Goerli-cccccccccc", live[1].Value)
	})

	t.Run("expired challenges are evicted while scanning", func(t *testing.T) {
		s := newStore()
		require.NoError(t, s.Add(ctx, newChallenge("1.2.3.4", "Kovan-old0000000", base)))
		require.NoError(t, s.Add(ctx, newChallenge("1.2.3.4", "Kovan-new0000000", base.Add(time.Hour))))

		now := base.Add(challengeTTL)
		live, err := s.Live(ctx, "1.2.3.4", now)
		require.NoError(t, err)
		require.Len(t, live, 1)
		assert.Equal(t, "Kovan-new0000000", live[0].Value)

		// the evicted entry is gone even for an earlier clock
		live, err = s.Live(ctx, "1.2.3.4", base)
		require.NoError(t, err)
		require.Len(t, live, 1)
	})

	t.Run("find treats missing and expired alike", func(t *testing.T) {
		s := newStore()
		require.NoError(t, s.Add(ctx, newChallenge("1.2.3.4", "Rinkeby-abc1234567", base)))

		c, err := s.Find(ctx, "1.2.3.4", "Rinkeby-abc1234567", base.Add(challengeTTL-time.Millisecond))
		require.NoError(t, err)
		assert.Equal(t, "Rinkeby-abc1234567", c.Value)

		_, errExpired := s.Find(ctx, "1.2.3.4", "Rinkeby-abc1234567", base.Add(challengeTTL))
		_, errMissing := s.Find(ctx, "9.9.9.9", "Rinkeby-abc1234567", base)
		assert.ErrorIs(t, errExpired, core.ErrNoMatchingChallenge)
		assert.Equal(t, errMissing, errExpired)
	})

	t.Run("values may contain the member separator", func(t *testing.T) {
		s := newStore()
		c := newChallenge("1.2.3.4", "Ro|psten-4444444444", base)
		require.NoError(t, s.Add(ctx, c))

		live, err := s.Live(ctx, "1.2.3.4", base)
		require.NoError(t, err)
		require.Len(t, live, 1)
		assert.Equal(t, c.Value, live[0].Value)
		assert.True(t, c.ExpiresAt.Equal(live[0].ExpiresAt))

		ok, err := s.Consume(ctx, live[0])
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("consume removes exactly one entry", func(t *testing.T) {
		s := newStore()
		first := newChallenge("1.2.3.4", "Olympic-1111111111", base)
		second := newChallenge("1.2.3.4", "Olympic-2222222222", base)
		require.NoError(t, s.Add(ctx, first))
		require.NoError(t, s.Add(ctx, second))

		ok, err := s.Consume(ctx, first)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.Consume(ctx, first)
		require.NoError(t, err)
		assert.False(t, ok)

		live, err := s.Live(ctx, "1.2.3.4", base)
		require.NoError(t, err)
		require.Len(t, live, 1)
		assert.Equal(t, second.Value, live[0].Value)
	})

	t.Run("concurrent consume has a single winner", func(t *testing.T) {
		s := newStore()
		c := newChallenge("1.2.3.4", "Morden-3333333333", base)
		require.NoError(t, s.Add(ctx, c))

		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := s.Consume(ctx, c)
				assert.NoError(t, err)
				if ok {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), wins.Load())
	})

	t.Run("sweep removes every expired challenge", func(t *testing.T) {
		s := newStore()
		require.NoError(t, s.Add(ctx, newChallenge("1.1.1.1", "Ropsten-aaaaaaaaaa", base)))
		require.NoError(t, s.Add(ctx, newChallenge("2.2.2.2", "Ropsten-bbbbbbbbbb", base)))
		require.NoError(t, s.Add(ctx, newChallenge("2.2.2.2", "Ropsten-cccccccccc", base.Add(time.Hour))))

		removed, err := s.Sweep(ctx, base.Add(challengeTTL))
		require.NoError(t, err)
		assert.Equal(t, 2, removed)

		live, err := s.Live(ctx, "2.2.2.2", base.Add(challengeTTL))
		require.NoError(t, err)
		assert.Len(t, live, 1)
	})
}

func runTokenStoreTests(t *testing.T, newStore func() ports.TokenStore) {
	ctx := context.Background()
	base := time.Now()

	token := core.AccessToken{
		ID:        uuid.NewString(),
		Value:     "bearer",
		Origin:    "1.2.3.4",
		Account:   "0xabc",
		AssetRef:  "42",
		IssuedAt:  base,
		ExpiresAt: base.Add(24 * time.Hour),
	}

	t.Run("put and get", func(t *testing.T) {
		s := newStore()
		require.NoError(t, s.Put(ctx, token))

		got, err := s.Get(ctx, token.ID)
		require.NoError(t, err)
		assert.Equal(t, token.Origin, got.Origin)
		assert.Equal(t, token.AssetRef, got.AssetRef)
		assert.True(t, token.ExpiresAt.Equal(got.ExpiresAt))
	})

	t.Run("missing token", func(t *testing.T) {
		s := newStore()
		_, err := s.Get(ctx, "nope")
		assert.ErrorIs(t, err, core.ErrTokenNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore()
		require.NoError(t, s.Put(ctx, token))
		require.NoError(t, s.Delete(ctx, token.ID))
		_, err := s.Get(ctx, token.ID)
		assert.ErrorIs(t, err, core.ErrTokenNotFound)
	})

	t.Run("sweep drops expired tokens only", func(t *testing.T) {
		s := newStore()
		short := token
		short.ID = uuid.NewString()
		short.ExpiresAt = base.Add(time.Hour)
		require.NoError(t, s.Put(ctx, token))
		require.NoError(t, s.Put(ctx, short))

		removed, err := s.Sweep(ctx, base.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1, removed)

		_, err = s.Get(ctx, token.ID)
		assert.NoError(t, err)
		_, err = s.Get(ctx, short.ID)
		assert.ErrorIs(t, err, core.ErrTokenNotFound)
	})
}

func TestDecodeChallengeMember(t *testing.T) {
	issued := time.Unix(0, 1700000000000000000)
	c := newChallenge("1.2.3.4", "Ko|van-5555555555", issued)

	got, err := decodeChallenge("1.2.3.4", encodeChallenge(c))
	require.NoError(t, err)
	assert.Equal(t, c.Value, got.Value)
	assert.True(t, c.IssuedAt.Equal(got.IssuedAt))
	assert.True(t, c.ExpiresAt.Equal(got.ExpiresAt))

	for _, bad := range []string{"Kovan", "Kovan|12", "Kovan|x|12", "Kovan|12|y"} {
		_, err := decodeChallenge("1.2.3.4", bad)
		assert.Error(t, err, bad)
	}
}
