package service

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/warden/adapters/signature"
	"github.com/layer-3/warden/adapters/store"
	"github.com/layer-3/warden/adapters/tokenizer"
	"github.com/layer-3/warden/core"
	"github.com/layer-3/warden/ports"
	"github.com/stretchr/testify/require"
)

var testVocabulary = []string{"Olympic", "Frontier", "Homestead", "Metropolis", "Byzantium", "Constantinople", "Istanbul", "Morden", "Ropsten", "Kovan", "Rinkeby", "Goerli"}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeOracle answers ownership queries from in-memory tables.
// With hang set every call blocks until its context is done.
type fakeOracle struct {
	mu       sync.Mutex
	owners   map[core.AssetRef]string
	balances map[string]bool
	holders  map[string]bool
	err      error
	hang     bool
	calls    []string
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{
		owners:   make(map[core.AssetRef]string),
		balances: make(map[string]bool),
		holders:  make(map[string]bool),
	}
}

// call records the query and returns the configured failure, if any
func (o *fakeOracle) call(ctx context.Context, name string) error {
	o.mu.Lock()
	o.calls = append(o.calls, name)
	hang, err := o.hang, o.err
	o.mu.Unlock()

	if hang {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (o *fakeOracle) ResolveSingleOwner(ctx context.Context, asset core.AssetRef) (string, error) {
	if err := o.call(ctx, "single"); err != nil {
		return "", err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.owners[asset], nil
}

func (o *fakeOracle) ResolveBalanceOwner(ctx context.Context, account string, asset core.AssetRef) (bool, error) {
	if err := o.call(ctx, "balance"); err != nil {
		return false, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.balances[strings.ToLower(account)+"|"+string(asset)], nil
}

func (o *fakeOracle) ResolveCollectionHolder(ctx context.Context, account string) (bool, error) {
	if err := o.call(ctx, "collection"); err != nil {
		return false, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.holders[strings.ToLower(account)], nil
}

func (o *fakeOracle) Calls() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.calls...)
}

// recordingPublisher keeps the reasons of denied events
type recordingPublisher struct {
	mu      sync.Mutex
	issued  int
	granted int
	denied  []string
}

func (p *recordingPublisher) PublishChallengeIssued(context.Context, core.Challenge) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.issued++
	return nil
}

func (p *recordingPublisher) PublishAccessGranted(context.Context, core.AccessToken) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.granted++
	return nil
}

func (p *recordingPublisher) PublishAccessDenied(_ context.Context, _ string, _ core.Ownership, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.denied = append(p.denied, reason)
	return nil
}

type wallet struct {
	key     string
	address string
}

func newWallet(t *testing.T) wallet {
	t.Helper()
	prv, err := crypto.GenerateKey()
	require.NoError(t, err)
	return wallet{
		key:     hex.EncodeToString(crypto.FromECDSA(prv)),
		address: crypto.PubkeyToAddress(prv.PublicKey).Hex(),
	}
}

func (w wallet) sign(t *testing.T, message string) string {
	t.Helper()
	sig, err := signature.Sign(message, w.key)
	require.NoError(t, err)
	return sig
}

type gateFixture struct {
	gate       *Gate
	clock      *testClock
	oracle     *fakeOracle
	events     *recordingPublisher
	challenges ports.ChallengeStore
	tokens     ports.TokenStore
	logs       *bytes.Buffer
}

func newGateFixture(t *testing.T, mutate ...func(*GateConfig)) *gateFixture {
	t.Helper()

	cfg := GateConfig{
		ChallengeTTL:  2 * time.Hour,
		TokenTTL:      24 * time.Hour,
		Vocabulary:    testVocabulary,
		SuffixLength:  12,
		OracleTimeout: time.Second,
	}
	for _, m := range mutate {
		m(&cfg)
	}

	signKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	f := &gateFixture{
		clock:      newTestClock(),
		oracle:     newFakeOracle(),
		events:     &recordingPublisher{},
		challenges: store.NewMemoryChallengeStore(),
		tokens:     store.NewMemoryTokenStore(),
		logs:       &bytes.Buffer{},
	}
	f.gate, err = NewGate(
		cfg,
		f.challenges,
		f.tokens,
		tokenizer.NewJWTTokenizer(signKey),
		signature.NewEthVerifier(),
		f.oracle,
		slog.New(slog.NewJSONHandler(f.logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
		WithClock(f.clock.Now),
		WithEvents(f.events),
	)
	require.NoError(t, err)
	return f
}

// addChallenge stores a challenge with a known value issued at the fixture's current time
func (f *gateFixture) addChallenge(t *testing.T, origin, value string) core.Challenge {
	t.Helper()
	now := f.clock.Now()
	c := core.Challenge{Value: value, Origin: origin, IssuedAt: now, ExpiresAt: now.Add(2 * time.Hour)}
	require.NoError(t, f.challenges.Add(context.Background(), c))
	return c
}

// states returns the state field of every log record in order
func (f *gateFixture) states(t *testing.T) []string {
	t.Helper()
	var states []string
	dec := json.NewDecoder(bytes.NewReader(f.logs.Bytes()))
	for dec.More() {
		var rec map[string]any
		require.NoError(t, dec.Decode(&rec))
		if state, ok := rec["state"].(string); ok {
			states = append(states, state)
		}
	}
	return states
}
