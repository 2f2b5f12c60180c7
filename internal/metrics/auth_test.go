package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, p *Provider) string {
	t.Helper()
	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestAuthMetricsExport(t *testing.T) {
	provider, err := NewProvider()
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewAuthMetrics(provider.MeterProvider(), "warden")
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordChallenge(ctx)
	m.RecordProof(ctx, "single_owner", "granted")
	m.RecordProof(ctx, "single_owner", "not_owner")
	m.RecordRedeem(ctx, "token_expired")
	m.RecordOracleCall(ctx, "ownerOf", "unavailable", 250*time.Millisecond)
	m.RecordSweep(ctx, "challenges", 3)
	m.RecordSweep(ctx, "tokens", 0)

	out := scrape(t, provider)
	assert.Regexp(t, `warden_challenges_issued_total\{[^}]*\} 1`, out)
	assert.Regexp(t, `warden_proofs_total\{[^}]*outcome="granted"[^}]*\} 1`, out)
	assert.Regexp(t, `warden_proofs_total\{[^}]*outcome="not_owner"[^}]*\} 1`, out)
	assert.Regexp(t, `warden_redemptions_total\{[^}]*outcome="token_expired"[^}]*\} 1`, out)
	assert.Regexp(t, `warden_oracle_call_duration_seconds_count\{[^}]*status="unavailable"[^}]*\} 1`, out)
	assert.Regexp(t, `warden_swept_entries_total\{[^}]*store="challenges"[^}]*\} 3`, out)
	assert.NotRegexp(t, `store="tokens"`, out)
}

func TestNopAuthMetrics(t *testing.T) {
	m := NewNopAuthMetrics()
	require.NotNil(t, m)
	m.RecordChallenge(context.Background())
	m.RecordProof(context.Background(), "balance_owner", "granted")
}
