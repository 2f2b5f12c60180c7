package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// AuthMetrics records the outcomes of the challenge/proof/redeem protocol.
type AuthMetrics interface {
	// RecordChallenge counts an issued challenge.
	RecordChallenge(ctx context.Context)

	// RecordProof counts a proof attempt by ownership kind and outcome
	// ("granted" or a failure kind such as "not_owner").
	RecordProof(ctx context.Context, ownership, outcome string)

	// RecordRedeem counts a token redemption by outcome.
	RecordRedeem(ctx context.Context, outcome string)

	// RecordOracleCall records an oracle query with its latency and status
	// ("ok" or "unavailable").
	RecordOracleCall(ctx context.Context, method, status string, duration time.Duration)

	// RecordSweep counts entries removed by the sweeper per store.
	RecordSweep(ctx context.Context, store string, removed int)
}

type authMetrics struct {
	challenges metric.Int64Counter
	proofs     metric.Int64Counter
	redeems    metric.Int64Counter
	oracle     metric.Float64Histogram
	swept      metric.Int64Counter
}

// NewAuthMetrics creates AuthMetrics on the given meter provider.
// The namespace is used as a prefix for all metric names (e.g., "warden").
func NewAuthMetrics(meterProvider metric.MeterProvider, namespace string) (AuthMetrics, error) {
	meter := meterProvider.Meter(namespace)

	challenges, err := meter.Int64Counter(
		fmt.Sprintf("%s_challenges_issued_total", namespace),
		metric.WithDescription("Total number of challenges issued"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge counter: %w", err)
	}

	proofs, err := meter.Int64Counter(
		fmt.Sprintf("%s_proofs_total", namespace),
		metric.WithDescription("Total number of ownership proofs by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create proof counter: %w", err)
	}

	redeems, err := meter.Int64Counter(
		fmt.Sprintf("%s_redemptions_total", namespace),
		metric.WithDescription("Total number of access token redemptions by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create redemption counter: %w", err)
	}

	oracle, err := meter.Float64Histogram(
		fmt.Sprintf("%s_oracle_call_duration_seconds", namespace),
		metric.WithDescription("Duration of ownership oracle queries in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create oracle histogram: %w", err)
	}

	swept, err := meter.Int64Counter(
		fmt.Sprintf("%s_swept_entries_total", namespace),
		metric.WithDescription("Total number of expired entries removed by the sweeper"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sweep counter: %w", err)
	}

	return &authMetrics{
		challenges: challenges,
		proofs:     proofs,
		redeems:    redeems,
		oracle:     oracle,
		swept:      swept,
	}, nil
}

// NewNopAuthMetrics returns AuthMetrics that record nothing.
func NewNopAuthMetrics() AuthMetrics {
	m, _ := NewAuthMetrics(noop.NewMeterProvider(), "nop")
	return m
}

func (m *authMetrics) RecordChallenge(ctx context.Context) {
	m.challenges.Add(ctx, 1)
}

func (m *authMetrics) RecordProof(ctx context.Context, ownership, outcome string) {
	m.proofs.Add(ctx, 1, metric.WithAttributes(
		attribute.String("ownership", ownership),
		attribute.String("outcome", outcome),
	))
}

func (m *authMetrics) RecordRedeem(ctx context.Context, outcome string) {
	m.redeems.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *authMetrics) RecordOracleCall(ctx context.Context, method, status string, duration time.Duration) {
	m.oracle.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("status", status),
	))
}

func (m *authMetrics) RecordSweep(ctx context.Context, store string, removed int) {
	if removed == 0 {
		return
	}
	m.swept.Add(ctx, int64(removed), metric.WithAttributes(attribute.String("store", store)))
}
