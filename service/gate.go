package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/layer-3/warden/core"
	"github.com/layer-3/warden/internal/metrics"
	"github.com/layer-3/warden/ports"
)

// GateConfig holds the protocol parameters of a Gate
type GateConfig struct {
	ChallengeTTL  time.Duration
	TokenTTL      time.Duration
	Vocabulary    []string
	SuffixLength  int
	OracleTimeout time.Duration

	// RequireChallengeEcho makes SubmitProof only consider the challenge the client echoes back
	RequireChallengeEcho bool
}

// Gate runs the challenge, proof and redeem protocol
type Gate struct {
	challenges *ChallengeIssuer
	tokens     *TokenIssuer
	verifier   ports.SignatureVerifier
	oracle     ports.OwnershipOracle
	logger     *slog.Logger

	events  ports.EventPublisher
	metrics metrics.AuthMetrics
	now     func() time.Time

	challengeStore ports.ChallengeStore
	oracleTimeout  time.Duration
	requireEcho    bool
}

// NewGate creates a new Gate
func NewGate(
	cfg GateConfig,
	challengeStore ports.ChallengeStore,
	tokenStore ports.TokenStore,
	tokenizer ports.Tokenizer,
	verifier ports.SignatureVerifier,
	oracle ports.OwnershipOracle,
	logger *slog.Logger,
	opts ...Option,
) (*Gate, error) {
	challenges, err := NewChallengeIssuer(challengeStore, cfg.Vocabulary, cfg.SuffixLength, cfg.ChallengeTTL)
	if err != nil {
		return nil, err
	}
	tokens, err := NewTokenIssuer(tokenStore, tokenizer, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}
	if cfg.OracleTimeout <= 0 {
		cfg.OracleTimeout = 10 * time.Second
	}

	o := applyOptions(opts)
	return &Gate{
		challenges:     challenges,
		tokens:         tokens,
		verifier:       verifier,
		oracle:         oracle,
		logger:         logger,
		events:         o.events,
		metrics:        o.metrics,
		now:            o.now,
		challengeStore: challengeStore,
		oracleTimeout:  cfg.OracleTimeout,
		requireEcho:    cfg.RequireChallengeEcho,
	}, nil
}

// RequestChallenge issues a fresh challenge bound to origin
func (g *Gate) RequestChallenge(ctx context.Context, origin string) (core.Challenge, error) {
	g.logger.Debug("challenge requested",
		slog.String("state", string(core.StateAwaitingChallenge)),
		slog.String("origin", origin),
	)

	challenge, err := g.challenges.Issue(ctx, origin, g.now())
	if err != nil {
		return core.Challenge{}, err
	}

	g.metrics.RecordChallenge(ctx)
	if err := g.events.PublishChallengeIssued(ctx, challenge); err != nil {
		g.logger.Warn("failed to publish challenge event", slog.Any("error", err))
	}
	g.logger.Debug("challenge issued",
		slog.String("state", string(core.StateChallengeIssued)),
		slog.String("origin", origin),
		slog.Time("expires_at", challenge.ExpiresAt),
	)

	return challenge, nil
}

// SubmitProof verifies a signed challenge and the asset claim behind it.
// On success the matched challenge is consumed and a token bound to the proof's origin is returned.
// Every failure wraps core.ErrAuthFailed.
func (g *Gate) SubmitProof(ctx context.Context, proof core.Proof) (core.AccessToken, error) {
	now := g.now()
	g.logger.Debug("proof submitted",
		slog.String("state", string(core.StateProofSubmitted)),
		slog.String("origin", proof.Origin),
		slog.String("ownership", proof.Ownership.Kind.String()),
	)

	candidates, err := g.candidates(ctx, proof, now)
	if err != nil {
		return core.AccessToken{}, g.deny(ctx, proof, err)
	}

	reason := core.ErrNoMatchingChallenge
	for _, challenge := range candidates {
		account, err := g.verifier.RecoverAccount(challenge.Value, proof.Signature)
		if err != nil {
			reason = core.ErrInvalidSignature
			continue
		}

		if err := g.checkOwnership(ctx, account, proof.Ownership); err != nil {
			reason = err
			continue
		}

		won, err := g.challengeStore.Consume(ctx, challenge)
		if err != nil {
			return core.AccessToken{}, g.deny(ctx, proof, err)
		}
		if !won {
			// a concurrent proof got there first
			reason = core.ErrNoMatchingChallenge
			continue
		}

		token, err := g.tokens.Mint(ctx, proof.Origin, account, proof.Ownership.Asset, g.now())
		if err != nil {
			return core.AccessToken{}, g.deny(ctx, proof, err)
		}

		g.metrics.RecordProof(ctx, proof.Ownership.Kind.String(), "granted")
		if err := g.events.PublishAccessGranted(ctx, token); err != nil {
			g.logger.Warn("failed to publish access event", slog.Any("error", err))
		}
		g.logger.Info("access granted",
			slog.String("state", string(core.StateGranted)),
			slog.String("origin", proof.Origin),
			slog.String("account", account),
			slog.String("ownership", proof.Ownership.Kind.String()),
			slog.String("asset", string(proof.Ownership.Asset)),
		)

		return token, nil
	}

	return core.AccessToken{}, g.deny(ctx, proof, reason)
}

// RedeemToken returns the asset a live token bound to origin grants access to
func (g *Gate) RedeemToken(ctx context.Context, value, origin string) (core.AssetRef, error) {
	token, err := g.tokens.Redeem(ctx, value, origin, g.now())
	if err != nil {
		kind := core.FailureKind(err)
		g.metrics.RecordRedeem(ctx, kind)
		if kind == "internal" {
			g.logger.Error("token redemption failed", slog.Any("error", err))
			return "", fmt.Errorf("failed to redeem token: %w", err)
		}
		g.logger.Info("token rejected", slog.String("origin", origin), slog.String("reason", kind))
		return "", core.AuthFailure(err)
	}

	g.metrics.RecordRedeem(ctx, "granted")
	return token.AssetRef, nil
}

// candidates returns the challenges a proof may match, oldest first
func (g *Gate) candidates(ctx context.Context, proof core.Proof, now time.Time) ([]core.Challenge, error) {
	if proof.Challenge != "" {
		challenge, err := g.challengeStore.Find(ctx, proof.Origin, proof.Challenge, now)
		if err != nil {
			return nil, err
		}
		return []core.Challenge{challenge}, nil
	}
	if g.requireEcho {
		return nil, core.ErrNoMatchingChallenge
	}
	return g.challengeStore.Live(ctx, proof.Origin, now)
}

// checkOwnership returns nil when account satisfies the claim.
// Oracle errors count as not owning the asset.
func (g *Gate) checkOwnership(ctx context.Context, account string, claim core.Ownership) error {
	ctx, cancel := context.WithTimeout(ctx, g.oracleTimeout)
	defer cancel()

	start := time.Now()
	var (
		owned bool
		err   error
	)
	switch claim.Kind {
	case core.OwnershipSingle:
		var owner string
		owner, err = g.oracle.ResolveSingleOwner(ctx, claim.Asset)
		owned = err == nil && strings.EqualFold(owner, account)
	case core.OwnershipBalance:
		owned, err = g.oracle.ResolveBalanceOwner(ctx, account, claim.Asset)
	case core.OwnershipCollection:
		owned, err = g.oracle.ResolveCollectionHolder(ctx, account)
	default:
		return core.ErrNotOwner
	}

	status := "ok"
	if err != nil {
		status = "unavailable"
	}
	g.metrics.RecordOracleCall(ctx, claim.Kind.String(), status, time.Since(start))

	if err != nil {
		g.logger.Warn("ownership oracle unavailable",
			slog.String("ownership", claim.Kind.String()),
			slog.String("asset", string(claim.Asset)),
			slog.Any("error", err),
		)
		return errors.Join(core.ErrNotOwner, core.ErrOracleUnavailable)
	}
	if !owned {
		return core.ErrNotOwner
	}
	return nil
}

// deny records a failed proof and wraps reason for the caller
func (g *Gate) deny(ctx context.Context, proof core.Proof, reason error) error {
	kind := core.FailureKind(reason)
	g.metrics.RecordProof(ctx, proof.Ownership.Kind.String(), kind)

	if err := g.events.PublishAccessDenied(ctx, proof.Origin, proof.Ownership, kind); err != nil {
		g.logger.Warn("failed to publish access event", slog.Any("error", err))
	}

	if kind == "internal" {
		g.logger.Error("proof verification failed",
			slog.String("state", string(core.StateDenied)),
			slog.String("origin", proof.Origin),
			slog.Any("error", reason),
		)
		return fmt.Errorf("failed to verify proof: %w", reason)
	}

	g.logger.Info("access denied",
		slog.String("state", string(core.StateDenied)),
		slog.String("origin", proof.Origin),
		slog.String("reason", kind),
	)
	return core.AuthFailure(reason)
}
