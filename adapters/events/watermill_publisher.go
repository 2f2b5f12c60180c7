package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/layer-3/warden/core"
	"github.com/layer-3/warden/ports"
)

const (
	TopicChallengeIssued = "warden.challenge_issued"
	TopicAccessGranted   = "warden.access_granted"
	TopicAccessDenied    = "warden.access_denied"
)

// ChallengeIssuedEvent is published when a client receives a challenge
type ChallengeIssuedEvent struct {
	Origin    string    `json:"origin"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AccessGrantedEvent is published when a proof yields an access token
type AccessGrantedEvent struct {
	TokenID   string    `json:"token_id"`
	Origin    string    `json:"origin"`
	Account   string    `json:"account"`
	AssetRef  string    `json:"asset_ref,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AccessDeniedEvent is published when a proof is rejected
type AccessDeniedEvent struct {
	Origin    string `json:"origin"`
	Ownership string `json:"ownership"`
	AssetRef  string `json:"asset_ref,omitempty"`
	Reason    string `json:"reason"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishChallengeIssued publishes a challenge issued event. The challenge text itself is not published.
func (p *WatermillPublisher) PublishChallengeIssued(ctx context.Context, challenge core.Challenge) error {
	return p.publish(ctx, TopicChallengeIssued, ChallengeIssuedEvent{
		Origin:    challenge.Origin,
		IssuedAt:  challenge.IssuedAt,
		ExpiresAt: challenge.ExpiresAt,
	})
}

// PublishAccessGranted publishes an access granted event
func (p *WatermillPublisher) PublishAccessGranted(ctx context.Context, token core.AccessToken) error {
	return p.publish(ctx, TopicAccessGranted, AccessGrantedEvent{
		TokenID:   token.ID,
		Origin:    token.Origin,
		Account:   token.Account,
		AssetRef:  string(token.AssetRef),
		ExpiresAt: token.ExpiresAt,
	})
}

// PublishAccessDenied publishes an access denied event
func (p *WatermillPublisher) PublishAccessDenied(ctx context.Context, origin string, ownership core.Ownership, reason string) error {
	return p.publish(ctx, TopicAccessDenied, AccessDeniedEvent{
		Origin:    origin,
		Ownership: ownership.Kind.String(),
		AssetRef:  string(ownership.Asset),
		Reason:    reason,
	})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
