package ports

import (
	"context"

	"github.com/layer-3/warden/core"
)

// EventPublisher publishes authentication events
type EventPublisher interface {
	PublishChallengeIssued(ctx context.Context, challenge core.Challenge) error
	PublishAccessGranted(ctx context.Context, token core.AccessToken) error
	PublishAccessDenied(ctx context.Context, origin string, ownership core.Ownership, reason string) error
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) PublishChallengeIssued(context.Context, core.Challenge) error { return nil }
func (NopPublisher) PublishAccessGranted(context.Context, core.AccessToken) error { return nil }
func (NopPublisher) PublishAccessDenied(context.Context, string, core.Ownership, string) error {
	return nil
}
