package ports

import (
	"context"

	"github.com/layer-3/warden/core"
)

// ChatResponder answers a chat message in the persona tied to an asset
type ChatResponder interface {
	Reply(ctx context.Context, asset core.AssetRef, message string) (string, error)
}
