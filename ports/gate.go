package ports

import (
	"context"

	"github.com/layer-3/warden/core"
)

// Gate is the challenge, proof and redeem protocol as seen by a transport
type Gate interface {
	RequestChallenge(ctx context.Context, origin string) (core.Challenge, error)
	SubmitProof(ctx context.Context, proof core.Proof) (core.AccessToken, error)
	RedeemToken(ctx context.Context, value, origin string) (core.AssetRef, error)
}
