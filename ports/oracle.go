package ports

import (
	"context"

	"github.com/layer-3/warden/core"
)

// OwnershipOracle answers asset ownership queries against a ledger.
// Implementations return an error when the ledger cannot be reached; callers
// decide how to treat it.
type OwnershipOracle interface {
	// ResolveSingleOwner returns the current holder of a uniquely owned asset
	ResolveSingleOwner(ctx context.Context, asset core.AssetRef) (string, error)

	// ResolveBalanceOwner reports whether account holds at least one unit of asset
	ResolveBalanceOwner(ctx context.Context, account string, asset core.AssetRef) (bool, error)

	// ResolveCollectionHolder reports whether account holds any unit of the default collection
	ResolveCollectionHolder(ctx context.Context, account string) (bool, error)
}
