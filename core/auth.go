package core

import (
	"math/big"
	"strings"
	"time"
)

// Challenge represents a pending authentication challenge
type Challenge struct {
	Value     string    // Text the client has to sign
	Origin    string    // Requester identity the challenge is bound to
	IssuedAt  time.Time // When the challenge was created
	ExpiresAt time.Time // When the challenge stops being accepted
}

// Expired reports whether the challenge is no longer valid at now
func (c Challenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// AccessToken represents a time-boxed capability granted after a successful proof
type AccessToken struct {
	ID        string    // Store key, also the jti of the bearer value
	Value     string    // Bearer string handed to the client
	Origin    string    // Requester identity the token is bound to
	Account   string    // Account that proved ownership
	AssetRef  AssetRef  // Asset whose ownership was proven
	IssuedAt  time.Time // When the token was minted
	ExpiresAt time.Time // First instant at which the token is no longer valid
}

// Expired reports whether the token is no longer valid at now
func (t AccessToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// AssetRef identifies a token on the gated contract, in decimal form.
// The zero value means "no specific asset".
type AssetRef string

// BigInt returns the asset id as a big integer
func (a AssetRef) BigInt() (*big.Int, bool) {
	if a == "" {
		return nil, false
	}
	n, ok := new(big.Int).SetString(string(a), 10)
	if !ok || n.Sign() < 0 {
		return nil, false
	}
	return n, true
}

// ParseAssetRef validates and canonicalises a decimal asset id
func ParseAssetRef(s string) (AssetRef, error) {
	s = strings.TrimSpace(s)
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return "", ErrInvalidAsset
	}
	return AssetRef(n.String()), nil
}

// OwnershipKind selects which oracle query proves ownership
type OwnershipKind int

const (
	// OwnershipCollection checks that the account holds any unit of the default collection
	OwnershipCollection OwnershipKind = iota
	// OwnershipSingle checks the current holder of a uniquely owned asset
	OwnershipSingle
	// OwnershipBalance checks that the account holds at least one unit of an asset
	OwnershipBalance
)

func (k OwnershipKind) String() string {
	switch k {
	case OwnershipSingle:
		return "single_owner"
	case OwnershipBalance:
		return "balance_owner"
	case OwnershipCollection:
		return "collection_holder"
	default:
		return "unknown"
	}
}

// Ownership is the asset claim a proof is checked against
type Ownership struct {
	Kind  OwnershipKind
	Asset AssetRef
}

// SingleOwner builds a claim on a uniquely owned asset
func SingleOwner(asset AssetRef) Ownership {
	return Ownership{Kind: OwnershipSingle, Asset: asset}
}

// BalanceOwner builds a claim on a balance-held asset
func BalanceOwner(asset AssetRef) Ownership {
	return Ownership{Kind: OwnershipBalance, Asset: asset}
}

// CollectionHolder builds a claim on the default collection as a whole
func CollectionHolder() Ownership {
	return Ownership{Kind: OwnershipCollection}
}

// Proof is what a client submits to exchange a signed challenge for an access token
type Proof struct {
	Origin    string    // Requester identity
	Signature string    // Hex signature, with or without 0x prefix
	Challenge string    // Optional echo of the signed challenge text
	Ownership Ownership // Asset claim to verify
}

// AttemptState is the position of one authentication attempt in the protocol
type AttemptState string

const (
	StateAwaitingChallenge AttemptState = "awaiting_challenge"
	StateChallengeIssued   AttemptState = "challenge_issued"
	StateProofSubmitted    AttemptState = "proof_submitted"
	StateGranted           AttemptState = "granted"
	StateDenied            AttemptState = "denied"
)
