package core

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChallengeExpired(t *testing.T) {
	issued := time.Unix(0, 0)
	c := Challenge{Value: "Rinkeby-abc1234567", IssuedAt: issued, ExpiresAt: issued.Add(2 * time.Hour)}

	assert.False(t, c.Expired(issued))
	assert.False(t, c.Expired(issued.Add(2*time.Hour-time.Nanosecond)))
	assert.True(t, c.Expired(issued.Add(2*time.Hour)))
}

func TestAccessTokenExpiredIsHalfOpen(t *testing.T) {
	issued := time.Unix(0, 0)
	tok := AccessToken{IssuedAt: issued, ExpiresAt: issued.Add(24 * time.Hour)}

	assert.False(t, tok.Expired(issued.Add(24*time.Hour-time.Second)))
	assert.True(t, tok.Expired(issued.Add(24*time.Hour)))
}

func TestParseAssetRef(t *testing.T) {
	ref, err := ParseAssetRef(" 0042 ")
	require.NoError(t, err)
	assert.Equal(t, AssetRef("42"), ref)

	n, ok := ref.BigInt()
	require.True(t, ok)
	assert.Equal(t, int64(42), n.Int64())

	for _, bad := range []string{"", "-1", "abc", "1.5"} {
		_, err := ParseAssetRef(bad)
		assert.ErrorIs(t, err, ErrInvalidAsset, bad)
	}

	_, ok = AssetRef("").BigInt()
	assert.False(t, ok)
}

func TestFailureKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "none"},
		{AuthFailure(ErrNoMatchingChallenge), "no_matching_challenge"},
		{AuthFailure(ErrInvalidSignature), "invalid_signature"},
		{AuthFailure(ErrNotOwner), "not_owner"},
		{AuthFailure(ErrTokenExpired), "token_expired"},
		{AuthFailure(ErrTokenOriginMismatch), "token_origin_mismatch"},
		{AuthFailure(ErrTokenNotFound), "token_not_found"},
		{fmt.Errorf("wrap: %w", ErrOracleUnavailable), "oracle_unavailable"},
		{errors.New("boom"), "internal"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FailureKind(tc.err))
	}
}

func TestAuthFailureWrapsBoth(t *testing.T) {
	err := AuthFailure(ErrTokenExpired)
	assert.ErrorIs(t, err, ErrAuthFailed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestOwnershipConstructors(t *testing.T) {
	assert.Equal(t, OwnershipSingle, SingleOwner("1").Kind)
	assert.Equal(t, OwnershipBalance, BalanceOwner("1").Kind)
	assert.Equal(t, OwnershipCollection, CollectionHolder().Kind)
	assert.Equal(t, "balance_owner", OwnershipBalance.String())
}
