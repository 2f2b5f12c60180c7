package core

import "errors"

var (
	// ErrAuthFailed is the uniform failure every Gate error wraps
	ErrAuthFailed = errors.New("authentication failed")

	ErrNoMatchingChallenge = errors.New("no matching challenge")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrNotOwner            = errors.New("not owner")
	ErrOracleUnavailable   = errors.New("ownership oracle unavailable")
	ErrTokenExpired        = errors.New("token has expired")
	ErrTokenOriginMismatch = errors.New("token origin mismatch")
	ErrTokenNotFound       = errors.New("token not found")
	ErrInvalidToken        = errors.New("invalid token")
	ErrInvalidAsset        = errors.New("invalid asset reference")
)

// AuthFailure joins a specific failure kind with ErrAuthFailed
func AuthFailure(kind error) error {
	return errors.Join(ErrAuthFailed, kind)
}

// FailureKind returns a short label for the specific failure wrapped in err
func FailureKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrNoMatchingChallenge):
		return "no_matching_challenge"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrOracleUnavailable):
		return "oracle_unavailable"
	case errors.Is(err, ErrNotOwner):
		return "not_owner"
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrTokenOriginMismatch):
		return "token_origin_mismatch"
	case errors.Is(err, ErrTokenNotFound):
		return "token_not_found"
	default:
		return "internal"
	}
}
