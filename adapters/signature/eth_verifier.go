package signature

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/warden/core"
	"github.com/layer-3/warden/ports"
)

// EthVerifier recovers the signer of an EIP-191 personal message
type EthVerifier struct{}

// NewEthVerifier creates a new Ethereum signature verifier
func NewEthVerifier() ports.SignatureVerifier {
	return EthVerifier{}
}

// RecoverAccount returns the checksummed address that signed message
func (EthVerifier) RecoverAccount(message, signature string) (string, error) {
	sig, err := hexutil.Decode(withHexPrefix(strings.TrimSpace(signature)))
	if err != nil {
		return "", fmt.Errorf("failed to decode signature: %w", core.ErrInvalidSignature)
	}
	if len(sig) != crypto.SignatureLength {
		return "", fmt.Errorf("signature must be %d bytes: %w", crypto.SignatureLength, core.ErrInvalidSignature)
	}

	// wallets emit v as 27/28, recovery wants 0/1
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return "", fmt.Errorf("failed to recover public key: %w", core.ErrInvalidSignature)
	}

	return crypto.PubkeyToAddress(*pub).Hex(), nil
}

// Sign produces a wallet-style signature (v = 27/28) over message
func Sign(message string, key string) (string, error) {
	prv, err := crypto.HexToECDSA(strings.TrimPrefix(key, "0x"))
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), prv)
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

func withHexPrefix(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s
	}
	return "0x" + s
}
