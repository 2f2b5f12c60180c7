package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/warden/adapters/signature"
	"github.com/layer-3/warden/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSign(t *testing.T) {
	prv, err := crypto.GenerateKey()
	require.NoError(t, err)
	key := hex.EncodeToString(crypto.FromECDSA(prv))

	var out bytes.Buffer
	require.NoError(t, runSign(&out, key, "Rinkeby-abc1234567"))

	account, err := signature.NewEthVerifier().RecoverAccount("Rinkeby-abc1234567", strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(prv.PublicKey).Hex(), account)

	assert.Error(t, runSign(&out, "zz", "Rinkeby-abc1234567"))
}

func TestPrintChallenge(t *testing.T) {
	cfg := &config.Config{
		ChallengeVocabulary:   []string{"Goerli"},
		ChallengeSuffixLength: 10,
		ChallengeTTL:          time.Minute,
	}

	var out bytes.Buffer
	require.NoError(t, printChallenge(context.Background(), &out, cfg))
	assert.Regexp(t, `^Goerli-[a-z0-9]{10}\n$`, out.String())
}
