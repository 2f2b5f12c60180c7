package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg := Load()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 2*time.Hour, cfg.ChallengeTTL)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"Olympic", "Morden", "Ropsten", "Rinkeby", "Kovan", "Goerli"}, cfg.ChallengeVocabulary)
	assert.Equal(t, 12, cfg.ChallengeSuffixLength)
	assert.Equal(t, int64(84532), cfg.ContractChainID)
	assert.True(t, cfg.MinBalance.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, "release", cfg.GetGinMode())
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CHALLENGE_TTL_MINUTES", "5")
	t.Setenv("TOKEN_TTL_MINUTES", "60")
	t.Setenv("CHALLENGE_VOCABULARY", " Alpha, ,Beta ")
	t.Setenv("MIN_BALANCE", "2.5")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5*time.Minute, cfg.ChallengeTTL)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"Alpha", "Beta"}, cfg.ChallengeVocabulary)
	assert.Equal(t, "2.5", cfg.MinBalance.String())
	assert.Equal(t, "debug", cfg.GetGinMode())
}

func TestValidateRejects(t *testing.T) {
	t.Chdir(t.TempDir())

	for name, mutate := range map[string]func(*Config){
		"short suffix":     func(c *Config) { c.ChallengeSuffixLength = 6 },
		"empty vocabulary": func(c *Config) { c.ChallengeVocabulary = nil },
		"separator in tag": func(c *Config) { c.ChallengeVocabulary = []string{"Kovan", "Ro|psten"} },
		"blank tag":        func(c *Config) { c.ChallengeVocabulary = []string{""} },
		"bad contract":     func(c *Config) { c.ContractAddress = "0x123" },
		"unknown store":    func(c *Config) { c.StoreDriver = "postgres" },
		"zero token ttl":   func(c *Config) { c.TokenTTL = 0 },
		"bad log level":    func(c *Config) { c.LogLevel = "verbose" },
	} {
		cfg := Load()
		mutate(cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}
