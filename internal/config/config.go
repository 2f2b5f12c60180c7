// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/allisson/go-env"
	validation "github.com/jellydator/validation"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// MinChallengeSuffixLength is the least number of random characters a challenge carries.
const MinChallengeSuffixLength = 10

var (
	addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	tagPattern     = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
)

// Config holds all application configuration.
type Config struct {
	// ServerHost is the host address the server will bind to.
	ServerHost string
	// ServerPort is the port number the server will listen on.
	ServerPort int

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// ChallengeTTL is how long an issued challenge can be answered.
	ChallengeTTL time.Duration
	// TokenTTL is how long an access token can be redeemed.
	TokenTTL time.Duration
	// ChallengeVocabulary is the set of human-readable tags challenges start with.
	ChallengeVocabulary []string
	// ChallengeSuffixLength is the number of random alphanumeric characters per challenge.
	ChallengeSuffixLength int
	// RequireChallengeEcho makes /verify accept only the challenge text the client sends back.
	RequireChallengeEcho bool
	// SweepInterval is the period of the background sweeper.
	SweepInterval time.Duration
	// TokenSigningKey is a PEM encoded P-256 private key for access tokens; empty generates one at startup.
	TokenSigningKey string

	// OracleTimeout bounds every ownership oracle call.
	OracleTimeout time.Duration
	// InfuraKey is used to build the RPC URL of known chains.
	InfuraKey string
	// ContractChainID is the chain the gated contract lives on.
	ContractChainID int64
	// RPCURL overrides the Infura URL derived from ContractChainID.
	RPCURL string
	// ContractAddress is the gated ERC-721/ERC-1155 contract.
	ContractAddress string
	// MinBalance is the smallest balance that counts as holding an asset.
	MinBalance decimal.Decimal

	// StoreDriver selects the challenge/token store ("memory" or "redis").
	StoreDriver string
	// RedisURL is the Redis connection URL used by the redis store and event stream.
	RedisURL string
	// EventsEnabled turns on publication of authentication events.
	EventsEnabled bool

	// MetricsEnabled exposes /metrics.
	MetricsEnabled bool
	// MetricsNamespace is the prefix of every metric name.
	MetricsNamespace string

	// CORSAllowOrigins is a comma-separated list of allowed origins, "*" allows any.
	CORSAllowOrigins string
	// TrustedProxies are the proxies whose X-Forwarded-For is believed when deriving the origin.
	TrustedProxies []string
	// RateLimitRequestsPerSec is the per-IP rate on /challenge and /verify.
	RateLimitRequestsPerSec float64
	// RateLimitBurst is the per-IP burst on /challenge and /verify.
	RateLimitBurst int

	// MediaDir holds the protected video.
	MediaDir string
	// MovieName is the file served by /stream; empty picks the first .mp4 in MediaDir.
	MovieName string

	// OpenAIAPIKey enables the chat endpoint.
	OpenAIAPIKey string
	// ChatModel is the chat completions model.
	ChatModel string
	// ChatPersonasFile is an optional JSON file of asset id to system prompt.
	ChatPersonasFile string
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	loadDotEnv()

	return &Config{
		ServerHost: env.GetString("SERVER_HOST", "0.0.0.0"),
		ServerPort: env.GetInt("SERVER_PORT", 8082),

		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Gate
		ChallengeTTL: env.GetDuration("CHALLENGE_TTL_MINUTES", 120, time.Minute),
		TokenTTL:     env.GetDuration("TOKEN_TTL_MINUTES", 1440, time.Minute),
		ChallengeVocabulary: splitList(env.GetString(
			"CHALLENGE_VOCABULARY",
			"Olympic,Morden,Ropsten,Rinkeby,Kovan,Goerli",
		)),
		ChallengeSuffixLength: env.GetInt("CHALLENGE_SUFFIX_LENGTH", 12),
		RequireChallengeEcho:  env.GetBool("REQUIRE_CHALLENGE_ECHO", false),
		SweepInterval:         env.GetDuration("SWEEP_INTERVAL_SECONDS", 300, time.Second),
		TokenSigningKey:       env.GetString("TOKEN_SIGNING_KEY", ""),

		// Oracle
		OracleTimeout:   env.GetDuration("ORACLE_TIMEOUT_SECONDS", 10, time.Second),
		InfuraKey:       env.GetString("INFURA_KEY", ""),
		ContractChainID: int64(env.GetInt("CONTRACT_CHAIN_ID", 84532)),
		RPCURL:          env.GetString("RPC_URL", ""),
		ContractAddress: env.GetString("CONTRACT_ADDRESS", "0xefAB18061C57C458c52661f50f5b83B600392ed6"),
		MinBalance:      parseDecimal(env.GetString("MIN_BALANCE", "1")),

		// Storage and events
		StoreDriver:   env.GetString("STORE_DRIVER", "memory"),
		RedisURL:      env.GetString("REDIS_URL", "redis://localhost:6379/0"),
		EventsEnabled: env.GetBool("EVENTS_ENABLED", false),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "warden"),

		// HTTP
		CORSAllowOrigins:        env.GetString("CORS_ALLOW_ORIGINS", "*"),
		TrustedProxies:          splitList(env.GetString("TRUSTED_PROXIES", "")),
		RateLimitRequestsPerSec: env.GetFloat64("RATE_LIMIT_REQUESTS_PER_SEC", 2.0),
		RateLimitBurst:          env.GetInt("RATE_LIMIT_BURST", 10),

		// Protected resources
		MediaDir:         env.GetString("MEDIA_DIR", "raw"),
		MovieName:        env.GetString("MOVIE_NAME", ""),
		OpenAIAPIKey:     env.GetString("OPENAI_API_KEY", ""),
		ChatModel:        env.GetString("CHAT_MODEL", "gpt-4o"),
		ChatPersonasFile: env.GetString("CHAT_PERSONAS_FILE", ""),
	}
}

// Validate checks that the configuration can run the service.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ServerPort, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.ChallengeTTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.TokenTTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.ChallengeVocabulary, validation.Required, validation.Each(validation.Required, validation.Match(tagPattern))),
		validation.Field(&c.ChallengeSuffixLength, validation.Min(MinChallengeSuffixLength)),
		validation.Field(&c.SweepInterval, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.OracleTimeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.ContractAddress, validation.Required, validation.Match(addressPattern)),
		validation.Field(&c.StoreDriver, validation.In("memory", "redis")),
		validation.Field(&c.RateLimitBurst, validation.Min(1)),
	)
}

// GetGinMode returns the appropriate Gin mode based on log level.
func (c *Config) GetGinMode() string {
	if c.LogLevel == "debug" {
		return "debug"
	}
	return "release"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.NewFromInt(1)
	}
	return d
}

// loadDotEnv searches for a .env file from the current directory up to the
// root directory and loads the first one found.
func loadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}

	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
