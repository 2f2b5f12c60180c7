// Package app assembles the gate and its HTTP surface from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/layer-3/warden/adapters/chat"
	"github.com/layer-3/warden/adapters/events"
	"github.com/layer-3/warden/adapters/oracle"
	"github.com/layer-3/warden/adapters/signature"
	"github.com/layer-3/warden/adapters/store"
	"github.com/layer-3/warden/adapters/tokenizer"
	"github.com/layer-3/warden/internal/config"
	"github.com/layer-3/warden/internal/metrics"
	"github.com/layer-3/warden/ports"
	"github.com/layer-3/warden/service"
	transport "github.com/layer-3/warden/transport/http"
)

// App holds the running components of the service
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	gate    *service.Gate
	sweeper *service.Sweeper
	server  *transport.Server

	closers []func(context.Context) error
}

// New wires every component described by cfg
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}
	wired := false
	defer func() {
		if !wired {
			_ = a.Close(context.Background())
		}
	}()

	var opts []service.Option

	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		provider, err := metrics.NewProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics provider: %w", err)
		}
		a.closers = append(a.closers, provider.Shutdown)

		authMetrics, err := metrics.NewAuthMetrics(provider.MeterProvider(), cfg.MetricsNamespace)
		if err != nil {
			return nil, err
		}
		opts = append(opts, service.WithMetrics(authMetrics))
		metricsHandler = provider.Handler()
	}

	var redisClient *redis.Client
	if cfg.StoreDriver == "redis" || cfg.EventsEnabled {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		redisClient = redis.NewClient(redisOpts)
		a.closers = append(a.closers, func(context.Context) error { return redisClient.Close() })

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
	}

	challenges, tokens := newStores(cfg.StoreDriver, redisClient)

	if cfg.EventsEnabled {
		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create event publisher: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return publisher.Close() })
		opts = append(opts, service.WithEvents(events.NewWatermillPublisher(publisher)))
	}

	rpcURL, err := oracle.ResolveRPCURL(cfg.ContractChainID, cfg.RPCURL, cfg.InfuraKey)
	if err != nil {
		return nil, err
	}
	ownership, client, err := oracle.Dial(ctx, rpcURL, common.HexToAddress(cfg.ContractAddress), cfg.MinBalance, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { client.Close(); return nil })

	signKey, generated, err := tokenizer.LoadSigningKey(cfg.TokenSigningKey)
	if err != nil {
		return nil, err
	}
	if generated {
		logger.Warn("no TOKEN_SIGNING_KEY configured, tokens will not survive a restart")
	}

	a.gate, err = service.NewGate(
		service.GateConfig{
			ChallengeTTL:         cfg.ChallengeTTL,
			TokenTTL:             cfg.TokenTTL,
			Vocabulary:           cfg.ChallengeVocabulary,
			SuffixLength:         cfg.ChallengeSuffixLength,
			OracleTimeout:        cfg.OracleTimeout,
			RequireChallengeEcho: cfg.RequireChallengeEcho,
		},
		challenges,
		tokens,
		tokenizer.NewJWTTokenizer(signKey),
		signature.NewEthVerifier(),
		ownership,
		logger,
		opts...,
	)
	if err != nil {
		return nil, err
	}
	a.sweeper = service.NewSweeper(challenges, tokens, cfg.SweepInterval, logger, opts...)

	responder, err := newResponder(cfg, logger)
	if err != nil {
		return nil, err
	}

	moviePath, err := transport.DiscoverMovie(cfg.MediaDir, cfg.MovieName)
	if err != nil {
		logger.Warn("no movie to stream", slog.Any("error", err))
	}

	router, err := transport.SetupRouter(ctx, transport.RouterConfig{
		CORSAllowOrigins:        cfg.CORSAllowOrigins,
		TrustedProxies:          cfg.TrustedProxies,
		RateLimitRequestsPerSec: cfg.RateLimitRequestsPerSec,
		RateLimitBurst:          cfg.RateLimitBurst,
		MoviePath:               moviePath,
	}, a.gate, responder, metricsHandler, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}
	a.server = transport.NewServer(cfg.ServerHost, cfg.ServerPort, router, logger)

	wired = true
	return a, nil
}

// Gate returns the wired gate
func (a *App) Gate() *service.Gate {
	return a.gate
}

// Run serves HTTP and sweeps the stores until ctx is done
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(a.server.Start)
	g.Go(func() error { return a.sweeper.Run(ctx) })
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close releases external connections
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newStores(driver string, client *redis.Client) (ports.ChallengeStore, ports.TokenStore) {
	if driver == "redis" {
		return store.NewRedisChallengeStore(client), store.NewRedisTokenStore(client)
	}
	return store.NewMemoryChallengeStore(), store.NewMemoryTokenStore()
}

// newResponder returns nil when no chat backend is configured
func newResponder(cfg *config.Config, logger *slog.Logger) (ports.ChatResponder, error) {
	if cfg.OpenAIAPIKey == "" {
		logger.Info("chat disabled, OPENAI_API_KEY is not set")
		return nil, nil
	}

	personas := chat.DefaultPersonas()
	if cfg.ChatPersonasFile != "" {
		var err error
		if personas, err = chat.LoadPersonas(cfg.ChatPersonasFile); err != nil {
			return nil, err
		}
	}

	return chat.NewOpenAIResponder(cfg.OpenAIAPIKey, cfg.ChatModel, personas), nil
}
