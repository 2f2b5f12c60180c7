package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/layer-3/warden/adapters/signature"
	"github.com/layer-3/warden/adapters/store"
	"github.com/layer-3/warden/internal/app"
	"github.com/layer-3/warden/internal/config"
	"github.com/layer-3/warden/service"
)

func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// runServe runs the gate until SIGINT or SIGTERM
func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	gin.SetMode(cfg.GetGinMode())
	logger := app.NewLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			logger.Error("failed to close resources", slog.Any("error", err))
		}
	}()

	logger.Info("starting warden",
		slog.Int64("chain_id", cfg.ContractChainID),
		slog.String("contract", cfg.ContractAddress),
		slog.String("store", cfg.StoreDriver),
	)
	return a.Run(ctx)
}

func runSign(w io.Writer, key, message string) error {
	sig, err := signature.Sign(message, key)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, sig)
	return err
}

func runChallenge(ctx context.Context, w io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return printChallenge(ctx, w, cfg)
}

func printChallenge(ctx context.Context, w io.Writer, cfg *config.Config) error {
	issuer, err := service.NewChallengeIssuer(
		store.NewMemoryChallengeStore(),
		cfg.ChallengeVocabulary,
		cfg.ChallengeSuffixLength,
		cfg.ChallengeTTL,
	)
	if err != nil {
		return err
	}

	challenge, err := issuer.Issue(ctx, "cli", time.Now())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, challenge.Value)
	return err
}
