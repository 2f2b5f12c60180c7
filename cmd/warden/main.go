// Package main provides the warden command line.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "warden",
		Usage: "Token-gated access to protected media",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runServe(ctx)
				},
			},
			{
				Name:  "sign",
				Usage: "Sign a challenge with a hex private key, as a wallet would",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "key",
						Aliases:  []string{"k"},
						Required: true,
						Usage:    "Hex encoded secp256k1 private key",
					},
					&cli.StringFlag{
						Name:     "message",
						Aliases:  []string{"m"},
						Required: true,
						Usage:    "Challenge text to sign",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runSign(os.Stdout, cmd.String("key"), cmd.String("message"))
				},
			},
			{
				Name:  "challenge",
				Usage: "Print a challenge in the configured format",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runChallenge(ctx, os.Stdout)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}
