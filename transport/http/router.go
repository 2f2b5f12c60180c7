package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/layer-3/warden/ports"
)

// RouterConfig holds the HTTP-level settings of the router
type RouterConfig struct {
	CORSAllowOrigins        string
	TrustedProxies          []string
	RateLimitRequestsPerSec float64
	RateLimitBurst          int
	MoviePath               string
}

// SetupRouter sets up the Gin router.
// chat and metrics may be nil, which leaves /chat and /metrics unregistered.
func SetupRouter(
	ctx context.Context,
	cfg RouterConfig,
	gate ports.Gate,
	chat ports.ChatResponder,
	metrics http.Handler,
	logger *slog.Logger,
) (*gin.Engine, error) {
	router := gin.New()
	// the origin a challenge is bound to is the peer address unless a proxy is trusted
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	router.Use(gin.Recovery())
	router.Use(requestid.New())
	router.Use(RequestLogger(logger))
	if corsMiddleware := createCORSMiddleware(cfg.CORSAllowOrigins, logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	handlers := NewGateHandlers(gate, chat, cfg.MoviePath, logger)
	limited := RateLimitMiddleware(ctx, cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, logger)

	router.GET("/health", handlers.Health)
	router.GET("/challenge", limited, handlers.Challenge)
	router.POST("/verify", limited, handlers.Verify)
	router.GET("/stream/:streamtoken", handlers.Stream)
	if chat != nil {
		router.POST("/chat/:streamtoken", handlers.Chat)
	}
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	return router, nil
}
