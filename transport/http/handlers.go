package http

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/warden/core"
	"github.com/layer-3/warden/ports"
)

// GateHandlers contains HTTP handlers for the gate endpoints
type GateHandlers struct {
	gate      ports.Gate
	chat      ports.ChatResponder
	moviePath string
	logger    *slog.Logger
}

// NewGateHandlers creates new gate handlers
func NewGateHandlers(gate ports.Gate, chat ports.ChatResponder, moviePath string, logger *slog.Logger) *GateHandlers {
	return &GateHandlers{
		gate:      gate,
		chat:      chat,
		moviePath: moviePath,
		logger:    logger,
	}
}

// Challenge issues a challenge bound to the caller's address
func (h *GateHandlers) Challenge(c *gin.Context) {
	challenge, err := h.gate.RequestChallenge(c.Request.Context(), c.ClientIP())
	if err != nil {
		h.logger.Error("failed to issue challenge", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create challenge"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": challenge.Value})
}

// Verify exchanges a signed challenge for an access token
func (h *GateHandlers) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	token, err := h.gate.SubmitProof(c.Request.Context(), core.Proof{
		Origin:    c.ClientIP(),
		Signature: req.Signature,
		Challenge: req.Challenge,
		Ownership: req.Ownership(),
	})
	if err != nil {
		if errors.Is(err, core.ErrAuthFailed) {
			c.JSON(http.StatusUnauthorized, gin.H{"data": "signature not valid"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       "pass",
		"token":      token.Value,
		"expires_at": token.ExpiresAt,
	})
}

// Stream serves the protected video to the holder of a live token
func (h *GateHandlers) Stream(c *gin.Context) {
	if _, err := h.gate.RedeemToken(c.Request.Context(), c.Param("streamtoken"), c.ClientIP()); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "File not found"})
		return
	}

	if h.moviePath == "" {
		c.JSON(http.StatusNotFound, gin.H{"status": "File not found"})
		return
	}
	if info, err := os.Stat(h.moviePath); err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"status": "File not found"})
		return
	}

	c.FileAttachment(h.moviePath, filepath.Base(h.moviePath))
}

// Chat answers a message in the persona of the token's asset
func (h *GateHandlers) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Validate() != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	asset, err := h.gate.RedeemToken(c.Request.Context(), c.Param("streamtoken"), c.ClientIP())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Chat not authenticated"})
		return
	}

	reply, err := h.chat.Reply(c.Request.Context(), asset, req.Message)
	if err != nil {
		h.logger.Error("chat backend failed", slog.String("asset", string(asset)), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error processing message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chat": reply})
}

// Health reports that the process is serving
func (h *GateHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
