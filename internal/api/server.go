// Package api exposes the trade executor over authenticated HTTP endpoints.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Asadbekabdullaev35/sauce-bot-backend-v1/internal/store"
	"github.com/Asadbekabdullaev35/sauce-bot-backend-v1/internal/trade"
)

// TradeService is what the facade needs from the executor.
type TradeService interface {
	Execute(ctx context.Context, dir trade.Direction, req trade.Request) (string, error)
}

// Server wires routes, middleware, and the trade service.
type Server struct {
	engine *gin.Engine
	trades TradeService
	log    zerolog.Logger
}

// NewServer builds the gin engine with the shared-secret check on every /api route.
func NewServer(trades TradeService, apiKey string, log zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.Default())

	s := &Server{engine: engine, trades: trades, log: log}

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authed := engine.Group("/api", RequireAPIKey(apiKey))
	authed.POST("/buy", s.handleTrade(trade.Buy))
	authed.POST("/sell", s.handleTrade(trade.Sell))

	return s
}

// Handler exposes the underlying engine for tests and the HTTP server.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) handleTrade(dir trade.Direction) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req trade.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		sig, err := s.trades.Execute(c.Request.Context(), dir, req)
		if err != nil {
			status := statusFor(err)
			s.log.Error().
				Err(err).
				Str("direction", string(dir)).
				Str("telegramId", req.TelegramID).
				Int("status", status).
				Msg("trade failed")
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "signature": sig})
	}
}

// statusFor maps pipeline errors onto HTTP statuses: caller mistakes are 400,
// everything else (corruption, aggregator, chain) is 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, trade.ErrInvalidRequest),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, trade.ErrNoWallet):
		return http.StatusBadRequest
	default:
		// Key mismatches, vault failures, aggregator and chain errors are
		// all server-side faults.
		return http.StatusInternalServerError
	}
}
