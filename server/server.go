// Package server exposes the answer loop over HTTP: an SSE chat endpoint, a
// WebSocket chat endpoint, and a health probe, with optional bearer-token
// authentication in front of the chat surface.
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/localrivet/wikichat"
	"github.com/localrivet/wikichat/agent"
	"github.com/localrivet/wikichat/auth"
	"github.com/localrivet/wikichat/logx"
	"github.com/localrivet/wikichat/types"
)

// DefaultMaxMessageLength bounds incoming chat messages, counted in runes.
const DefaultMaxMessageLength = 4000

// Answerer runs one question through the tool-use loop. *agent.Agent
// satisfies it; tests substitute scripted fakes.
type Answerer interface {
	Answer(ctx context.Context, question string, opts ...agent.AnswerOption) error
}

// Server wires the chat transports onto a gin engine.
type Server struct {
	engine           *gin.Engine
	agent            Answerer
	validator        auth.TokenValidator
	maxMessageLength int
	logger           types.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for the server.
func WithLogger(l types.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAuth enables bearer-token authentication on the chat endpoints using
// the given validator. The health probe stays open.
func WithAuth(v auth.TokenValidator) Option {
	return func(s *Server) { s.validator = v }
}

// WithMaxMessageLength sets the incoming message length limit in runes.
func WithMaxMessageLength(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxMessageLength = n
		}
	}
}

// WithMode sets the gin mode (debug, release, or test) before the engine is
// built.
func WithMode(mode string) Option {
	return func(*Server) {
		if mode != "" {
			gin.SetMode(mode)
		}
	}
}

// New creates a Server around an Answerer and builds its routes.
func New(a Answerer, opts ...Option) *Server {
	s := &Server{
		agent:            a,
		maxMessageLength: DefaultMaxMessageLength,
		logger:           logx.NewDefaultLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.corsMiddleware())

	engine.GET("/healthz", s.handleHealth)

	api := engine.Group("/api")
	if s.validator != nil {
		api.Use(s.authMiddleware())
	}
	api.POST("/chat", s.handleChat)
	api.GET("/ws", s.handleWS)

	s.engine = engine
	return s
}

// Handler returns the http.Handler for mounting on an http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": wikichat.Version})
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// authMiddleware extracts and validates the bearer token before any
// streaming starts, then stores the Principal on the request context.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractToken(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		principal, err := s.validator.ValidateToken(c.Request.Context(), token)
		if err != nil {
			s.logger.Warn("rejected token from %s: %v", c.ClientIP(), err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Request = c.Request.WithContext(auth.ContextWithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}
