// Command wikichat runs the chat server: it wires the Wikipedia search
// client and the Claude model into the answer loop and serves the HTTP API.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/localrivet/wikichat/agent"
	"github.com/localrivet/wikichat/auth"
	"github.com/localrivet/wikichat/config"
	"github.com/localrivet/wikichat/logx"
	"github.com/localrivet/wikichat/model/claude"
	"github.com/localrivet/wikichat/server"
	"github.com/localrivet/wikichat/wikipedia"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := logx.NewLogger(logx.ParseLevel(cfg.Log.Level))

	wiki := wikipedia.NewClient(
		wikipedia.WithDefaultLanguage(cfg.Wikipedia.DefaultLanguage),
		wikipedia.WithLimit(cfg.Wikipedia.SearchLimit),
		wikipedia.WithTimeout(cfg.Wikipedia.Timeout),
		wikipedia.WithUserAgent(cfg.Wikipedia.UserAgent),
		wikipedia.WithRateLimit(cfg.Wikipedia.RatePerSecond, cfg.Wikipedia.RateBurst),
		wikipedia.WithLogger(logger),
	)

	claudeOpts := []claude.Option{
		claude.WithAPIKey(cfg.Model.APIKey),
		claude.WithModel(cfg.Model.Name),
		claude.WithLogger(logger),
	}
	if cfg.Model.BaseURL != "" {
		claudeOpts = append(claudeOpts, claude.WithBaseURL(cfg.Model.BaseURL))
	}
	mc, err := claude.New(claudeOpts...)
	if err != nil {
		log.Fatalf("creating model client: %v", err)
	}

	agentOpts := []agent.Option{
		agent.WithMaxToolCalls(cfg.Chat.MaxToolCalls),
		agent.WithMaxTokens(cfg.Model.MaxTokens),
		agent.WithLogger(logger),
	}
	if cfg.Chat.SystemPrompt != "" {
		agentOpts = append(agentOpts, agent.WithSystemPrompt(cfg.Chat.SystemPrompt))
	}
	ag := agent.New(mc, wiki, agentOpts...)

	serverOpts := []server.Option{
		server.WithLogger(logger),
		server.WithMode(cfg.Server.Mode),
		server.WithMaxMessageLength(cfg.Chat.MaxMessageLength),
	}
	if cfg.Auth.Enabled {
		validator, err := buildValidator(cfg)
		if err != nil {
			log.Fatalf("configuring auth: %v", err)
		}
		serverOpts = append(serverOpts, server.WithAuth(validator))
	}
	srv := server.New(ag, serverOpts...)

	httpServer := &http.Server{
		Addr:    cfg.ServerAddr(),
		Handler: srv.Handler(),
	}

	go func() {
		logger.Info("listening on %s", cfg.ServerAddr())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("could not listen on %s: %v", cfg.ServerAddr(), err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutdown signal received, draining connections")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown: %v", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func buildValidator(cfg *config.Config) (auth.TokenValidator, error) {
	switch cfg.Auth.Mode {
	case config.AuthModeJWKS:
		return auth.NewJWKSTokenValidator(auth.JWKSConfig{
			JWKSURL:          cfg.Auth.JWKSURL,
			ExpectedIssuer:   cfg.Auth.Issuer,
			ExpectedAudience: cfg.Auth.Audience,
		}, nil)
	default:
		return auth.NewStaticTokenValidator(cfg.Auth.Tokens), nil
	}
}
