package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nidhogg/atrium/internal/api"
	"github.com/nidhogg/atrium/internal/config"
	"github.com/nidhogg/atrium/internal/gateway"
	"github.com/nidhogg/atrium/internal/llm"
	"github.com/nidhogg/atrium/internal/orchestrator"
	pgstore "github.com/nidhogg/atrium/internal/store"
	"github.com/nidhogg/atrium/internal/subagent"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	logger.Info("Starting Atrium...")

	// Load configuration
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/atrium.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.String("path", cfgPath), zap.Error(err))
	}
	logger.Info("Config loaded", zap.String("path", cfgPath))

	// Initialize completion router
	completions := llm.NewRouter(logger)
	for _, lc := range cfg.LLM {
		llmCfg := llm.Config{
			ID: lc.ID, Type: lc.Type,
			Endpoint: lc.Endpoint, APIKey: lc.APIKey, Model: lc.Model,
		}
		switch lc.Type {
		case "gemini":
			completions.Register(llm.NewGeminiCompleter(llmCfg, logger))
		case "openai":
			completions.Register(llm.NewOpenAICompleter(llmCfg, logger))
		default:
			logger.Warn("unknown llm type", zap.String("id", lc.ID), zap.String("type", lc.Type))
		}
	}
	var completer llm.Completer
	if completions.Len() > 0 {
		completer = completions
	}

	// Initialize message archive
	var pgStore *pgstore.Store
	if cfg.Database.Postgres.DSN != "" {
		ps, pgErr := pgstore.New(cfg.Database.Postgres.DSN, logger)
		if pgErr != nil {
			logger.Warn("PostgreSQL unavailable, running without the message archive", zap.Error(pgErr))
		} else {
			if mErr := ps.Migrate(context.Background(), "migrations"); mErr != nil {
				logger.Fatal("migration failed", zap.Error(mErr))
			}
			pgStore = ps
		}
	}

	// Initialize orchestration event stream
	var events *orchestrator.EventPublisher
	if cfg.Database.Redis.URL != "" {
		ep, redisErr := orchestrator.NewEventPublisher(cfg.Database.Redis.URL, logger)
		if redisErr != nil {
			logger.Warn("Redis unavailable, running without the event stream", zap.Error(redisErr))
		} else {
			events = ep
		}
	}

	// Initialize gateway adapters
	gw := gateway.NewGateway(logger)

	var slackClient *slack.Client
	if cfg.Gateway.Slack.Enabled && cfg.Gateway.Slack.BotToken != "" {
		slackAdapter := gateway.NewSlackAdapter(cfg.Gateway.Slack.BotToken, cfg.Gateway.Slack.AppToken, logger)
		gw.Register(slackAdapter)
		slackClient = slackAdapter.Client()
	}
	if cfg.Gateway.Discord.Enabled && cfg.Gateway.Discord.BotToken != "" {
		discordAdapter := gateway.NewDiscordAdapter(cfg.Gateway.Discord.BotToken, logger)
		gw.Register(discordAdapter)
	}

	// The agent factory. Slack agents get the local archive plus the
	// shared API client; every other source runs as a stub until its
	// connector lands.
	agentTimeout := time.Duration(cfg.Orchestrator.AgentTimeoutSec) * time.Second
	factory := func(source, contextID string) subagent.Agent {
		if source == "slack" {
			var archive subagent.MessageStore
			if pgStore != nil {
				archive = pgStore
			}
			var slackAPI subagent.SlackAPI
			if slackClient != nil {
				slackAPI = slackClient
			}
			return subagent.NewSlackAgent(contextID, archive, slackAPI, agentTimeout, logger)
		}
		return subagent.NewStubAgent(source, contextID)
	}

	// Initialize orchestrator
	orch := orchestrator.New(factory, completer, events, orchestrator.Options{
		DefaultAgent:   cfg.Orchestrator.DefaultAgent,
		AgentTimeout:   agentTimeout,
		ProcessTimeout: time.Duration(cfg.Orchestrator.RequestTimeoutSec) * time.Second,
		Debug:          cfg.Orchestrator.Debug,
		CacheSize:      cfg.Orchestrator.CacheSize,
	}, logger)

	// Wire the bridge before connecting so no inbound message is dropped.
	gateway.NewBridge(gw, orch, time.Duration(cfg.Orchestrator.RequestTimeoutSec)*time.Second, logger)
	if err := gw.ConnectAll(context.Background()); err != nil {
		logger.Warn("some gateway adapters failed to connect", zap.Error(err))
	}

	// Build HTTP handler
	sources := []api.SourceInfo{
		{Name: "slack", Connected: slackClient != nil || pgStore != nil},
		{Name: "gmail", Connected: false},
		{Name: "jira", Connected: false},
		{Name: "github", Connected: false},
	}
	var archiver api.Archiver
	if pgStore != nil {
		archiver = pgStore
	}
	handler := api.NewHandler(orch, archiver, sources, gw, logger)

	// Start server
	port := fmt.Sprintf("%d", cfg.Server.Port)
	if port == "0" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("Atrium listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down Atrium...")
	srv.Shutdown(context.Background())
	if events != nil {
		events.Close()
	}
	if pgStore != nil {
		pgStore.Close()
	}
	gw.Close()
}
