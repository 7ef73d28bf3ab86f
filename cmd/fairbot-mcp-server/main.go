package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"fairbot/internal/assistant"
	"fairbot/internal/config"
	"fairbot/internal/corrections"
	"fairbot/internal/history"
	"fairbot/internal/logger"
	"fairbot/internal/logstore"
	"fairbot/internal/mcptools"
	"fairbot/internal/storage"
)

// MCP speaks over stdio, so logs must never reach stdout.
func main() {
	_ = godotenv.Load(".env")
	cfg := config.New()

	log := logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		Path:       cfg.LogFilePath,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})

	err := run(cfg, log)
	if err != nil {
		log.Errorw("mcp server failed", "error", err)
	}
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.SugaredLogger) error {
	backend, err := storage.Open(cfg.StoreDriver, cfg.StoreDSN, cfg.StorePageSize)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	defer backend.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx, log)

	store := logstore.New(backend)
	matcher := corrections.NewMatcher(store, cfg.CorrectionWindow)
	tools := &mcptools.Tools{
		Matcher:     matcher,
		History:     history.NewEngine(store),
		Corrections: store,
	}
	if svc, err := assistant.FromConfig(ctx, cfg, store, matcher); err != nil {
		log.Warnw("assistant unavailable, ask tool disabled", "error", err)
	} else {
		tools.Chat = svc
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "fairbot-mcp",
		Version: "1.0.0",
	}, nil)
	tools.Register(server)

	log.Infow("mcp server starting", "store", cfg.StoreDriver, "ask", tools.Chat != nil)
	if err := server.Run(ctx, mcp.NewStdioTransport()); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
