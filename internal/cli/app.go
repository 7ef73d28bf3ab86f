package cli

import (
	"context"
	"fmt"

	"fairbot/internal/assistant"
	"fairbot/internal/config"
	"fairbot/internal/corrections"
	"fairbot/internal/history"
	"fairbot/internal/logstore"
	"fairbot/internal/storage"
)

// app holds the log store and the services built on it.
type app struct {
	cfg     *config.Config
	backend storage.Backend
	store   *logstore.Store
	history *history.Engine
	matcher *corrections.Matcher
}

func openApp(cfg *config.Config) (*app, error) {
	backend, err := storage.Open(cfg.StoreDriver, cfg.StoreDSN, cfg.StorePageSize)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	store := logstore.New(backend)
	return &app{
		cfg:     cfg,
		backend: backend,
		store:   store,
		history: history.NewEngine(store),
		matcher: corrections.NewMatcher(store, cfg.CorrectionWindow),
	}, nil
}

func (a *app) Close() error {
	return a.backend.Close()
}

// assistant builds the chat service. It needs a configured LLM provider.
func (a *app) assistant(ctx context.Context) (*assistant.Service, error) {
	return assistant.FromConfig(ctx, a.cfg, a.store, a.matcher)
}
