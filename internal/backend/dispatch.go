package backend

import (
	"context"
	"fmt"
	"time"

	"docchat/internal/backend/mock"
	"docchat/internal/backend/rest"
	"docchat/internal/config"
	"docchat/internal/logging"
)

// New resolves the configured backend implementation. The choice is made
// once at startup; callers see the same Backend surface either way. Every
// backend is wrapped with client-side request validation.
func New(cfg *config.Config, logger *logging.Logger) (Backend, error) {
	switch cfg.Backend.Mode {
	case "mock":
		b, err := newMock(cfg, logger)
		if err != nil {
			return nil, err
		}
		return Validate(b), nil

	case "http":
		timeout := time.Duration(cfg.Backend.TimeoutSeconds) * time.Second
		client := rest.NewClient(cfg.Backend.BaseURL, timeout, logger)
		return Validate(client), nil

	default:
		return nil, fmt.Errorf("unknown backend mode: %s", cfg.Backend.Mode)
	}
}

func newMock(cfg *config.Config, logger *logging.Logger) (Backend, error) {
	var repo mock.Repository
	switch cfg.Mock.Store {
	case "sqlite":
		r, err := mock.NewSQLiteRepository(cfg.Mock.StorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open mock store: %w", err)
		}
		repo = r
	default:
		repo = mock.NewMemoryRepository()
	}

	if cfg.Mock.SeedDemoData {
		if err := mock.Seed(context.Background(), repo); err != nil {
			return nil, fmt.Errorf("failed to seed mock data: %w", err)
		}
	}

	return mock.NewBackend(repo, mock.Options{
		MinLatency:  time.Duration(cfg.Mock.MinLatencyMs) * time.Millisecond,
		MaxLatency:  time.Duration(cfg.Mock.MaxLatencyMs) * time.Millisecond,
		IngestDelay: time.Duration(cfg.Mock.IngestDelayMs) * time.Millisecond,
	}, logger), nil
}
