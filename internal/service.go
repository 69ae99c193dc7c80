package internal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/engine"
	"github.com/starford/raido/internal/journal"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/remote"
	"github.com/starford/raido/internal/store"
)

// syncService drives the orchestrator on behalf of the CLI, the control
// API, and the MCP server. At most one pass runs at a time; overlapping
// requests get apperr.ErrConflict.
type syncService struct {
	orch    *engine.Orchestrator
	history journal.Journal
	logger  *slog.Logger

	mu sync.Mutex
}

// buildService wires the store, remote client, and orchestrator from config.
// The returned close function releases the journal, if one is configured.
func buildService(cfg *Config, logger *slog.Logger) (*syncService, store.Provider, func(), error) {
	fs, err := store.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init store: %w", err)
	}

	decide, err := engine.PolicyProvider(cfg.Sync.ConflictPolicy)
	if err != nil {
		return nil, nil, nil, err
	}

	client := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.Token, logger)

	orch := engine.New(engine.Config{
		Store:        fs,
		Client:       client,
		Decide:       decide,
		CollectionID: cfg.Remote.CollectionID,
		Queue: engine.QueueConfig{
			BatchSize: cfg.Sync.BatchSize,
			Pacing:    cfg.Sync.Pacing,
		},
		Logger: logger,
	})

	svc := &syncService{orch: orch, logger: logger}
	closeFn := func() {}

	if cfg.Journal.Path != "" {
		db, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("init journal: %w", err)
		}
		svc.history = db
		closeFn = func() { _ = db.Close() }
	}

	return svc, fs, closeFn, nil
}

// Sync runs one pass and records it in the journal. Dry runs are not
// recorded; they change nothing, so they are not history.
func (s *syncService) Sync(ctx context.Context, dryRun bool) (*models.Summary, error) {
	if !s.mu.TryLock() {
		return nil, apperr.ErrConflict
	}
	defer s.mu.Unlock()

	summary, err := s.orch.Run(ctx, engine.RunOpts{DryRun: dryRun})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sync pass finished",
		slog.Bool("dry_run", dryRun),
		slog.Int("uploaded", summary.Uploaded),
		slog.Int("downloaded", summary.Downloaded),
		slog.Int("archived", summary.Archived),
		slog.Int("skipped", summary.Skipped),
		slog.Int("conflicts", summary.Conflicts),
		slog.Int("failures", len(summary.Failures)))
	for _, f := range summary.Failures {
		s.logger.Warn("sync failure",
			slog.String("path", f.Path),
			slog.String("kind", string(f.Kind)),
			slog.String("error", f.Message))
	}

	if s.history != nil && !dryRun {
		if _, err := s.history.SaveRun(summary); err != nil {
			s.logger.Warn("journal save failed", slog.String("error", err.Error()))
		}
	}
	return summary, nil
}

// QueueState reports the engine queue state for status surfaces.
func (s *syncService) QueueState() string {
	return s.orch.Queue().State().String()
}

// Pending reports the number of queued operations.
func (s *syncService) Pending() int {
	return s.orch.Queue().Pending()
}
