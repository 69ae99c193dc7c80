package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/raido/internal/models"
)

// Decision is the outcome a Decision Provider chooses for a conflict.
type Decision int

const (
	DecisionKeepLocal Decision = iota
	DecisionKeepRemote
	DecisionInspect
	DecisionSkip
)

// Conflict pairs a local document with the remote side's current content.
// It exists only for the duration of resolution and is never persisted.
type Conflict struct {
	Doc          *models.SyncedDocument
	RemoteID     string
	RemoteBlocks []models.Block
	LocalBody    string
	RemoteBody   string
}

// DecisionProvider resolves a conflict. The engine suspends until it
// returns; how the choice is presented (prompt, policy, HTTP) is the
// provider's business.
type DecisionProvider func(ctx context.Context, c *Conflict) (Decision, error)

// Resolver turns a conflict into at most one sync operation.
type Resolver struct {
	decide DecisionProvider
	logger *slog.Logger
}

// NewResolver creates a Resolver backed by the given provider.
func NewResolver(decide DecisionProvider, logger *slog.Logger) *Resolver {
	return &Resolver{decide: decide, logger: logger}
}

// Resolve asks the provider for a decision. Keep-local enqueues an upload;
// keep-remote a download carrying the already-fetched remote content so it
// is not re-fetched; skip yields no operation. Inspect hands both rendered
// sides to the provider and re-enters the same resolution.
func (r *Resolver) Resolve(ctx context.Context, c *Conflict) (*models.Operation, error) {
	for {
		d, err := r.decide(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("engine: conflict decision for %s: %w", c.Doc.Path, err)
		}
		switch d {
		case DecisionKeepLocal:
			r.logger.Info("conflict: keeping local", slog.String("path", c.Doc.Path))
			return &models.Operation{Kind: models.OpUpload, Path: c.Doc.Path, RemoteID: c.RemoteID}, nil
		case DecisionKeepRemote:
			r.logger.Info("conflict: keeping remote", slog.String("path", c.Doc.Path))
			return &models.Operation{
				Kind:     models.OpDownload,
				Path:     c.Doc.Path,
				RemoteID: c.RemoteID,
				Payload:  c.RemoteBlocks,
			}, nil
		case DecisionSkip:
			r.logger.Info("conflict: skipped", slog.String("path", c.Doc.Path))
			return nil, nil
		case DecisionInspect:
			// Both sides are already rendered on the record; loop back so
			// the provider can decide with the comparison in hand.
			continue
		default:
			return nil, fmt.Errorf("engine: unknown decision %d for %s", d, c.Doc.Path)
		}
	}
}

// PolicyProvider returns a non-interactive Decision Provider for unattended
// runs. Recognized policies: "keep-local", "keep-remote", "skip".
func PolicyProvider(policy string) (DecisionProvider, error) {
	var d Decision
	switch policy {
	case "keep-local":
		d = DecisionKeepLocal
	case "keep-remote":
		d = DecisionKeepRemote
	case "skip", "":
		d = DecisionSkip
	default:
		return nil, fmt.Errorf("engine: unknown conflict policy %q", policy)
	}
	return func(context.Context, *Conflict) (Decision, error) {
		return d, nil
	}, nil
}
