// Package engine implements the sync engine: change detection, the batched
// operation queue, conflict resolution, and the orchestrator driving a pass.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/starford/raido/internal/checksum"
	"github.com/starford/raido/internal/markup"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/store"
)

// RemoteClient is the remote-service contract the engine consumes.
// Satisfied by *remote.Client.
type RemoteClient interface {
	QueryCollection(ctx context.Context, collectionID string) ([]models.RemoteDocument, error)
	GetChildren(ctx context.Context, blockID string) ([]models.Block, error)
	CreateDocument(ctx context.Context, collectionID, title string, blocks []models.Block) (string, error)
	UpdateTitle(ctx context.Context, id, title string) error
	ClearChildren(ctx context.Context, id string) error
	AppendChildren(ctx context.Context, id string, blocks []models.Block) error
	ArchiveDocument(ctx context.Context, id string) error
}

// Config holds the orchestrator's collaborators.
type Config struct {
	Store        store.Provider
	Client       RemoteClient
	Decide       DecisionProvider
	CollectionID string
	Queue        QueueConfig
	Logger       *slog.Logger
}

// RunOpts holds per-pass options.
type RunOpts struct {
	DryRun bool
}

// Orchestrator drives a sync pass: enumerate, classify, enqueue, execute,
// reconcile orphans. No per-document failure aborts the pass.
type Orchestrator struct {
	store        store.Provider
	client       RemoteClient
	queue        *Queue
	resolver     *Resolver
	renderer     *markup.Renderer
	cache        *idCache
	collectionID string
	logger       *slog.Logger

	mu      sync.Mutex
	summary *models.Summary
}

// New creates an Orchestrator.
func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		store:        cfg.Store,
		client:       cfg.Client,
		resolver:     NewResolver(cfg.Decide, cfg.Logger),
		renderer:     markup.NewRenderer(cfg.Client),
		cache:        newIDCache(),
		collectionID: cfg.CollectionID,
		logger:       cfg.Logger,
	}
	o.queue = NewQueue(o, cfg.Queue, cfg.Logger)
	return o
}

// Queue exposes the sync queue for state inspection and connectivity
// signals.
func (o *Orchestrator) Queue() *Queue {
	return o.queue
}

// Run executes one sync pass and returns its summary. The returned error is
// non-nil only when the pass could not start at all (the collection query
// failed); per-document failures land in the summary instead.
func (o *Orchestrator) Run(ctx context.Context, opts RunOpts) (*models.Summary, error) {
	summary := &models.Summary{Started: time.Now()}
	o.mu.Lock()
	o.summary = summary
	o.mu.Unlock()

	docs, err := o.rebuildCache()
	if err != nil {
		return nil, fmt.Errorf("engine: list vault: %w", err)
	}

	remoteDocs, err := o.client.QueryCollection(ctx, o.collectionID)
	if err != nil {
		return nil, fmt.Errorf("engine: query collection: %w", err)
	}
	remoteByID := make(map[string]models.RemoteDocument, len(remoteDocs))
	for _, rd := range remoteDocs {
		remoteByID[rd.ID] = rd
	}

	for _, info := range docs {
		o.planDocument(ctx, info.Path, remoteByID, summary, opts)
	}

	// Orphaned remote documents are reconciled in the upload-direction
	// pass: anything the vault no longer references gets archived.
	o.planOrphans(remoteDocs, summary, opts)

	if !opts.DryRun {
		summary.Failures = append(summary.Failures, o.queue.Process(ctx)...)
	}
	summary.Finished = time.Now()
	return summary, nil
}

// rebuildCache rescans the vault and rebuilds the path↔remote-id cache.
func (o *Orchestrator) rebuildCache() ([]store.FileInfo, error) {
	docs, err := o.store.ListDocuments()
	if err != nil {
		return nil, err
	}
	o.cache.reset()
	for _, info := range docs {
		doc, err := store.Load(o.store, info.Path)
		if err != nil {
			continue // unreadable entries are handled during planning
		}
		if doc.Metadata.Bound() {
			o.cache.set(info.Path, doc.Metadata.RemoteID)
		}
	}
	return docs, nil
}

// planDocument classifies one local document and enqueues the resulting
// operation, if any.
func (o *Orchestrator) planDocument(ctx context.Context, docPath string, remoteByID map[string]models.RemoteDocument, summary *models.Summary, opts RunOpts) {
	doc, err := store.Load(o.store, docPath)
	if err != nil {
		// Unreadable file: skip for this pass, never fatal to the run.
		o.logger.Warn("engine: unreadable document, skipping",
			slog.String("path", docPath), slog.String("error", err.Error()))
		summary.Skipped++
		return
	}

	localHash := checksum.Text(doc.Body)

	if !doc.Metadata.Bound() {
		o.enqueue(models.Operation{Kind: models.OpUpload, Path: docPath}, summary, opts)
		return
	}

	rd, exists := remoteByID[doc.Metadata.RemoteID]
	if !exists {
		// The remote side vanished (archived elsewhere). Recreate it from
		// the local copy; detaching instead is the decision provider's
		// call in interactive setups.
		o.logger.Info("engine: remote document missing, recreating",
			slog.String("path", docPath), slog.String("remote_id", doc.Metadata.RemoteID))
		o.enqueue(models.Operation{Kind: models.OpUpload, Path: docPath}, summary, opts)
		return
	}

	remoteBody, remoteBlocks, err := o.renderRemote(ctx, rd)
	if err != nil {
		o.logger.Warn("engine: remote fetch failed, skipping document",
			slog.String("path", docPath), slog.String("error", err.Error()))
		summary.Failures = append(summary.Failures, models.Failure{
			Path: docPath, Kind: models.OpDownload, Message: err.Error(),
		})
		return
	}
	remoteHash := checksum.Text(remoteBody)

	switch Detect(doc, localHash, remoteHash) {
	case ActionSkip:
		summary.Skipped++

	case ActionUpload:
		o.enqueue(models.Operation{Kind: models.OpUpload, Path: docPath, RemoteID: rd.ID}, summary, opts)

	case ActionDownload:
		o.enqueue(models.Operation{
			Kind: models.OpDownload, Path: docPath, RemoteID: rd.ID, Payload: remoteBlocks,
		}, summary, opts)

	case ActionConflict:
		summary.Conflicts++
		if opts.DryRun {
			return
		}
		op, err := o.resolver.Resolve(ctx, &Conflict{
			Doc:          doc,
			RemoteID:     rd.ID,
			RemoteBlocks: remoteBlocks,
			LocalBody:    doc.Body,
			RemoteBody:   remoteBody,
		})
		if err != nil {
			summary.Failures = append(summary.Failures, models.Failure{
				Path: docPath, Kind: models.OpUpload, Message: err.Error(),
			})
			return
		}
		if op != nil {
			o.queue.Enqueue(*op)
		} else {
			summary.Skipped++
		}
	}
}

// renderRemote fetches the remote document's block tree and renders it to
// markup, resolving nested children on demand. The fetched tree is returned
// alongside the text so later stages of the same pass reuse it instead of
// asking the service again.
func (o *Orchestrator) renderRemote(ctx context.Context, rd models.RemoteDocument) (string, []models.Block, error) {
	blocks := rd.Blocks
	if len(blocks) == 0 {
		fetched, err := o.client.GetChildren(ctx, rd.ID)
		if err != nil {
			return "", nil, err
		}
		blocks = fetched
	}
	body, err := o.renderer.Render(ctx, blocks)
	if err != nil {
		return "", nil, err
	}
	return body, blocks, nil
}

// planOrphans queues archival for remote documents no local document
// references, at most once per pass per id.
func (o *Orchestrator) planOrphans(remoteDocs []models.RemoteDocument, summary *models.Summary, opts RunOpts) {
	seen := make(map[string]bool)
	for _, rd := range remoteDocs {
		if seen[rd.ID] {
			continue
		}
		seen[rd.ID] = true
		if _, _, err := models.ParseRemoteTitle(rd.Title); err != nil {
			o.logger.Warn("engine: unparsable remote title, skipping",
				slog.String("remote_id", rd.ID), slog.String("title", rd.Title))
			continue
		}
		if o.cache.hasRemote(rd.ID) {
			continue
		}
		o.enqueue(models.Operation{Kind: models.OpDelete, RemoteID: rd.ID}, summary, opts)
	}
}

// enqueue adds op to the queue, or just counts it in dry-run mode.
func (o *Orchestrator) enqueue(op models.Operation, summary *models.Summary, opts RunOpts) {
	if opts.DryRun {
		switch op.Kind {
		case models.OpUpload:
			summary.Uploaded++
		case models.OpDownload:
			summary.Downloaded++
		case models.OpDelete:
			summary.Archived++
		}
		return
	}
	o.queue.Enqueue(op)
}

// Execute runs one operation on behalf of the queue.
func (o *Orchestrator) Execute(ctx context.Context, op models.Operation) error {
	switch op.Kind {
	case models.OpUpload:
		return o.executeUpload(ctx, op)
	case models.OpDownload:
		return o.executeDownload(ctx, op)
	case models.OpDelete:
		return o.executeDelete(ctx, op)
	default:
		return fmt.Errorf("engine: unknown operation kind %q", op.Kind)
	}
}

// executeUpload pushes the local document to the remote side, creating the
// page when no binding exists and replacing its children otherwise.
func (o *Orchestrator) executeUpload(ctx context.Context, op models.Operation) error {
	doc, err := store.Load(o.store, op.Path)
	if err != nil {
		return fmt.Errorf("engine: read %s: %w", op.Path, err)
	}
	blocks := markup.ToBlocks(doc.Body)
	title := doc.RemoteTitle()

	// Only the operation's binding counts: a stale metadata binding whose
	// remote side vanished must fall through to create.
	remoteID := op.RemoteID

	if remoteID == "" {
		id, err := o.client.CreateDocument(ctx, o.collectionID, title, blocks)
		if err != nil {
			return err
		}
		remoteID = id
	} else {
		// Title refresh covers renames; replace children wholesale.
		if err := o.client.UpdateTitle(ctx, remoteID, title); err != nil {
			return err
		}
		if err := o.client.ClearChildren(ctx, remoteID); err != nil {
			return err
		}
		if err := o.client.AppendChildren(ctx, remoteID, blocks); err != nil {
			return err
		}
	}

	// The remote tree now mirrors the uploaded blocks; hash what the next
	// pass will see when it renders them back.
	rendered, err := markup.NewRenderer(nil).Render(ctx, blocks)
	if err != nil {
		return err
	}
	doc.Metadata = &models.Metadata{
		RemoteID:    remoteID,
		Link:        store.RemoteLink(remoteID),
		LastSync:    time.Now(),
		ContentHash: checksum.Text(doc.Body),
		RemoteHash:  checksum.Text(rendered),
		FilePath:    doc.Path,
	}
	if err := store.Save(o.store, doc); err != nil {
		return fmt.Errorf("engine: save metadata for %s: %w", op.Path, err)
	}
	o.cache.set(doc.Path, remoteID)
	o.count(models.OpUpload)
	return nil
}

// executeDownload writes the remote content over the local document.
// A payload attached by the conflict resolver skips the re-fetch.
func (o *Orchestrator) executeDownload(ctx context.Context, op models.Operation) error {
	blocks := op.Payload
	if len(blocks) == 0 {
		fetched, err := o.client.GetChildren(ctx, op.RemoteID)
		if err != nil {
			return err
		}
		blocks = fetched
	}
	body, err := o.renderer.Render(ctx, blocks)
	if err != nil {
		return err
	}

	if dir := path.Dir(op.Path); dir != "." {
		ok, err := o.store.Exists(dir)
		if err != nil {
			return err
		}
		if !ok {
			if err := o.store.Mkdir(dir); err != nil {
				return err
			}
		}
	}

	hash := checksum.Text(body)
	doc := &models.SyncedDocument{
		Path: op.Path,
		Body: body,
		Metadata: &models.Metadata{
			RemoteID:    op.RemoteID,
			Link:        store.RemoteLink(op.RemoteID),
			LastSync:    time.Now(),
			ContentHash: hash,
			RemoteHash:  hash,
			FilePath:    op.Path,
		},
	}
	if err := store.Save(o.store, doc); err != nil {
		return fmt.Errorf("engine: write %s: %w", op.Path, err)
	}
	o.cache.set(op.Path, op.RemoteID)
	o.count(models.OpDownload)
	return nil
}

// executeDelete archives an orphaned remote document.
func (o *Orchestrator) executeDelete(ctx context.Context, op models.Operation) error {
	if err := o.client.ArchiveDocument(ctx, op.RemoteID); err != nil {
		return err
	}
	o.count(models.OpDelete)
	return nil
}

// count records a successful operation on the current pass summary.
func (o *Orchestrator) count(kind models.OpKind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.summary == nil {
		return
	}
	switch kind {
	case models.OpUpload:
		o.summary.Uploaded++
	case models.OpDownload:
		o.summary.Downloaded++
	case models.OpDelete:
		o.summary.Archived++
	}
}
