package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/journal"
	"github.com/starford/raido/internal/models"
)

// Syncer is the engine surface the control API drives. Implementations
// return apperr.ErrConflict when a pass is already in progress.
type Syncer interface {
	Sync(ctx context.Context, dryRun bool) (*models.Summary, error)
	QueueState() string
	Pending() int
}

// Handler holds API route handlers.
type Handler struct {
	syncer  Syncer
	history journal.Journal
}

// NewHandler creates a new Handler. history may be nil when run history is
// not persisted.
func NewHandler(syncer Syncer, history journal.Journal) *Handler {
	return &Handler{syncer: syncer, history: history}
}

// SummaryResponse is the JSON shape of one sync pass outcome.
type SummaryResponse struct {
	Started    time.Time         `json:"started"`
	Finished   time.Time         `json:"finished"`
	Uploaded   int               `json:"uploaded"`
	Downloaded int               `json:"downloaded"`
	Archived   int               `json:"archived"`
	Skipped    int               `json:"skipped"`
	Conflicts  int               `json:"conflicts"`
	Failures   []FailureResponse `json:"failures,omitempty"`
}

// FailureResponse is one terminal per-document failure.
type FailureResponse struct {
	Path    string `json:"path,omitempty"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func toSummaryResponse(s *models.Summary) SummaryResponse {
	out := SummaryResponse{
		Started:    s.Started,
		Finished:   s.Finished,
		Uploaded:   s.Uploaded,
		Downloaded: s.Downloaded,
		Archived:   s.Archived,
		Skipped:    s.Skipped,
		Conflicts:  s.Conflicts,
	}
	for _, f := range s.Failures {
		out.Failures = append(out.Failures, FailureResponse{
			Path: f.Path, Kind: string(f.Kind), Message: f.Message,
		})
	}
	return out
}

// Status handles GET /status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"state":   h.syncer.QueueState(),
		"pending": h.syncer.Pending(),
	}
	if h.history != nil {
		last, err := h.history.LastRun()
		if err != nil {
			slog.Error("last run lookup failed", slog.String("error", err.Error()))
		} else if last != nil {
			resp["lastRun"] = runResponse(*last)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// TriggerSync handles POST /sync. The optional dry_run query parameter
// plans the pass without touching either side.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run"))

	summary, err := h.syncer.Sync(r.Context(), dryRun)
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			writeJSON(w, http.StatusConflict, errorBody("sync already in progress"))
			return
		}
		slog.Error("sync failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}

// RunResponse is one recorded pass in run history.
type RunResponse struct {
	ID         int64             `json:"id"`
	Started    time.Time         `json:"started"`
	Finished   time.Time         `json:"finished"`
	Uploaded   int               `json:"uploaded"`
	Downloaded int               `json:"downloaded"`
	Archived   int               `json:"archived"`
	Skipped    int               `json:"skipped"`
	Conflicts  int               `json:"conflicts"`
	Failures   []FailureResponse `json:"failures,omitempty"`
}

func runResponse(r journal.Run) RunResponse {
	out := RunResponse{
		ID:         r.ID,
		Started:    r.Started,
		Finished:   r.Finished,
		Uploaded:   r.Uploaded,
		Downloaded: r.Downloaded,
		Archived:   r.Archived,
		Skipped:    r.Skipped,
		Conflicts:  r.Conflicts,
	}
	for _, f := range r.Failures {
		out.Failures = append(out.Failures, FailureResponse{
			Path: f.Path, Kind: string(f.Kind), Message: f.Message,
		})
	}
	return out
}

// ListRuns handles GET /runs.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusOK, map[string]any{"runs": []RunResponse{}})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.history.ListRuns(limit)
	if err != nil {
		slog.Error("list runs failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	out := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, runResponse(run))
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": out})
}
