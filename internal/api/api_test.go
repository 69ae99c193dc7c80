package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/journal"
	"github.com/starford/raido/internal/models"
)

// fakeSyncer is a scripted Syncer for handler tests.
type fakeSyncer struct {
	summary *models.Summary
	err     error
	state   string
	pending int
	calls   int
	dryRuns int
}

func (f *fakeSyncer) Sync(_ context.Context, dryRun bool) (*models.Summary, error) {
	f.calls++
	if dryRun {
		f.dryRuns++
	}
	return f.summary, f.err
}

func (f *fakeSyncer) QueueState() string { return f.state }
func (f *fakeSyncer) Pending() int       { return f.pending }

func testJournal(t *testing.T) *journal.DB {
	t.Helper()
	f, err := os.CreateTemp("", "raido-api-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := journal.Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStatus(t *testing.T) {
	syncer := &fakeSyncer{state: "idle", pending: 2}
	db := testJournal(t)
	if _, err := db.SaveRun(&models.Summary{Started: time.Now(), Finished: time.Now(), Uploaded: 1}); err != nil {
		t.Fatal(err)
	}
	router := NewRouter(syncer, db, false, "")

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		State   string       `json:"state"`
		Pending int          `json:"pending"`
		LastRun *RunResponse `json:"lastRun"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.State != "idle" || resp.Pending != 2 {
		t.Errorf("resp = %+v", resp)
	}
	if resp.LastRun == nil || resp.LastRun.Uploaded != 1 {
		t.Errorf("lastRun = %+v", resp.LastRun)
	}
}

func TestTriggerSync(t *testing.T) {
	syncer := &fakeSyncer{
		summary: &models.Summary{Uploaded: 2, Skipped: 1},
		state:   "idle",
	}
	router := NewRouter(syncer, nil, false, "")

	req := httptest.NewRequest(http.MethodPost, "/sync", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp SummaryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Uploaded != 2 || resp.Skipped != 1 {
		t.Errorf("resp = %+v", resp)
	}
	if syncer.calls != 1 || syncer.dryRuns != 0 {
		t.Errorf("syncer calls = %d dry = %d", syncer.calls, syncer.dryRuns)
	}
}

func TestTriggerSyncDryRun(t *testing.T) {
	syncer := &fakeSyncer{summary: &models.Summary{}}
	router := NewRouter(syncer, nil, false, "")

	req := httptest.NewRequest(http.MethodPost, "/sync?dry_run=true", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if syncer.dryRuns != 1 {
		t.Errorf("dryRuns = %d, want 1", syncer.dryRuns)
	}
}

func TestTriggerSyncConflict(t *testing.T) {
	syncer := &fakeSyncer{err: apperr.ErrConflict}
	router := NewRouter(syncer, nil, false, "")

	req := httptest.NewRequest(http.MethodPost, "/sync", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}

func TestListRuns(t *testing.T) {
	db := testJournal(t)
	for i := 0; i < 2; i++ {
		if _, err := db.SaveRun(&models.Summary{Started: time.Now(), Finished: time.Now(), Downloaded: i}); err != nil {
			t.Fatal(err)
		}
	}
	router := NewRouter(&fakeSyncer{}, db, false, "")

	req := httptest.NewRequest(http.MethodGet, "/runs?limit=10", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Runs []RunResponse `json:"runs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(resp.Runs))
	}
	if resp.Runs[0].Downloaded != 1 {
		t.Errorf("newest run = %+v, want downloaded 1 first", resp.Runs[0])
	}
}

func TestAuthMiddleware(t *testing.T) {
	router := NewRouter(&fakeSyncer{state: "idle"}, nil, true, "secret")

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d, want 200", w.Code)
	}
}
