package models

import "time"

// OpKind enumerates the sync operation kinds.
type OpKind string

const (
	OpUpload   OpKind = "upload"
	OpDownload OpKind = "download"
	OpDelete   OpKind = "delete" // remote archive; the service has no hard delete
)

// MaxRetries is the per-operation retry budget for API-class failures.
const MaxRetries = 3

// Operation is one unit of work in the sync queue.
type Operation struct {
	Kind       OpKind
	Path       string // local document path; empty for orphan archival
	RemoteID   string
	Payload    []Block // pre-fetched remote blocks for keep-remote downloads
	EnqueuedAt time.Time
	RetryCount int
}

// Key returns the in-flight guard key: operations sharing a key never
// execute concurrently. Orphan archivals key on the remote id.
func (op Operation) Key() string {
	if op.Path != "" {
		return op.Path
	}
	return "remote:" + op.RemoteID
}

// Summary accumulates the outcome of one orchestrator pass.
type Summary struct {
	Started    time.Time
	Finished   time.Time
	Uploaded   int
	Downloaded int
	Archived   int
	Skipped    int
	Conflicts  int
	Failures   []Failure
}

// Failure records a terminal per-document failure. It never aborts the pass.
type Failure struct {
	Path    string
	Kind    OpKind
	Message string
}
