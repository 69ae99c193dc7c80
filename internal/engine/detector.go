package engine

import "github.com/starford/raido/internal/models"

// Action is the change detector's verdict for one document.
type Action string

const (
	ActionSkip     Action = "skip"
	ActionUpload   Action = "upload"
	ActionDownload Action = "download"
	ActionConflict Action = "conflict"
)

// Detect classifies a document by comparing the freshly computed local and
// remote digests against the hashes stored at last sync.
//
//	local changed | remote changed | action
//	no            | no             | skip
//	yes           | no             | upload
//	no            | yes            | download
//	yes           | yes            | conflict
//
// A document with no remote binding is always an upload (new document).
// A rename (stored filePath differing from the current path) counts as a
// local change so the remote title gets refreshed.
func Detect(doc *models.SyncedDocument, localHash, remoteHash string) Action {
	if !doc.Metadata.Bound() {
		return ActionUpload
	}
	m := doc.Metadata
	localChanged := m.ContentHash != localHash || (m.FilePath != "" && m.FilePath != doc.Path)
	remoteChanged := m.RemoteHash != remoteHash

	switch {
	case !localChanged && !remoteChanged:
		return ActionSkip
	case localChanged && !remoteChanged:
		return ActionUpload
	case !localChanged && remoteChanged:
		return ActionDownload
	default:
		return ActionConflict
	}
}
