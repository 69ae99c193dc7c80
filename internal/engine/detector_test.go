package engine

import (
	"testing"

	"github.com/starford/raido/internal/models"
)

func TestDetect(t *testing.T) {
	const (
		oldLocal  = "aaaa"
		oldRemote = "bbbb"
		newLocal  = "cccc"
		newRemote = "dddd"
	)

	bound := func(path string) *models.SyncedDocument {
		return &models.SyncedDocument{
			Path: path,
			Metadata: &models.Metadata{
				RemoteID:    "doc-1",
				ContentHash: oldLocal,
				RemoteHash:  oldRemote,
				FilePath:    "notes/a.md",
			},
		}
	}

	cases := []struct {
		name       string
		doc        *models.SyncedDocument
		localHash  string
		remoteHash string
		want       Action
	}{
		{"unchanged", bound("notes/a.md"), oldLocal, oldRemote, ActionSkip},
		{"local edit", bound("notes/a.md"), newLocal, oldRemote, ActionUpload},
		{"remote edit", bound("notes/a.md"), oldLocal, newRemote, ActionDownload},
		{"both edited", bound("notes/a.md"), newLocal, newRemote, ActionConflict},
		{"renamed only", bound("notes/b.md"), oldLocal, oldRemote, ActionUpload},
		{"renamed and remote edit", bound("notes/b.md"), oldLocal, newRemote, ActionConflict},
		{
			"unbound",
			&models.SyncedDocument{Path: "new.md"},
			newLocal, "",
			ActionUpload,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Detect(tc.doc, tc.localHash, tc.remoteHash); got != tc.want {
				t.Errorf("Detect() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDetectEmptyFilePathIsNotARename(t *testing.T) {
	// Headers written before rename tracking existed carry no filePath;
	// they must not look permanently renamed.
	doc := &models.SyncedDocument{
		Path: "notes/a.md",
		Metadata: &models.Metadata{
			RemoteID:    "doc-1",
			ContentHash: "aaaa",
			RemoteHash:  "bbbb",
		},
	}
	if got := Detect(doc, "aaaa", "bbbb"); got != ActionSkip {
		t.Errorf("Detect() = %q, want %q", got, ActionSkip)
	}
}
