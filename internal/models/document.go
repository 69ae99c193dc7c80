// Package models defines the domain types for Raido.
package models

import (
	"strings"
	"time"

	"github.com/starford/raido/internal/apperr"
)

// Metadata is the sync state embedded in a document's header block.
// Absence of the header means the document has never been synced.
type Metadata struct {
	RemoteID    string    `yaml:"remoteID,omitempty"`
	Link        string    `yaml:"link,omitempty"`
	LastSync    time.Time `yaml:"lastSync,omitempty"`
	ContentHash string    `yaml:"contentHash,omitempty"` // digest of the local body at last sync
	RemoteHash  string    `yaml:"remoteHash,omitempty"`  // digest of the rendered remote tree at last sync
	FilePath    string    `yaml:"filePath,omitempty"`    // detects rename
}

// Bound reports whether the document is linked to a remote counterpart.
func (m *Metadata) Bound() bool {
	return m != nil && m.RemoteID != ""
}

// SyncedDocument is the local unit of work: a vault file plus its parsed
// sync metadata. Body excludes the metadata header.
type SyncedDocument struct {
	Path     string
	Body     string
	Metadata *Metadata
}

// DisplayName derives the remote-facing name from the local path:
// the file name without its extension.
func (d *SyncedDocument) DisplayName() string {
	name := d.Path
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return name
}

// RemoteTitle encodes the cross-store link: "<local-path>:<display-name>".
func (d *SyncedDocument) RemoteTitle() string {
	return d.Path + ":" + d.DisplayName()
}

// RemoteDocument is the remote unit: a page in the collection whose title
// carries the originating local path.
type RemoteDocument struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Tags   []string `json:"tags,omitempty"`
	Blocks []Block  `json:"-"`
}

// ParseRemoteTitle splits a remote title into local path and display name
// at the last colon. Titles without a colon are unparsable.
func ParseRemoteTitle(title string) (path, name string, err error) {
	i := strings.LastIndexByte(title, ':')
	if i < 0 {
		return "", "", apperr.ErrUnparsableTitle
	}
	return title[:i], title[i+1:], nil
}
