// Package store implements the local vault: file operations plus the sync
// metadata header embedded at the top of each document.
package store

import "github.com/starford/raido/internal/models"

// FileInfo is a lightweight listing entry.
type FileInfo struct {
	Path string
}

// Provider is the local-store contract consumed by the sync engine.
type Provider interface {
	// ListDocuments returns every .md file under the vault root.
	ListDocuments() ([]FileInfo, error)
	// Read returns the raw text of the file at path (relative to vault root).
	Read(path string) (string, error)
	// Write atomically writes text to path, creating parent directories.
	Write(path string, text string) error
	// Exists reports whether a directory exists under the vault root.
	Exists(dirPath string) (bool, error)
	// Mkdir creates a directory (and parents) under the vault root.
	Mkdir(dirPath string) error
}

// Load reads and splits a document into body and metadata.
func Load(p Provider, path string) (*models.SyncedDocument, error) {
	text, err := p.Read(path)
	if err != nil {
		return nil, err
	}
	meta, body := SplitHeader(text)
	return &models.SyncedDocument{Path: path, Body: body, Metadata: meta}, nil
}

// Save writes a document back with its metadata header re-serialized.
// A nil metadata detaches the document: the header is removed entirely.
func Save(p Provider, doc *models.SyncedDocument) error {
	return p.Write(doc.Path, JoinHeader(doc.Metadata, doc.Body))
}
