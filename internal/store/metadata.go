package store

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/raido/internal/models"
)

// HeaderMarker delimits the sync metadata header. The header sits at the very
// top of the file: a marker line, a YAML document, and a closing marker line.
// Obsidian-style editors render %%...%% as a comment, keeping the header out
// of the way visually.
const HeaderMarker = "%%raido%%"

// linkTemplate derives the remote URL from a remote id with separators
// stripped, mirroring how the service addresses pages.
const linkTemplate = "https://workspace.example.com/"

// RemoteLink returns the canonical remote URL for a remote id.
func RemoteLink(remoteID string) string {
	return linkTemplate + strings.NewReplacer("-", "", "_", "").Replace(remoteID)
}

// SplitHeader separates the metadata header from the document body. A file
// without a valid header yields nil metadata and the full text as body,
// meaning "never synced". A malformed header is treated the same way rather
// than failing the document.
func SplitHeader(text string) (*models.Metadata, string) {
	rest, ok := strings.CutPrefix(text, HeaderMarker+"\n")
	if !ok {
		return nil, text
	}
	end := strings.Index(rest, "\n"+HeaderMarker)
	if end < 0 {
		return nil, text
	}
	yamlBlock := rest[:end]
	body := rest[end+1+len(HeaderMarker):]
	body = strings.TrimPrefix(body, "\n")

	var meta models.Metadata
	if err := yaml.Unmarshal([]byte(yamlBlock), &meta); err != nil {
		return nil, text
	}
	return &meta, body
}

// JoinHeader serializes metadata back in front of the body. Nil metadata
// returns the bare body (detached document).
func JoinHeader(meta *models.Metadata, body string) string {
	if meta == nil {
		return body
	}
	out, err := yaml.Marshal(meta)
	if err != nil {
		return body
	}
	var b strings.Builder
	b.WriteString(HeaderMarker)
	b.WriteString("\n")
	b.Write(out)
	b.WriteString(HeaderMarker)
	b.WriteString("\n")
	b.WriteString(body)
	return b.String()
}
