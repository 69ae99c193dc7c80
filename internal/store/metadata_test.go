package store

import (
	"strings"
	"testing"
	"time"

	"github.com/starford/raido/internal/models"
)

func TestSplitHeader_NoHeaderMeansNeverSynced(t *testing.T) {
	body := "# Title\nsome text\n"
	meta, got := SplitHeader(body)
	if meta != nil {
		t.Errorf("meta = %+v, want nil", meta)
	}
	if got != body {
		t.Errorf("body = %q", got)
	}
}

func TestHeader_RoundTrip(t *testing.T) {
	when := time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC)
	meta := &models.Metadata{
		RemoteID:    "page-123",
		Link:        RemoteLink("page-123"),
		LastSync:    when,
		ContentHash: "abc123",
		FilePath:    "notes/a.md",
	}
	body := "# Title\n- one\n- two\n"

	text := JoinHeader(meta, body)
	if !strings.HasPrefix(text, HeaderMarker+"\n") {
		t.Fatalf("missing opening marker: %q", text)
	}

	gotMeta, gotBody := SplitHeader(text)
	if gotMeta == nil {
		t.Fatal("header not recognized")
	}
	if gotMeta.RemoteID != meta.RemoteID || gotMeta.ContentHash != meta.ContentHash || gotMeta.FilePath != meta.FilePath {
		t.Errorf("meta = %+v, want %+v", gotMeta, meta)
	}
	if !gotMeta.LastSync.Equal(when) {
		t.Errorf("lastSync = %v, want %v", gotMeta.LastSync, when)
	}
	if gotBody != body {
		t.Errorf("body = %q, want %q", gotBody, body)
	}
}

func TestSplitHeader_MalformedYAMLFallsBackToBody(t *testing.T) {
	text := HeaderMarker + "\n: bad: yaml: {{{\n" + HeaderMarker + "\nbody\n"
	meta, body := SplitHeader(text)
	if meta != nil {
		t.Errorf("meta = %+v, want nil for malformed header", meta)
	}
	if body != text {
		t.Errorf("malformed header must leave text untouched")
	}
}

func TestSplitHeader_UnclosedMarker(t *testing.T) {
	text := HeaderMarker + "\nremoteID: x\nno closing marker\n"
	meta, body := SplitHeader(text)
	if meta != nil || body != text {
		t.Errorf("unclosed header must be treated as body")
	}
}

func TestJoinHeader_NilMetadataDetaches(t *testing.T) {
	if got := JoinHeader(nil, "just body\n"); got != "just body\n" {
		t.Errorf("got %q", got)
	}
}

func TestRemoteLink_StripsSeparators(t *testing.T) {
	got := RemoteLink("ab-cd_ef")
	if got != "https://workspace.example.com/abcdef" {
		t.Errorf("link = %q", got)
	}
}

func TestHeader_HashUnaffectedByHeaderRewrite(t *testing.T) {
	body := "content\n"
	a := JoinHeader(&models.Metadata{RemoteID: "1", ContentHash: "x"}, body)
	b := JoinHeader(&models.Metadata{RemoteID: "1", ContentHash: "totally different"}, body)
	_, bodyA := SplitHeader(a)
	_, bodyB := SplitHeader(b)
	if bodyA != bodyB {
		t.Errorf("body must be independent of header contents: %q vs %q", bodyA, bodyB)
	}
}
