package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func startWatcher(t *testing.T, root string, triggers *atomic.Int64) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, root, 50*time.Millisecond, testLogger(), func() {
			triggers.Add(1)
		})
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	// Give the watcher a moment to register the root.
	time.Sleep(100 * time.Millisecond)
	return cancel
}

func TestWatchTriggersOnMarkdownWrite(t *testing.T) {
	root := t.TempDir()
	var triggers atomic.Int64
	startWatcher(t, root, &triggers)

	if err := os.WriteFile(filepath.Join(root, "a.md"), []byte("hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 2*time.Second, 20*time.Millisecond, func() bool {
		return triggers.Load() >= 1
	}, "no trigger after markdown write")
}

func TestWatchDebouncesBursts(t *testing.T) {
	root := t.TempDir()
	var triggers atomic.Int64
	startWatcher(t, root, &triggers)

	// A burst of writes within the debounce window collapses to one trigger.
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(filepath.Join(root, "a.md"), []byte("rev\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	eventually(t, 2*time.Second, 20*time.Millisecond, func() bool {
		return triggers.Load() >= 1
	}, "no trigger after burst")
	settled := triggers.Load()
	time.Sleep(200 * time.Millisecond)
	if got := triggers.Load(); got != settled {
		t.Errorf("triggers = %d after settling, want %d", got, settled)
	}
}

func TestWatchIgnoresIrrelevantFiles(t *testing.T) {
	root := t.TempDir()
	var triggers atomic.Int64
	startWatcher(t, root, &triggers)

	if err := os.WriteFile(filepath.Join(root, ".raido-tmp-123"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)
	if got := triggers.Load(); got != 0 {
		t.Errorf("triggers = %d for irrelevant files, want 0", got)
	}
}

func TestWatchCoversNewDirectories(t *testing.T) {
	root := t.TempDir()
	var triggers atomic.Int64
	startWatcher(t, root, &triggers)

	sub := filepath.Join(root, "topics")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	// Let the watcher pick up the new directory before writing into it.
	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(sub, "b.md"), []byte("nested\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 2*time.Second, 20*time.Millisecond, func() bool {
		return triggers.Load() >= 1
	}, "no trigger for file in new directory")
}

func TestRelevant(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"notes/a.md", true},
		{"a.md", true},
		{"notes/.raido-tmp-42", false},
		{"image.png", false},
		{"readme.txt", false},
	}
	for _, tc := range cases {
		if got := relevant(tc.name); got != tc.want {
			t.Errorf("relevant(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}
