package playlist

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("test"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// startWatcher runs w until the test ends.
func startWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("run: %v", err)
		}
	})
	// fsnotify needs the watch in place before the test touches dir.
	time.Sleep(100 * time.Millisecond)
}

// TestInitialScan verifies supported video and audio files are listed in
// name order and everything else is skipped.
func TestInitialScan(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir,
		"charlie.mp4",
		"alpha.mkv",
		"bravo.avi",
		"notes.txt",
		".hidden.mp4",
		"delta.hevc",
		"golf.mp3",
	)
	if err := os.Mkdir(filepath.Join(dir, "subdir.mp4"), 0o755); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(afero.NewOsFs(), dir, nil)
	if err != nil {
		t.Fatal(err)
	}

	expected := []string{
		filepath.Join(dir, "alpha.mkv"),
		filepath.Join(dir, "bravo.avi"),
		filepath.Join(dir, "charlie.mp4"),
		filepath.Join(dir, "delta.hevc"),
		filepath.Join(dir, "golf.mp3"),
	}
	got := w.Files()
	if len(got) != len(expected) {
		t.Fatalf("expected %d files, got %d: %v", len(expected), len(got), got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("index %d: expected %s, got %s", i, expected[i], got[i])
		}
	}
}

// TestWatcherCoalescesBurst adds several files at once and expects a
// single callback carrying all of them.
func TestWatcherCoalescesBurst(t *testing.T) {
	dir := t.TempDir()
	changed := make(chan []string, 4)

	w, err := NewWatcher(afero.NewOsFs(), dir, func(files []string) { changed <- files })
	if err != nil {
		t.Fatal(err)
	}
	w.SetSettle(200 * time.Millisecond)
	startWatcher(t, w)

	writeFiles(t, dir, "a.mp4", "b.mp4", "c.mp4")

	select {
	case files := <-changed:
		if len(files) != 3 {
			t.Fatalf("expected 3 files, got %v", files)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for onChange")
	}

	select {
	case files := <-changed:
		t.Fatalf("unexpected second callback: %v", files)
	case <-time.After(500 * time.Millisecond):
	}
}

// TestWatcherDetectsRemoval verifies the callback fires when a file is
// removed.
func TestWatcherDetectsRemoval(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "existing.mp4")
	changed := make(chan []string, 2)

	w, err := NewWatcher(afero.NewOsFs(), dir, func(files []string) { changed <- files })
	if err != nil {
		t.Fatal(err)
	}
	if len(w.Files()) != 1 {
		t.Fatalf("expected 1 file initially, got %d", len(w.Files()))
	}
	w.SetSettle(50 * time.Millisecond)
	startWatcher(t, w)

	if err := os.Remove(filepath.Join(dir, "existing.mp4")); err != nil {
		t.Fatal(err)
	}

	select {
	case files := <-changed:
		if len(files) != 0 {
			t.Fatalf("expected 0 files after removal, got %d", len(files))
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for removal callback")
	}
}

// TestWatcherIgnoresIrrelevantFiles expects no callback when only
// unsupported files appear.
func TestWatcherIgnoresIrrelevantFiles(t *testing.T) {
	dir := t.TempDir()
	changed := make(chan []string, 1)

	w, err := NewWatcher(afero.NewOsFs(), dir, func(files []string) { changed <- files })
	if err != nil {
		t.Fatal(err)
	}
	w.SetSettle(50 * time.Millisecond)
	startWatcher(t, w)

	writeFiles(t, dir, "notes.txt")

	select {
	case files := <-changed:
		t.Fatalf("unexpected callback: %v", files)
	case <-time.After(400 * time.Millisecond):
	}
}

// TestWatcherMissingDir fails Run when the directory cannot be watched.
func TestWatcherMissingDir(t *testing.T) {
	w, err := NewWatcher(afero.NewOsFs(), filepath.Join(t.TempDir(), "gone"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Run(context.Background()); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
	if got := w.Files(); len(got) != 0 {
		t.Fatalf("expected no files, got %v", got)
	}
}
