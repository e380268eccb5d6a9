package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(`{"total_documents":1}`), 0o644); err != nil {
		t.Fatal(err)
	}
}

// waitForReloads polls until the counter reaches want or the deadline passes.
func waitForReloads(t *testing.T, counter *atomic.Int32, want int32, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if counter.Load() >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("reload count = %d, want >= %d within %v", counter.Load(), want, timeout)
}

func TestWatcher_ReloadOnManifestWrite(t *testing.T) {
	dir := t.TempDir()
	var reloads atomic.Int32
	w := NewWatcher(dir, func() { reloads.Add(1) }, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	writeFile(t, filepath.Join(dir, "manifest.json"))
	waitForReloads(t, &reloads, 1, 2*time.Second)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	var reloads atomic.Int32
	w := NewWatcher(dir, func() { reloads.Add(1) }, WithDebounce(30*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	writeFile(t, filepath.Join(dir, "vectors.bin"))
	writeFile(t, filepath.Join(dir, "metadata.json"))
	time.Sleep(300 * time.Millisecond)
	if got := reloads.Load(); got != 0 {
		t.Errorf("reload count = %d after non-manifest writes, want 0", got)
	}
}

func TestWatcher_BurstCollapsesToOneReload(t *testing.T) {
	dir := t.TempDir()
	var reloads atomic.Int32
	w := NewWatcher(dir, func() { reloads.Add(1) }, WithDebounce(150*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	manifest := filepath.Join(dir, "manifest.json")
	for i := 0; i < 5; i++ {
		writeFile(t, manifest)
		time.Sleep(10 * time.Millisecond)
	}
	waitForReloads(t, &reloads, 1, 2*time.Second)
	// Allow any stray timer to fire before checking the burst collapsed.
	time.Sleep(400 * time.Millisecond)
	if got := reloads.Load(); got != 1 {
		t.Errorf("reload count = %d after write burst, want 1", got)
	}
}

func TestWatcher_StartCreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "not-yet-created")
	var reloads atomic.Int32
	w := NewWatcher(dir, func() { reloads.Add(1) }, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start on missing dir: %v", err)
	}
	defer w.Stop()

	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("watch dir was not created: %v", err)
	}
	writeFile(t, filepath.Join(dir, "manifest.json"))
	waitForReloads(t, &reloads, 1, 2*time.Second)
}

func TestWatcher_StartTwiceAndStopTwice(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher(dir, func() {})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(ctx); err != nil {
		t.Errorf("second Start returned error: %v", err)
	}
	w.Stop()
	w.Stop()
}

func TestWatcher_ContextCancelStops(t *testing.T) {
	dir := t.TempDir()
	var reloads atomic.Int32
	w := NewWatcher(dir, func() { reloads.Add(1) }, WithDebounce(30*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	time.Sleep(100 * time.Millisecond)

	writeFile(t, filepath.Join(dir, "manifest.json"))
	time.Sleep(200 * time.Millisecond)
	if got := reloads.Load(); got != 0 {
		t.Errorf("reload count = %d after cancel, want 0", got)
	}
}
