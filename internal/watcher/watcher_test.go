package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type countingInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (c *countingInvalidator) Invalidate() {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *countingInvalidator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestWatcherInvalidatesOnWrite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "entities.db")
	if err := os.WriteFile(dbPath, []byte("x"), 0644); err != nil {
		t.Fatalf("write db: %v", err)
	}

	target := &countingInvalidator{}
	w := New(dbPath, target, zap.NewNop())
	w.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(dbPath, []byte("xy"), 0644); err != nil {
		t.Fatalf("touch db: %v", err)
	}
	if !waitFor(t, 3*time.Second, func() bool { return target.count() >= 1 }) {
		t.Fatal("invalidator never called after database write")
	}
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "entities.db")
	if err := os.WriteFile(dbPath, []byte("x"), 0644); err != nil {
		t.Fatalf("write db: %v", err)
	}

	target := &countingInvalidator{}
	w := New(dbPath, target, zap.NewNop())
	w.debounce = 150 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	// A burst of writes inside the debounce window collapses to one call.
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(dbPath, []byte{byte(i)}, 0644); err != nil {
			t.Fatalf("touch db: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !waitFor(t, 3*time.Second, func() bool { return target.count() >= 1 }) {
		t.Fatal("invalidator never called")
	}
	time.Sleep(300 * time.Millisecond)
	if got := target.count(); got != 1 {
		t.Errorf("invalidations = %d, want 1 for a single burst", got)
	}
}

func TestWatcherIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "entities.db")
	if err := os.WriteFile(dbPath, []byte("x"), 0644); err != nil {
		t.Fatalf("write db: %v", err)
	}

	target := &countingInvalidator{}
	w := New(dbPath, target, zap.NewNop())
	w.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644); err != nil {
		t.Fatalf("write unrelated: %v", err)
	}
	time.Sleep(300 * time.Millisecond)
	if got := target.count(); got != 0 {
		t.Errorf("invalidations = %d for an unrelated file, want 0", got)
	}
}

func TestIsDatabaseFile(t *testing.T) {
	w := New("/data/db/entities.db", nil, zap.NewNop())
	tests := []struct {
		path string
		want bool
	}{
		{"/data/db/entities.db", true},
		{"/data/db/entities.db-wal", true},
		{"/data/db/entities.db-journal", true},
		{"/data/db/entities.db-shm", true},
		{"/data/db/other.db", false},
		{"/data/db/notes.txt", false},
	}
	for _, tt := range tests {
		if got := w.isDatabaseFile(tt.path); got != tt.want {
			t.Errorf("isDatabaseFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestStopIdempotent(t *testing.T) {
	dir := t.TempDir()
	w := New(filepath.Join(dir, "entities.db"), &countingInvalidator{}, zap.NewNop())
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w.Stop()
	w.Stop()
}
