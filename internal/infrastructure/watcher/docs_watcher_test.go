package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatcher(t *testing.T, dir string) (*DocsWatcher, *atomic.Int32) {
	t.Helper()

	var triggers atomic.Int32
	w, err := NewDocsWatcher(dir, func() {
		triggers.Add(1)
	})
	require.NoError(t, err)

	// 缩短防抖窗口，避免测试等待过久
	w.debounce = 50 * time.Millisecond

	require.NoError(t, w.Start())
	t.Cleanup(w.Stop)

	return w, &triggers
}

func waitForTriggers(t *testing.T, triggers *atomic.Int32, want int32) {
	t.Helper()

	deadline := time.After(3 * time.Second)
	for {
		if triggers.Load() >= want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("expected %d triggers, got %d", want, triggers.Load())
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestDocsWatcher_TriggersOnMarkdownWrite(t *testing.T) {
	dir := t.TempDir()
	_, triggers := newTestWatcher(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ch1.md"), []byte("# Chapter"), 0o644))

	waitForTriggers(t, triggers, 1)
}

func TestDocsWatcher_IgnoresNonMarkdownFiles(t *testing.T) {
	dir := t.TempDir()
	_, triggers := newTestWatcher(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a doc"), 0o644))

	// 给防抖窗口留出足够时间
	time.Sleep(300 * time.Millisecond)
	assert.Zero(t, triggers.Load())
}

func TestDocsWatcher_DebouncesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	_, triggers := newTestWatcher(t, dir)

	for i := 0; i < 5; i++ {
		name := filepath.Join(dir, "ch1.md")
		require.NoError(t, os.WriteFile(name, []byte("revision"), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	waitForTriggers(t, triggers, 1)
	time.Sleep(300 * time.Millisecond)

	// 连续写入合并为一次触发
	assert.Equal(t, int32(1), triggers.Load())
}
