package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncer_CoalescesTriggers(t *testing.T) {
	var runs atomic.Int32
	d := NewDebouncer(0, func() { runs.Add(1) })
	assert.Equal(t, MinDelay, d.Delay())

	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(20 * time.Millisecond)
	}
	assert.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(MinDelay + 100*time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	var runs atomic.Int32
	d := NewDebouncer(MinDelay, func() { runs.Add(1) })
	d.Trigger()
	d.Stop()
	d.Trigger()

	time.Sleep(MinDelay + 150*time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())
}

func TestWatcher_Relevant(t *testing.T) {
	root := t.TempDir()
	w := New(root, func() {}, WithIgnore("INSIGHTS Digest.md"))

	tests := []struct {
		name string
		path string
		op   fsnotify.Op
		want bool
	}{
		{"create markdown", "note.md", fsnotify.Create, true},
		{"write nested markdown", "a/b/note.md", fsnotify.Write, true},
		{"remove markdown", "note.md", fsnotify.Remove, true},
		{"rename markdown", "note.md", fsnotify.Rename, true},
		{"chmod ignored", "note.md", fsnotify.Chmod, false},
		{"write and chmod", "note.md", fsnotify.Write | fsnotify.Chmod, true},
		{"non markdown", "image.png", fsnotify.Write, false},
		{"hidden file", ".draft.md", fsnotify.Write, false},
		{"hidden directory", ".obsidian/workspace.md", fsnotify.Write, false},
		{"digest ignored", "INSIGHTS Digest.md", fsnotify.Write, false},
		{"removed directory", "archive", fsnotify.Remove, true},
		{"created directory", "archive", fsnotify.Create, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := fsnotify.Event{Name: filepath.Join(root, filepath.FromSlash(tt.path)), Op: tt.op}
			assert.Equal(t, tt.want, w.relevant(ev))
		})
	}

	assert.False(t, w.relevant(fsnotify.Event{Name: filepath.Join(filepath.Dir(root), "x.md"), Op: fsnotify.Write}),
		"paths outside the root are ignored")
}

func TestWatcher_Run(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "notes"), 0o755))

	var changes atomic.Int32
	w := New(root, func() { changes.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes", "a.md"), []byte("# A"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.md"), []byte("# B"), 0o644))
	assert.Eventually(t, func() bool { return changes.Load() == 1 }, 3*time.Second, 20*time.Millisecond,
		"both writes collapse into one rebuild")

	require.NoError(t, os.MkdirAll(filepath.Join(root, "later"), 0o755))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "later", "c.md"), []byte("# C"), 0o644))
	assert.Eventually(t, func() bool { return changes.Load() == 2 }, 3*time.Second, 20*time.Millisecond,
		"new directories are watched")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
