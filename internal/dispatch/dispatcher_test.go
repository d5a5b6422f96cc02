package dispatch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeindex-mcp/codeindex/internal/config"
	"github.com/codeindex-mcp/codeindex/internal/lang"
	"github.com/codeindex-mcp/codeindex/internal/plugin"
	"github.com/codeindex-mcp/codeindex/internal/store"
)

func newTestDispatcher(t *testing.T, root string) (*Dispatcher, *store.Store, int64) {
	t.Helper()
	st, err := store.OpenOrInit("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	repoID, err := st.EnsureRepository(context.Background(), "fp", root, filepath.Base(root))
	require.NoError(t, err)

	langs := lang.NewDefaultRegistry()
	plugins := plugin.NewRegistry(langs)
	cfg := config.Default()

	return New(st, plugins, langs, repoID, root, cfg), st, repoID
}

func TestDispatcher_IndexDirectory_IndexesPlaintextFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("// TODO: refactor this"), 0o644))

	d, _, _ := newTestDispatcher(t, root)
	stats, err := d.IndexDirectory(context.Background(), time.Time{}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Indexed)
	assert.Equal(t, 0, stats.Failed)

	hits, err := d.Search(context.Background(), "TODO refactor", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "notes.txt", hits[0].FilePath)
	assert.Contains(t, hits[0].Snippet, "«TODO»")
}

func TestDispatcher_ReindexFile_IndexesSingleFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello world"), 0o644))

	d, _, _ := newTestDispatcher(t, root)
	stats, err := d.ReindexFile(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Indexed)

	hits, err := d.Search(context.Background(), "hello", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestDispatcher_RemoveFile_DropsIndexedFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "gone.txt")
	require.NoError(t, os.WriteFile(path, []byte("ephemeral content"), 0o644))

	d, st, repoID := newTestDispatcher(t, root)
	_, err := d.ReindexFile(context.Background(), "gone.txt")
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	require.NoError(t, d.RemoveFile(context.Background(), "gone.txt"))

	f, err := st.GetFileByPath(context.Background(), repoID, "gone.txt")
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestDispatcher_IndexDirectory_SkipsBinaryFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "bin.dat"), []byte{0x00, 0x01, 0x02, 'a', 'b'}, 0o644))

	d, _, _ := newTestDispatcher(t, root)
	stats, err := d.IndexDirectory(context.Background(), time.Time{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Indexed)
	assert.Equal(t, 1, stats.SkippedUnreadable)
}

func TestDispatcher_IndexDirectory_ReportsProgress(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("hello "+name), 0o644))
	}

	d, _, _ := newTestDispatcher(t, root)

	var mu sync.Mutex
	var calls int
	var lastCurrent, lastTotal int
	stats, err := d.IndexDirectory(context.Background(), time.Time{}, func(current, total int, currentFile string) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		lastCurrent = current
		lastTotal = total
		assert.NotEmpty(t, currentFile)
	})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Indexed)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, lastCurrent)
	assert.Equal(t, 3, lastTotal)
}

func TestDispatcher_Lookup_ReturnsNilOnMiss(t *testing.T) {
	root := t.TempDir()
	d, _, _ := newTestDispatcher(t, root)

	match, err := d.Lookup(context.Background(), "NoSuchSymbol", false, 0.7)
	require.NoError(t, err)
	assert.Nil(t, match)
}
