package rpcserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeindex-mcp/codeindex/internal/config"
	"github.com/codeindex-mcp/codeindex/internal/engine"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.py"), []byte("class Widget:\n    def paint(self): pass\n"), 0o644))

	cfg := config.Default()
	cfg.WorkspaceRoot = root
	cfg.Watcher.Mode = config.WatcherOff

	e, err := engine.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	_, err = e.Reindex(context.Background(), "", time.Time{})
	require.NoError(t, err)

	return NewServer(e, nil)
}

func TestSymbolLookupHandler_ExactMatch(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.symbolLookupHandler(context.Background(), nil, SymbolLookupInput{Symbol: "Widget"})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "Widget", out.Symbol)
	assert.Equal(t, "class", out.Kind)
	assert.Equal(t, "a.py", out.DefinedIn)
	assert.Equal(t, 1, out.Line)
}

func TestSymbolLookupHandler_Miss_ReturnsNilOutputNoError(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.symbolLookupHandler(context.Background(), nil, SymbolLookupInput{Symbol: "DoesNotExist"})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestSymbolLookupHandler_EmptySymbol_InvalidParams(t *testing.T) {
	s := newTestServer(t)

	_, _, err := s.symbolLookupHandler(context.Background(), nil, SymbolLookupInput{Symbol: "  "})
	require.Error(t, err)
	rerr, ok := err.(*rpcError)
	require.True(t, ok)
	assert.Equal(t, codeInvalidParams, rerr.Code)
}

func TestSearchCodeHandler_ReturnsHits(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.searchCodeHandler(context.Background(), nil, SearchCodeInput{Query: "paint"})
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "a.py", out.Results[0].File)
}

func TestSearchCodeHandler_ClampsLimit(t *testing.T) {
	s := newTestServer(t)

	_, _, err := s.searchCodeHandler(context.Background(), nil, SearchCodeInput{Query: "paint", Limit: 1000})
	require.NoError(t, err)
}

func TestGetStatusHandler_ReportsFileCount(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.getStatusHandler(context.Background(), nil, GetStatusInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, out.FileCount)
	assert.False(t, out.SemanticEnabled)
	require.NotNil(t, out.LastIndexed)
}

func TestReindexHandler_SingleFile(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.reindexHandler(context.Background(), nil, ReindexInput{Path: "a.py"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Indexed)
	assert.Equal(t, 0, out.Failed)
}
