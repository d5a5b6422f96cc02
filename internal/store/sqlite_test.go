package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenOrInit("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenOrInit_SeedsSchemaVersion(t *testing.T) {
	s := openTestStore(t)

	var version int
	require.NoError(t, s.db.QueryRow("SELECT version FROM schema_version").Scan(&version))
	assert.Equal(t, CurrentSchemaVersion, version)
}

func TestOpenOrInit_RejectsNewerSchema(t *testing.T) {
	s := openTestStore(t)
	_, err := s.db.Exec("UPDATE schema_version SET version = ?", CurrentSchemaVersion+1)
	require.NoError(t, err)

	// Reopening against the same handle's migrate path should now fail; we
	// simulate this by invoking migrate directly since the in-memory DSN
	// cannot be reopened from a second connection.
	err = s.migrate()
	assert.Error(t, err)
}

func TestEnsureRepository_IsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id1, err := s.EnsureRepository(ctx, "abc123", "/repo", "myrepo")
	require.NoError(t, err)
	id2, err := s.EnsureRepository(ctx, "abc123", "/repo", "myrepo")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}

func TestUpsertFile_IdempotentOnUnchangedHash(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repoID, err := s.EnsureRepository(ctx, "fp", "/repo", "repo")
	require.NoError(t, err)

	id1, unchanged1, err := s.UpsertFile(ctx, repoID, "a.go", "/repo/a.go", "go", 100, "hash1", false, false)
	require.NoError(t, err)
	assert.False(t, unchanged1)

	id2, unchanged2, err := s.UpsertFile(ctx, repoID, "a.go", "/repo/a.go", "go", 100, "hash1", false, false)
	require.NoError(t, err)
	assert.True(t, unchanged2)
	assert.Equal(t, id1, id2)

	id3, unchanged3, err := s.UpsertFile(ctx, repoID, "a.go", "/repo/a.go", "go", 120, "hash2", false, false)
	require.NoError(t, err)
	assert.False(t, unchanged3)
	assert.Equal(t, id1, id3)
}

func TestDeleteFile_CascadesSymbolsAndFTS(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repoID, err := s.EnsureRepository(ctx, "fp", "/repo", "repo")
	require.NoError(t, err)
	fileID, _, err := s.UpsertFile(ctx, repoID, "a.go", "/repo/a.go", "go", 10, "h1", false, false)
	require.NoError(t, err)

	require.NoError(t, s.CommitFile(ctx, FileCommit{
		FileID: fileID, RelPath: "a.go", FileName: "a.go", Content: "func Foo() {}",
		Language: "go", ContentHash: "h1",
		Symbols: []Symbol{{Name: "Foo", Kind: KindFunction, StartLine: 1, EndLine: 1}},
	}))

	matches, err := s.QuerySymbol(ctx, "Foo", false, 0, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	require.NoError(t, s.DeleteFile(ctx, fileID))

	matches, err = s.QuerySymbol(ctx, "Foo", false, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, matches)

	hits, err := s.QueryFTS(ctx, "Foo", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestQueryFTS_BadMatchExprSurfacesUsageError(t *testing.T) {
	s := openTestStore(t)
	_, err := s.QueryFTS(context.Background(), `"unterminated`, 10)
	require.Error(t, err)
}
