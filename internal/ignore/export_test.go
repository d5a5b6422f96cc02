package ignore

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestBuildArchive_ExcludesSensitiveFilesEvenWithoutGitignore(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "main.go"), "package main")
	writeTestFile(t, filepath.Join(dir, ".env"), "SECRET=1")
	writeTestFile(t, filepath.Join(dir, "id_rsa"), "private key")

	filter, err := NewFilter(dir)
	require.NoError(t, err)

	var buf bytes.Buffer
	manifest, err := BuildArchive(context.Background(), dir, filter, &buf)
	require.NoError(t, err)

	var paths []string
	for _, e := range manifest.Entries {
		paths = append(paths, e.Path)
	}
	assert.Contains(t, paths, "main.go")
	assert.NotContains(t, paths, ".env")
	assert.NotContains(t, paths, "id_rsa")
}

func TestBuildArchive_RespectsGitignore(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "main.go"), "package main")
	writeTestFile(t, filepath.Join(dir, "build", "out.bin"), "binary")
	writeTestFile(t, filepath.Join(dir, ".gitignore"), "build/\n")

	filter, err := NewFilter(dir)
	require.NoError(t, err)

	var buf bytes.Buffer
	manifest, err := BuildArchive(context.Background(), dir, filter, &buf)
	require.NoError(t, err)

	var paths []string
	for _, e := range manifest.Entries {
		paths = append(paths, e.Path)
	}
	assert.Contains(t, paths, "main.go")
	assert.Contains(t, paths, ".gitignore")
	assert.NotContains(t, paths, "build/out.bin")
}

func TestBuildArchive_IsDeterministicAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "a.go"), "package a")
	writeTestFile(t, filepath.Join(dir, "b.go"), "package b")

	filter, err := NewFilter(dir)
	require.NoError(t, err)

	var buf1, buf2 bytes.Buffer
	_, err = BuildArchive(context.Background(), dir, filter, &buf1)
	require.NoError(t, err)
	_, err = BuildArchive(context.Background(), dir, filter, &buf2)
	require.NoError(t, err)

	assert.Equal(t, buf1.Bytes(), buf2.Bytes())
}

func TestBuildArchive_ProducesReadableTarGz(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "a.go"), "package a")

	filter, err := NewFilter(dir)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = BuildArchive(context.Background(), dir, filter, &buf)
	require.NoError(t, err)

	gz, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	hdr, err := tr.Next()
	require.NoError(t, err)
	assert.Equal(t, "a.go", hdr.Name)
	content, err := io.ReadAll(tr)
	require.NoError(t, err)
	assert.Equal(t, "package a", string(content))
}
