package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// MetadataFileName is the sidecar JSON file living alongside the SQLite
// artifact in an index directory (spec §6.2).
const MetadataFileName = "metadata.json"

// LoadMetadata reads the sidecar metadata file from indexDir. A missing
// file is not an error: it returns a zero-value IndexMetadata, which
// callers treat as "never indexed".
func LoadMetadata(indexDir string) (IndexMetadata, error) {
	data, err := os.ReadFile(filepath.Join(indexDir, MetadataFileName))
	if os.IsNotExist(err) {
		return IndexMetadata{}, nil
	}
	if err != nil {
		return IndexMetadata{}, fmt.Errorf("read metadata: %w", err)
	}
	var m IndexMetadata
	if err := json.Unmarshal(data, &m); err != nil {
		return IndexMetadata{}, fmt.Errorf("parse metadata: %w", err)
	}
	return m, nil
}

// SaveMetadata writes m to indexDir atomically (write-to-temp, rename),
// matching the teacher's pattern for the "current" pointer file
// (internal/reposcope/indexdir.go SetCurrent) so a crash mid-write never
// leaves a half-written sidecar.
func SaveMetadata(indexDir string, m IndexMetadata) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	final := filepath.Join(indexDir, MetadataFileName)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write metadata temp file: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("rename metadata temp file: %w", err)
	}
	return nil
}

// BuildMetadata computes the current counts/languages summary for m's
// CreatedAt/Branch/Commit/ToolVersion fields, used after a full reindex or
// incremental commit to keep metadata.json in sync with the artifact.
func (s *Store) BuildMetadata(ctx context.Context, branch, commit, toolVersion string, createdAt time.Time) (IndexMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := IndexMetadata{
		SchemaVersion: CurrentSchemaVersion,
		CreatedAt:     createdAt,
		Branch:        branch,
		Commit:        commit,
		ToolVersion:   toolVersion,
		Languages:     map[string]int{},
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&m.Counts.Files); err != nil {
		return IndexMetadata{}, fmt.Errorf("count files: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM symbols`).Scan(&m.Counts.Symbols); err != nil {
		return IndexMetadata{}, fmt.Errorf("count symbols: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bm25_content`).Scan(&m.Counts.FTSRows); err != nil {
		return IndexMetadata{}, fmt.Errorf("count fts rows: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(language, 'unknown'), COUNT(*) FROM files GROUP BY language`)
	if err != nil {
		return IndexMetadata{}, fmt.Errorf("group languages: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var lang string
		var n int
		if err := rows.Scan(&lang, &n); err != nil {
			return IndexMetadata{}, fmt.Errorf("scan language group: %w", err)
		}
		m.Languages[lang] = n
	}
	return m, rows.Err()
}
