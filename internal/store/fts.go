package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/codeindex-mcp/codeindex/internal/engineerr"
)

// UpsertFTS writes (or rewrites) the bm25_content + bm25_index_status rows
// for one file, inside the same transaction as the caller's replace_symbols
// call when both are needed for a single file update (spec §4.2).
func (s *Store) UpsertFTS(ctx context.Context, fileID int64, relPath, fileName, content, language, contentHash string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return upsertFTSTx(ctx, tx, fileID, relPath, fileName, content, language, contentHash)
	})
}

func upsertFTSTx(ctx context.Context, tx *sql.Tx, fileID int64, relPath, fileName, content, language, contentHash string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM bm25_content WHERE filepath = ?`, relPath); err != nil {
		return fmt.Errorf("delete old fts content: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO bm25_content(filepath, filename, content, language) VALUES (?, ?, ?, ?)`,
		relPath, fileName, content, language); err != nil {
		return fmt.Errorf("insert fts content: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO bm25_index_status(file_id, filepath, content_hash, indexed_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(file_id) DO UPDATE SET filepath = excluded.filepath,
		    content_hash = excluded.content_hash, indexed_at = CURRENT_TIMESTAMP`,
		fileID, relPath, contentHash); err != nil {
		return fmt.Errorf("upsert fts status: %w", err)
	}
	return nil
}

// QueryFTS runs a bm25 MATCH query over bm25_content and returns raw hits in
// the engine's native rank order (internal/rank normalizes and snippets
// these). A malformed MATCH expression surfaces as engineerr KindUsage /
// CodeBadQuery rather than a generic failure (spec §4.2 Failure modes).
func (s *Store) QueryFTS(ctx context.Context, matchExpr string, limit int) ([]FTSHit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT filepath, filename, content, language, bm25(bm25_content)
		FROM bm25_content
		WHERE bm25_content MATCH ?
		ORDER BY bm25(bm25_content)
		LIMIT ?`, matchExpr, limit)
	if err != nil {
		if isBadQuery(err) {
			return nil, engineerr.Usage(engineerr.CodeBadQuery, "malformed FTS match expression", err).
				WithDetail("expr", matchExpr)
		}
		return nil, fmt.Errorf("query fts: %w", err)
	}
	defer rows.Close()

	var hits []FTSHit
	for rows.Next() {
		var h FTSHit
		if err := rows.Scan(&h.FilePath, &h.FileName, &h.Content, &h.Language, &h.Rank); err != nil {
			return nil, fmt.Errorf("scan fts hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// GetFileContent returns the bm25_content row's content for relPath, for
// callers (internal/semantic chunking) that need raw text after the FTS
// write rather than re-reading the file from disk. ok is false when the
// file has no FTS row yet.
func (s *Store) GetFileContent(ctx context.Context, relPath string) (content string, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.db.QueryRowContext(ctx, `SELECT content FROM bm25_content WHERE filepath = ?`, relPath).Scan(&content)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get file content: %w", err)
	}
	return content, true, nil
}

// IsIndexedAtHash reports whether relPath is already present in
// bm25_index_status with the given content hash, letting callers skip a
// redundant UpsertFTS (spec P7 idempotence).
func (s *Store) IsIndexedAtHash(ctx context.Context, relPath, contentHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing string
	err := s.db.QueryRowContext(ctx,
		`SELECT content_hash FROM bm25_index_status WHERE filepath = ?`, relPath).Scan(&existing)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup fts status: %w", err)
	}
	return existing == contentHash, nil
}
