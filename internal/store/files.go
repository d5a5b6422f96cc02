package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// UpsertFile inserts or updates a files row. It is idempotent on content
// hash equality: when an existing row has the same content_hash, its id is
// returned unchanged and indexed_at is left untouched (spec P7 / I-3).
func (s *Store) UpsertFile(ctx context.Context, repoID int64, relPath, absPath, language string, size int64, contentHash string, truncated, nonUTF8 bool) (id int64, unchanged bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existingID int64
	var existingHash string
	scanErr := s.db.QueryRowContext(ctx,
		`SELECT id, content_hash FROM files WHERE repo_id = ? AND relative_path = ?`,
		repoID, relPath).Scan(&existingID, &existingHash)

	switch {
	case scanErr == nil && existingHash == contentHash:
		return existingID, true, nil

	case scanErr == nil:
		_, err = s.db.ExecContext(ctx, `
			UPDATE files
			SET absolute_path = ?, language = ?, size = ?, content_hash = ?,
			    indexed_at = ?, truncated = ?, non_utf8 = ?
			WHERE id = ?`,
			absPath, nullIfEmpty(language), size, contentHash, time.Now().UTC(), boolToInt(truncated), boolToInt(nonUTF8), existingID)
		if err != nil {
			return 0, false, fmt.Errorf("update file: %w", err)
		}
		return existingID, false, nil

	case scanErr == sql.ErrNoRows:
		res, insErr := s.db.ExecContext(ctx, `
			INSERT INTO files(repo_id, relative_path, absolute_path, language, size, content_hash, indexed_at, truncated, non_utf8)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			repoID, relPath, absPath, nullIfEmpty(language), size, contentHash, time.Now().UTC(), boolToInt(truncated), boolToInt(nonUTF8))
		if insErr != nil {
			return 0, false, fmt.Errorf("insert file: %w", insErr)
		}
		newID, idErr := res.LastInsertId()
		if idErr != nil {
			return 0, false, fmt.Errorf("read inserted file id: %w", idErr)
		}
		return newID, false, nil

	default:
		return 0, false, fmt.Errorf("lookup file: %w", scanErr)
	}
}

// GetFileByPath returns the files row for (repoID, relPath), or nil if absent.
func (s *Store) GetFileByPath(ctx context.Context, repoID int64, relPath string) (*File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, repo_id, relative_path, absolute_path, COALESCE(language, ''), size, content_hash, indexed_at, truncated, non_utf8
		FROM files WHERE repo_id = ? AND relative_path = ?`, repoID, relPath)
	return scanFile(row)
}

// LastIndexedAt returns the most recent indexed_at timestamp across all
// files, or ok=false if the store has no files yet (spec §6.1 get_status
// "last_indexed").
func (s *Store) LastIndexedAt(ctx context.Context) (t time.Time, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&count); err != nil {
		return time.Time{}, false, fmt.Errorf("count files: %w", err)
	}
	if count == 0 {
		return time.Time{}, false, nil
	}
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(indexed_at) FROM files`).Scan(&t); err != nil {
		return time.Time{}, false, fmt.Errorf("max indexed_at: %w", err)
	}
	return t, true, nil
}

// ListFiles returns every files row for repoID, used by the semantic
// side-index to backfill vectors after a bulk directory reindex (spec §4.9:
// the primary FTS path and the semantic side-index are independently
// maintained, so a full reindex must walk the committed file set a second
// time to keep the vector store in sync).
func (s *Store) ListFiles(ctx context.Context, repoID int64) ([]File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, repo_id, relative_path, absolute_path, COALESCE(language, ''), size, content_hash, indexed_at, truncated, non_utf8
		FROM files WHERE repo_id = ?`, repoID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		var f File
		var indexedAt time.Time
		var truncated, nonUTF8 int
		if err := rows.Scan(&f.ID, &f.RepoID, &f.RelativePath, &f.AbsolutePath, &f.Language, &f.Size, &f.ContentHash, &indexedAt, &truncated, &nonUTF8); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		f.IndexedAt = indexedAt
		f.Truncated = truncated != 0
		f.NonUTF8 = nonUTF8 != 0
		files = append(files, f)
	}
	return files, rows.Err()
}

// DeleteFile removes a files row and cascades symbols, references, FTS rows,
// and trigrams (P2), all within the same transaction.
func (s *Store) DeleteFile(ctx context.Context, fileID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return deleteFileTx(ctx, tx, fileID)
	})
}

func deleteFileTx(ctx context.Context, tx *sql.Tx, fileID int64) error {
	var filepathVal string
	_ = tx.QueryRowContext(ctx, `SELECT relative_path FROM files WHERE id = ?`, fileID).Scan(&filepathVal)

	// ON DELETE CASCADE handles symbols, symbol_references, and
	// symbol_trigrams (cascaded further from symbols). FTS5 content tables
	// are not native foreign-key participants, so their rows and the
	// bm25_index_status row are deleted explicitly in the same transaction.
	if _, err := tx.ExecContext(ctx, `DELETE FROM bm25_content WHERE filepath = ?`, filepathVal); err != nil {
		return fmt.Errorf("delete fts content row: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM bm25_index_status WHERE file_id = ?`, fileID); err != nil {
		return fmt.Errorf("delete fts status row: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM fts_symbols WHERE rowid IN (SELECT id FROM symbols WHERE file_id = ?)`, fileID); err != nil {
		return fmt.Errorf("delete fts symbol rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, fileID); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

func scanFile(row *sql.Row) (*File, error) {
	var f File
	var indexedAt time.Time
	var truncated, nonUTF8 int
	err := row.Scan(&f.ID, &f.RepoID, &f.RelativePath, &f.AbsolutePath, &f.Language, &f.Size, &f.ContentHash, &indexedAt, &truncated, &nonUTF8)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	f.IndexedAt = indexedAt
	f.Truncated = truncated != 0
	f.NonUTF8 = nonUTF8 != 0
	return &f, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
