package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // pure-Go SQLite driver, no cgo

	"github.com/codeindex-mcp/codeindex/internal/engineerr"
)

// Store is a single on-disk artifact: one SQLite database file holding the
// files/symbols/references/FTS tables of spec §4.2. Exactly one writer per
// process is enforced by mu. lock.go's WriterLock is a cross-process lock for
// an index directory, but Store does not take it and no code outside tests
// acquires it, so writers in separate processes are not excluded.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// OpenFailedError is returned by OpenOrInit when the artifact exists but is
// unreadable or corrupted (spec §4.2 Failure modes: OpenFailed{reason}).
type OpenFailedError struct {
	Path   string
	Reason string
}

func (e *OpenFailedError) Error() string {
	return fmt.Sprintf("store: open %s failed: %s", e.Path, e.Reason)
}

// OpenOrInit opens the artifact at path, creating the schema at
// CurrentSchemaVersion when the file does not yet exist, and running forward
// migrations otherwise. It fails fast when the stored schema version exceeds
// CurrentSchemaVersion (a newer engine indexed this artifact).
func OpenOrInit(path string) (*Store, error) {
	if path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, &OpenFailedError{Path: path, Reason: err.Error()}
			}
		}
	}

	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	} else {
		dsn = dsn + "?_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &OpenFailedError{Path: path, Reason: err.Error()}
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite + WAL: single-conn avoids SQLITE_BUSY storms

	s := &Store{db: db, path: path}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, &OpenFailedError{Path: path, Reason: err.Error()}
	}
	return s, nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("apply base schema: %w", err)
	}

	var version int
	row := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1")
	switch err := row.Scan(&version); {
	case err == sql.ErrNoRows:
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES (?)", CurrentSchemaVersion); err != nil {
			return fmt.Errorf("seed schema_version: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("read schema_version: %w", err)
	}

	if version > CurrentSchemaVersion {
		return engineerr.Structural(engineerr.CodeSchemaMismatch,
			fmt.Sprintf("artifact schema version %d is newer than this build supports (%d)", version, CurrentSchemaVersion), nil)
	}

	for v := version + 1; v <= CurrentSchemaVersion; v++ {
		stmt, ok := migrations[v]
		if !ok {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate to version %d: %w", v, err)
		}
	}
	if version != CurrentSchemaVersion {
		if _, err := s.db.Exec("UPDATE schema_version SET version = ?", CurrentSchemaVersion); err != nil {
			return fmt.Errorf("update schema_version: %w", err)
		}
	}
	return nil
}

// Close releases the underlying database handle. Safe to call once.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the artifact's on-disk path ("" for in-memory stores).
func (s *Store) Path() string { return s.path }

// withTx runs fn inside a single transaction guarded by s.mu, satisfying the
// spec §4.2 requirement that a replace_symbols+upsert_fts pair for one file
// is one transaction and that concurrent writers within a process serialize
// through a mutex.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// EnsureRepository inserts repositories row for fingerprint if absent and
// returns its id.
func (s *Store) EnsureRepository(ctx context.Context, fingerprint, rootPath, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM repositories WHERE fingerprint = ?`, fingerprint).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("lookup repository: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO repositories(fingerprint, root_path, name) VALUES (?, ?, ?)`,
		fingerprint, rootPath, name)
	if err != nil {
		return 0, fmt.Errorf("insert repository: %w", err)
	}
	return res.LastInsertId()
}

// isBadQuery reports whether err originates from an FTS5 MATCH syntax error,
// so callers can surface engineerr.KindUsage (BadQuery) instead of a generic
// failure (spec §4.2 Failure modes).
func isBadQuery(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "fts5: syntax error") || strings.Contains(msg, "malformed match")
}
