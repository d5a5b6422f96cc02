package store

import (
	"context"
	"database/sql"
)

// FileCommit bundles everything one file contributes to the index after
// parsing: its symbol/reference set and its FTS content row. CommitFile
// writes both within a single transaction, satisfying the spec §4.2
// requirement that replace_symbols and upsert_fts for one file never land
// partially.
type FileCommit struct {
	FileID      int64
	RelPath     string
	FileName    string
	Content     string
	Language    string
	ContentHash string
	Symbols     []Symbol
	References  []PendingReference
}

// CommitFile replaces a file's symbols/references and FTS content row
// atomically. Used by the dispatcher after a file reaches the
// SymbolsExtracted pipeline stage (spec §4.4 state machine).
func (s *Store) CommitFile(ctx context.Context, c FileCommit) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := replaceSymbolsTx(ctx, tx, c.FileID, c.Symbols, c.References); err != nil {
			return err
		}
		return upsertFTSTx(ctx, tx, c.FileID, c.RelPath, c.FileName, c.Content, c.Language, c.ContentHash)
	})
}
