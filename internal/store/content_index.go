package store

import "context"

// ContentIndex is the full-text backend interface behind bm25_content
// (spec §4.2). Store (modernc.org/sqlite + FTS5) implements it, and so does
// BleveContentIndex (spec §9 "embedded relational engine with FTS extensions"
// names SQLite as primary; the teacher's bm25_factory.go pattern kept Bleve
// as a single-process legacy option). Config.FTS.Backend accepts "bleve" but
// is only validated: the engine always opens a Store, and no code outside
// tests constructs a BleveContentIndex.
type ContentIndex interface {
	UpsertFTS(ctx context.Context, fileID int64, relPath, fileName, content, language, contentHash string) error
	QueryFTS(ctx context.Context, matchExpr string, limit int) ([]FTSHit, error)
	IsIndexedAtHash(ctx context.Context, relPath, contentHash string) (bool, error)
	Close() error
}

var (
	_ ContentIndex = (*Store)(nil)
	_ ContentIndex = (*BleveContentIndex)(nil)
)
