// Package plugin is the per-language capability surface (spec C4):
// supports/index_file/get_definition/find_references/search, one instance
// lazily constructed per language tag. Grounded on the teacher's
// pkg/indexer + pkg/searcher interface pair, which already separates
// "index" and "search" capability surfaces per backend; here both surfaces
// live on one interface since one language's plugin always implements both.
package plugin

import (
	"context"

	"github.com/codeindex-mcp/codeindex/internal/lang"
	"github.com/codeindex-mcp/codeindex/internal/store"
)

// Plugin is the capability contract every language adapter satisfies.
type Plugin interface {
	// Supports reports whether this plugin handles tag.
	Supports(tag lang.Tag) bool

	// IndexFile parses content and returns the symbols/references to commit
	// for one file. content is assumed to already be decoded to valid UTF-8
	// (binary/non-UTF-8 files never reach a Plugin — spec §4.3).
	IndexFile(ctx context.Context, content []byte) (lang.Extracted, error)

	// GetDefinition resolves name to its defining symbol(s) within the
	// already-committed store, delegating straight to Store.QuerySymbol
	// (the plugin layer exists to let a future language override lookup
	// semantics, not to duplicate storage logic).
	GetDefinition(ctx context.Context, st *store.Store, name string, fuzzy bool, cutoff float64) ([]store.SymbolMatch, error)

	// FindReferences resolves every reference to symbolID.
	FindReferences(ctx context.Context, st *store.Store, symbolID int64, limit int) ([]store.Reference, error)

	// Search runs a content search over the whole store; results are not
	// filtered to this plugin's language.
	Search(ctx context.Context, st *store.Store, matchExpr string, limit int) ([]store.FTSHit, error)
}
