package plugin

import (
	"context"

	"github.com/codeindex-mcp/codeindex/internal/lang"
	"github.com/codeindex-mcp/codeindex/internal/store"
)

// PlaintextPlugin handles Plaintext and Unknown tags: it never extracts
// symbols (IndexFile always returns an empty Extracted), but content search
// still works since bm25_content is populated regardless of language.
type PlaintextPlugin struct{}

func NewPlaintextPlugin() *PlaintextPlugin { return &PlaintextPlugin{} }

func (p *PlaintextPlugin) Supports(tag lang.Tag) bool {
	return tag == lang.Plaintext || tag == lang.Unknown
}

func (p *PlaintextPlugin) IndexFile(ctx context.Context, content []byte) (lang.Extracted, error) {
	return lang.Extracted{}, nil
}

func (p *PlaintextPlugin) GetDefinition(ctx context.Context, st *store.Store, name string, fuzzy bool, cutoff float64) ([]store.SymbolMatch, error) {
	return nil, nil
}

func (p *PlaintextPlugin) FindReferences(ctx context.Context, st *store.Store, symbolID int64, limit int) ([]store.Reference, error) {
	return nil, nil
}

func (p *PlaintextPlugin) Search(ctx context.Context, st *store.Store, matchExpr string, limit int) ([]store.FTSHit, error) {
	return st.QueryFTS(ctx, matchExpr, limit)
}
