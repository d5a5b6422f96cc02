package plugin

import (
	"context"
	"fmt"

	"github.com/codeindex-mcp/codeindex/internal/lang"
	"github.com/codeindex-mcp/codeindex/internal/store"
)

// GenericPlugin backs every tree-sitter-capable language with one
// implementation parameterized by a lang.Extractor, since IndexFile is the
// only operation that actually differs per language — lookup/search always
// delegate to the shared store.
type GenericPlugin struct {
	tag       lang.Tag
	extractor *Extractor
}

// Extractor is the subset of *lang.Extractor GenericPlugin depends on,
// narrowed so tests can substitute a fake without a real tree-sitter parser.
type Extractor interface {
	Extract(ctx context.Context, source []byte) (lang.Extracted, error)
}

// NewGenericPlugin wraps ex as the Plugin for tag.
func NewGenericPlugin(tag lang.Tag, ex Extractor) *GenericPlugin {
	return &GenericPlugin{tag: tag, extractor: ex}
}

func (p *GenericPlugin) Supports(tag lang.Tag) bool { return tag == p.tag }

func (p *GenericPlugin) IndexFile(ctx context.Context, content []byte) (lang.Extracted, error) {
	extracted, err := p.extractor.Extract(ctx, content)
	if err != nil {
		return lang.Extracted{}, fmt.Errorf("extract %s symbols: %w", p.tag, err)
	}
	return extracted, nil
}

func (p *GenericPlugin) GetDefinition(ctx context.Context, st *store.Store, name string, fuzzy bool, cutoff float64) ([]store.SymbolMatch, error) {
	return st.QuerySymbol(ctx, name, fuzzy, cutoff, 20)
}

func (p *GenericPlugin) FindReferences(ctx context.Context, st *store.Store, symbolID int64, limit int) ([]store.Reference, error) {
	return st.ReferencesTo(ctx, symbolID, limit)
}

func (p *GenericPlugin) Search(ctx context.Context, st *store.Store, matchExpr string, limit int) ([]store.FTSHit, error) {
	return st.QueryFTS(ctx, matchExpr, limit)
}
