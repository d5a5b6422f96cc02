package rank

import (
	"math"
	"sort"

	"github.com/codeindex-mcp/codeindex/internal/store"
)

// Hit is one ranked, snippet-annotated search result (spec §4.7, search_code
// result shape).
type Hit struct {
	FilePath     string
	Language     string
	Score        float64
	RerankScore  float64
	Reranked     bool
	Snippet      string
	Line         int
}

// Normalize converts raw bm25_content hits (SQLite FTS5's native
// negative-rank convention) into Hits sorted by the spec §4.7 order: score
// descending, then shorter filepath, then lower line number.
//
// terms are the plain query terms used for snippet highlighting (see
// QueryTerms); delimiters are the (open, close) highlight markers.
func Normalize(hits []store.FTSHit, terms []string, delimiters [2]string) []Hit {
	out := make([]Hit, len(hits))
	for i, h := range hits {
		snippet, line := Snippet(h.Content, terms, delimiters)
		out[i] = Hit{
			FilePath: h.FilePath,
			Language: h.Language,
			Score:    math.Abs(h.Rank),
			Snippet:  snippet,
			Line:     line,
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if len(out[i].FilePath) != len(out[j].FilePath) {
			return len(out[i].FilePath) < len(out[j].FilePath)
		}
		if out[i].FilePath != out[j].FilePath {
			return out[i].FilePath < out[j].FilePath
		}
		return out[i].Line < out[j].Line
	})
	return out
}
