package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"
)

// defaultCodeStopWords mirrors the teacher's default stop list for the
// Bleve code analyzer (internal/store/bm25.go), kept small since code
// identifiers rarely collide with natural-language stop words.
var defaultCodeStopWords = []string{"a", "an", "the", "and", "or", "of", "to", "in", "is"}

// codeAnalyzerName and its tokenizer/filter names mirror the teacher's
// internal/store/bm25.go custom code analyzer: a tokenizer that splits on
// identifier boundaries (camelCase, snake_case) plus a code-aware stop
// word filter, registered once at package init.
const (
	codeTokenizerName = "code_tokenizer"
	codeStopFilterName = "code_stop"
	codeAnalyzerName   = "code_analyzer"
)

func init() {
	_ = registry.RegisterTokenizer(codeTokenizerName, codeTokenizerConstructor)
	_ = registry.RegisterTokenFilter(codeStopFilterName, codeStopFilterConstructor)
}

// codeTokenizerConstructor creates the code-aware tokenizer for Bleve,
// delegating to TokenizeCode (tokenizer.go) for camelCase/snake_case
// splitting. The SQLite backend tokenizes with FTS5's porter unicode61
// instead, so the two backends do not split identifiers identically.
func codeTokenizerConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.Tokenizer, error) {
	return &bleveCodeTokenizer{}, nil
}

type bleveCodeTokenizer struct{}

func (t *bleveCodeTokenizer) Tokenize(input []byte) analysis.TokenStream {
	text := string(input)
	tokens := TokenizeCode(text)

	result := make(analysis.TokenStream, 0, len(tokens))
	pos := 1
	offset := 0
	for _, token := range tokens {
		start := strings.Index(strings.ToLower(text[offset:]), strings.ToLower(token))
		if start == -1 {
			start = offset
		} else {
			start += offset
		}
		end := start + len(token)

		result = append(result, &analysis.Token{
			Term:     []byte(token),
			Start:    start,
			End:      end,
			Position: pos,
			Type:     analysis.AlphaNumeric,
		})
		pos++
		if end <= len(text) {
			offset = end
		}
	}
	return result
}

func codeStopFilterConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.TokenFilter, error) {
	return &bleveCodeStopFilter{stopWords: BuildStopWordMap(defaultCodeStopWords)}, nil
}

type bleveCodeStopFilter struct {
	stopWords map[string]struct{}
}

func (f *bleveCodeStopFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	result := make(analysis.TokenStream, 0, len(input))
	for _, token := range input {
		if _, isStop := f.stopWords[strings.ToLower(string(token.Term))]; !isStop {
			result = append(result, token)
		}
	}
	return result
}

// contentDoc is the document shape bleve indexes: one row per file, mirroring
// bm25_content's columns so QueryFTS can return the same FTSHit shape
// regardless of backend.
type contentDoc struct {
	FilePath string `json:"file_path"`
	FileName string `json:"file_name"`
	Content  string `json:"content"`
	Language string `json:"language"`
	Hash     string `json:"hash"`
}

// BleveContentIndex is the legacy single-process ContentIndex backend,
// adapted from the teacher's BleveBM25Index (internal/store/bm25.go). It
// stores one doc per file path (rather than the teacher's arbitrary doc-id
// scheme) so it can satisfy UpsertFTS/QueryFTS/IsIndexedAtHash directly.
type BleveContentIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	closed bool
}

// NewBleveContentIndex opens or creates a Bleve index at path ("" for an
// in-memory index, used by tests).
func NewBleveContentIndex(path string) (*BleveContentIndex, error) {
	indexMapping, err := buildContentMapping()
	if err != nil {
		return nil, fmt.Errorf("build bleve mapping: %w", err)
	}

	var idx bleve.Index
	if path == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return nil, fmt.Errorf("create bleve directory: %w", mkErr)
		}
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, indexMapping)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open/create bleve index: %w", err)
	}
	return &BleveContentIndex{index: idx, path: path}, nil
}

func buildContentMapping() (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()
	if err := im.AddCustomAnalyzer(codeAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": codeTokenizerName,
		"token_filters": []string{
			lowercase.Name,
			codeStopFilterName,
		},
	}); err != nil {
		return nil, fmt.Errorf("add custom analyzer: %w", err)
	}
	im.DefaultAnalyzer = codeAnalyzerName
	return im, nil
}

// UpsertFTS indexes (or re-indexes) one file's content document, keyed by
// its relative path so a second call replaces rather than duplicates.
func (b *BleveContentIndex) UpsertFTS(ctx context.Context, fileID int64, relPath, fileName, content, language, contentHash string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("bleve content index is closed")
	}

	doc := contentDoc{FilePath: relPath, FileName: fileName, Content: content, Language: language, Hash: contentHash}
	if err := b.index.Index(relPath, doc); err != nil {
		return fmt.Errorf("index document %s: %w", relPath, err)
	}
	return nil
}

// QueryFTS runs a match query over the content field, scored by Bleve's
// native BM25 scorer, and returns hits in the common FTSHit shape.
func (b *BleveContentIndex) QueryFTS(ctx context.Context, matchExpr string, limit int) ([]FTSHit, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, fmt.Errorf("bleve content index is closed")
	}
	if strings.TrimSpace(matchExpr) == "" {
		return nil, nil
	}

	q := bleve.NewMatchQuery(matchExpr)
	q.SetField("Content")
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.Fields = []string{"FilePath", "FileName", "Content", "Language"}

	result, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}

	hits := make([]FTSHit, 0, len(result.Hits))
	for _, h := range result.Hits {
		hits = append(hits, FTSHit{
			FilePath: stringField(h.Fields, "FilePath"),
			FileName: stringField(h.Fields, "FileName"),
			Content:  stringField(h.Fields, "Content"),
			Language: stringField(h.Fields, "Language"),
			Rank:     -h.Score, // match FTS5's "more negative is better" convention
		})
	}
	return hits, nil
}

// IsIndexedAtHash reports whether relPath's stored hash equals contentHash.
func (b *BleveContentIndex) IsIndexedAtHash(ctx context.Context, relPath, contentHash string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return false, nil
	}

	doc, err := b.index.Document(relPath)
	if err != nil || doc == nil {
		return false, nil
	}
	for _, f := range doc.StoredFields() {
		if f.Name() == "Hash" {
			return string(f.Value()) == contentHash, nil
		}
	}
	return false, nil
}

// Close releases the underlying Bleve/BoltDB handle.
func (b *BleveContentIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.index.Close()
}

func stringField(fields map[string]interface{}, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}
