package semantic

import (
	"context"
	"fmt"
	"strings"

	"github.com/codeindex-mcp/codeindex/internal/rank"
)

// batchSize is the max number of chunks embedded per provider call (spec
// §4.9 "batch of up to 10 chunks").
const batchSize = 10

// Index is the semantic side-index for one repository: it chunks a file's
// content, embeds the chunks, and upserts them into a VectorStore, and
// answers top-K semantic queries with a BM25 snippet attached to each hit.
// Grounded on the teacher's internal/search package shape, with the
// cross-encoder reranker replaced by direct vector search (spec §4.9 has
// no reranking stage of its own; internal/rank.Reranker already covers
// post-retrieval reranking for both search paths).
type Index struct {
	repoFingerprint string
	embedder        Embedder
	store           *VectorStore
	content         contentSource
}

// contentSource is the subset of *store.Store the semantic index needs to
// recover a chunk's source text for snippet extraction at query time.
type contentSource interface {
	GetFileContent(ctx context.Context, relPath string) (string, bool, error)
}

// NewIndex constructs a semantic Index. embedder.Dimensions() must match
// store's configured width.
func NewIndex(repoFingerprint string, embedder Embedder, vectorStore *VectorStore, content contentSource) *Index {
	return &Index{
		repoFingerprint: repoFingerprint,
		embedder:        embedder,
		store:           vectorStore,
		content:         content,
	}
}

// IndexFile chunks and embeds one file's content and upserts its chunk
// vectors. A failing embedding batch does not propagate as a fatal error to
// the caller's indexing pipeline — the semantic index simply lags behind
// the primary FTS index until the next successful re-index (spec §4.9).
func (idx *Index) IndexFile(ctx context.Context, relPath, language, content string) error {
	chunks := ChunkFile(relPath, content)
	if len(chunks) == 0 {
		return nil
	}

	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}

		vectors, err := idx.embedder.EmbedBatch(ctx, texts, InputDocument)
		if err != nil {
			return fmt.Errorf("embed batch for %s[%d:%d]: %w", relPath, start, end, err)
		}

		for i, c := range batch {
			key := PointKey(idx.repoFingerprint, relPath, c.Index)
			payload := PointPayload{
				Repo:       idx.repoFingerprint,
				Path:       relPath,
				Language:   language,
				ChunkIndex: c.Index,
				StartLine:  c.StartLine,
				EndLine:    c.EndLine,
			}
			if err := idx.store.Upsert(key, vectors[i], payload); err != nil {
				return fmt.Errorf("upsert vector for %s chunk %d: %w", relPath, c.Index, err)
			}
		}
	}
	return nil
}

// RemoveFile drops every chunk point belonging to relPath. The caller must
// know the chunk count (from the last successful IndexFile) or re-derive it
// by re-chunking the last-known content; engine wiring tracks this per
// file so a delete never needs to guess.
func (idx *Index) RemoveFile(relPath string, chunkCount int) {
	for i := 0; i < chunkCount; i++ {
		idx.store.Delete(PointKey(idx.repoFingerprint, relPath, i))
	}
}

// Search embeds query as a "query" input and returns the top-K chunk hits
// ranked by cosine similarity, each carrying a BM25-style highlighted
// snippet of its owning file's content (spec §4.9 query path: "map
// payloads back to file/chunk and attach a BM25 snippet for display").
func (idx *Index) Search(ctx context.Context, query string, limit int, delimiters [2]string) ([]rank.Hit, error) {
	vectors, err := idx.embedder.EmbedBatch(ctx, []string{query}, InputQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: expected 1 vector, got %d", len(vectors))
	}

	hits, err := idx.store.Search(vectors[0], limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	terms := rank.QueryTerms(query)
	results := make([]rank.Hit, 0, len(hits))
	for _, h := range hits {
		content, ok, err := idx.content.GetFileContent(ctx, h.Payload.Path)
		if err != nil {
			return nil, fmt.Errorf("load content for %s: %w", h.Payload.Path, err)
		}
		if !ok {
			continue // file has no FTS row (e.g. removed since semantic index was built)
		}

		snippet, line := rank.Snippet(lineRange(content, h.Payload.StartLine, h.Payload.EndLine), terms, delimiters)
		results = append(results, rank.Hit{
			FilePath: h.Payload.Path,
			Language: h.Payload.Language,
			Score:    h.Score,
			Snippet:  snippet,
			Line:     h.Payload.StartLine + line - 1,
		})
	}
	return results, nil
}

// lineRange extracts the 1-indexed, inclusive [startLine, endLine] slice of
// content, so a query-time snippet reflects the file's latest indexed
// content rather than a copy stored alongside the vector. Falls back to the
// whole file if the range no longer fits (content changed since the chunk
// was embedded).
func lineRange(content string, startLine, endLine int) string {
	lines := strings.Split(content, "\n")
	if startLine < 1 || endLine > len(lines) || startLine > endLine {
		return content
	}
	return strings.Join(lines[startLine-1:endLine], "\n")
}
