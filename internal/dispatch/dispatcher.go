package dispatch

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/codeindex-mcp/codeindex/internal/config"
	"github.com/codeindex-mcp/codeindex/internal/engineerr"
	"github.com/codeindex-mcp/codeindex/internal/lang"
	"github.com/codeindex-mcp/codeindex/internal/plugin"
	"github.com/codeindex-mcp/codeindex/internal/rank"
	"github.com/codeindex-mcp/codeindex/internal/reposcope"
	"github.com/codeindex-mcp/codeindex/internal/store"
)

// maxFTSContentSize is the content-size cap beyond which a file's content is
// truncated before being handed to the FTS writer (spec §3 File.Truncated).
const maxFTSContentSize = 10 * 1024 * 1024

// binarySniffLen is how many leading bytes are scanned for a NUL byte when
// deciding whether a file is binary, matching the teacher's
// internal/index/coordinator.go isBinaryContent heuristic.
const binarySniffLen = 512

// Dispatcher implements the lookup/search/index_directory/reindex_file
// operations of spec §4.6, translating between the language plugins and the
// store, with FTS-only degradation when a file's language has no plugin.
type Dispatcher struct {
	store       *store.Store
	plugins     *plugin.Registry
	langs       *lang.Registry
	repoID      int64
	rootPath    string
	workerCount int
	delimiters  [2]string
}

// New constructs a Dispatcher. workerCount <= 0 falls back to
// min(runtime.NumCPU(), 8) via cfg.WorkerCount (spec §4.6).
func New(st *store.Store, plugins *plugin.Registry, langs *lang.Registry, repoID int64, rootPath string, cfg *config.Config) *Dispatcher {
	workers := cfg.WorkerCount
	if workers <= 0 {
		workers = min(runtime.NumCPU(), 8)
	}
	return &Dispatcher{
		store:       st,
		plugins:     plugins,
		langs:       langs,
		repoID:      repoID,
		rootPath:    rootPath,
		workerCount: workers,
		delimiters:  cfg.SnippetDelimiters,
	}
}

// Lookup implements lookup(symbol_name) (spec §4.6): exact match first,
// trigram-fuzzy fallback when fuzzy is requested and the exact match misses.
// Tie-break ordering is owned by store.QuerySymbol.
func (d *Dispatcher) Lookup(ctx context.Context, name string, fuzzy bool, cutoff float64) (*store.SymbolMatch, error) {
	matches, err := d.store.QuerySymbol(ctx, name, fuzzy, cutoff, 1)
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", name, err)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

// Search implements search(query, semantic, limit) (spec §4.6): builds an
// FTS MATCH expression, queries bm25_content, and normalizes/ranks the hits.
// semantic search is handled by a higher layer (internal/engine's SearchCode,
// over internal/semantic) that falls back to this method when no vector side-index is available — the
// dispatcher itself only ever speaks FTS, which is what keeps it usable with
// zero language plugins loaded (spec §4.6 "FTS-only degradation").
func (d *Dispatcher) Search(ctx context.Context, query string, limit int) ([]rank.Hit, error) {
	expr := rank.BuildMatchExpr(query)
	if expr == "" {
		return nil, engineerr.Usage(engineerr.CodeEmptyQuery, "search query must contain at least one token", nil)
	}

	hits, err := d.store.QueryFTS(ctx, expr, limit)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	terms := rank.QueryTerms(query)
	return rank.Normalize(hits, terms, d.delimiters), nil
}

// ProgressFunc receives a callback after each file completes indexing
// during IndexDirectory, so a caller can drive a progress display. current
// is a 1-based completed count out of total; currentFile is the path that
// just finished. May be nil.
type ProgressFunc func(current, total int, currentFile string)

// IndexDirectory implements index_directory(root) (spec §4.6): walks root,
// never applying ignore filters (I-7), and dispatches every readable regular
// file to reindexPath on a worker pool sized d.workerCount. Directories named
// reposcope.DefaultCentralDirName (the engine's own index store) are not
// entered.
func (d *Dispatcher) IndexDirectory(ctx context.Context, deadline time.Time, progress ProgressFunc) (IndexStats, error) {
	var paths []string
	var walkSkipped int
	err := filepath.Walk(d.rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			walkSkipped++
			return nil // unreadable entries are counted, not fatal
		}
		if info.IsDir() {
			if path != d.rootPath && info.Name() == reposcope.DefaultCentralDirName {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return IndexStats{}, fmt.Errorf("walk %s: %w", d.rootPath, err)
	}

	var (
		mu        sync.Mutex
		stats     IndexStats
		completed int
	)
	stats.SkippedUnreadable = walkSkipped

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < d.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				outcome := d.reindexPath(ctx, path)
				mu.Lock()
				switch outcome {
				case outcomeIndexed:
					stats.Indexed++
				case outcomeSkipped:
					stats.SkippedUnreadable++
				case outcomeFailed:
					stats.Failed++
				}
				completed++
				done := completed
				mu.Unlock()
				if progress != nil {
					progress(done, len(paths), path)
				}
			}
		}()
	}

loop:
	for _, path := range paths {
		if !deadline.IsZero() && time.Now().After(deadline) {
			break loop
		}
		select {
		case <-ctx.Done():
			break loop
		case jobs <- path:
		}
	}
	close(jobs)
	wg.Wait()

	if !deadline.IsZero() && time.Now().After(deadline) && completed < len(paths) {
		stats.Timeout = &TimeoutResult{CompletedCount: completed}
	}
	return stats, nil
}

// ReindexFile implements reindex_file(path) (spec §4.6): a single-file
// update used by the watcher, equivalent to one dispatch step.
func (d *Dispatcher) ReindexFile(ctx context.Context, relPath string) (ReindexStats, error) {
	abs := filepath.Join(d.rootPath, relPath)
	switch d.reindexPath(ctx, abs) {
	case outcomeIndexed:
		return ReindexStats{Indexed: 1}, nil
	case outcomeSkipped:
		return ReindexStats{}, nil
	default:
		return ReindexStats{Failed: 1}, nil
	}
}

// RemoveFile implements the delete side of reindex_file: a file that no
// longer exists on disk is removed from the store entirely (spec scenario
// 5: watcher delete semantics).
func (d *Dispatcher) RemoveFile(ctx context.Context, relPath string) error {
	f, err := d.store.GetFileByPath(ctx, d.repoID, relPath)
	if err != nil {
		return fmt.Errorf("lookup %s: %w", relPath, err)
	}
	if f == nil {
		return nil
	}
	return d.store.DeleteFile(ctx, f.ID)
}

type outcome int

const (
	outcomeIndexed outcome = iota
	outcomeSkipped
	outcomeFailed
)

// reindexPath runs one file through the full state machine of spec §4.6:
// Discovered -> Decoded -> Parsed -> SymbolsExtracted -> FtsWritten ->
// Committed. A failure at any stage yields outcomeSkipped or outcomeFailed
// and does not propagate to other files in the same IndexDirectory call; the
// failing stage and its reason are not recorded (no FailedError is built).
func (d *Dispatcher) reindexPath(ctx context.Context, absPath string) outcome {
	relPath, err := filepath.Rel(d.rootPath, absPath)
	if err != nil {
		return outcomeFailed
	}
	relPath = filepath.ToSlash(relPath)

	// Stage: Discovered -> Decoded.
	info, err := os.Lstat(absPath)
	if err != nil {
		return outcomeSkipped
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return outcomeSkipped
	}
	content, err := os.ReadFile(absPath)
	if err != nil {
		return outcomeSkipped
	}
	if isBinary(content) {
		return outcomeSkipped
	}

	truncated := false
	if len(content) > maxFTSContentSize {
		content = content[:maxFTSContentSize]
		truncated = true
	}
	nonUTF8 := !utf8.Valid(content)

	tag := d.langs.Detect(relPath)
	hash := contentHash(content)

	fileID, unchanged, err := d.store.UpsertFile(ctx, d.repoID, relPath, absPath, string(tag), info.Size(), hash, truncated, nonUTF8)
	if err != nil {
		return outcomeFailed
	}
	if unchanged {
		return outcomeIndexed
	}

	// Stage: Parsed -> SymbolsExtracted, via the language plugin. A plugin
	// failure degrades to FTS-only rather than failing the whole file
	// (spec §4.6 graceful degradation).
	var extracted lang.Extracted
	if !nonUTF8 {
		p, perr := d.plugins.For(tag)
		if perr == nil && p != nil {
			extracted, _ = p.IndexFile(ctx, content)
		}
	}

	// Stage: FtsWritten -> Committed, one transaction per spec §4.2.
	commit := store.FileCommit{
		FileID:      fileID,
		RelPath:     relPath,
		FileName:    filepath.Base(relPath),
		Content:     string(content),
		Language:    string(tag),
		ContentHash: hash,
		Symbols:     extracted.Symbols,
		References:  extracted.References,
	}
	if err := d.store.CommitFile(ctx, commit); err != nil {
		return outcomeFailed
	}
	return outcomeIndexed
}

func isBinary(content []byte) bool {
	n := len(content)
	if n > binarySniffLen {
		n = binarySniffLen
	}
	return bytes.IndexByte(content[:n], 0) >= 0
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
