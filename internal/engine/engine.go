// Package engine assembles the single immutable value (spec §9: "keep a
// single Engine value threaded through operations, constructed once from an
// immutable Config struct") that internal/rpcserver and cmd/codeindexd sit
// on top of: the store, language/plugin registries, dispatcher, and the
// optional semantic side-index and file watcher.
//
// Grounded on the teacher's internal/daemon/server.go, which performs the
// same job (wiring search.SearchEngine + store.MetadataStore + embed.Embedder
// + config into one long-lived value consumed by internal/mcp.Server), and
// internal/search/engine.go's constructor shape.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/codeindex-mcp/codeindex/internal/config"
	"github.com/codeindex-mcp/codeindex/internal/dispatch"
	"github.com/codeindex-mcp/codeindex/internal/lang"
	"github.com/codeindex-mcp/codeindex/internal/plugin"
	"github.com/codeindex-mcp/codeindex/internal/rank"
	"github.com/codeindex-mcp/codeindex/internal/reposcope"
	"github.com/codeindex-mcp/codeindex/internal/semantic"
	"github.com/codeindex-mcp/codeindex/internal/store"
	"github.com/codeindex-mcp/codeindex/internal/watcher"
)

// Engine is the one long-lived value per running process: one repository,
// one store artifact, one dispatcher, and optionally one semantic index and
// one file watcher.
type Engine struct {
	cfg *config.Config
	log *slog.Logger

	store   *store.Store
	langs   *lang.Registry
	plugins *plugin.Registry
	disp    *dispatch.Dispatcher

	repoID          int64
	repoFingerprint string
	rootPath        string
	indexDir        string
	branch          string
	commit          string

	semantic *semantic.Index // nil when Semantic.Mode is off

	watch       *watcher.HybridWatcher // nil when Watcher.Mode is off
	watchCancel context.CancelFunc
	watchDone   chan struct{}

	chunkMu     sync.Mutex
	chunkCounts map[string]int // relPath -> last-known semantic chunk count, for RemoveFile
}

// Status is the result of GetStatus, matching spec §6.1 get_status's result
// shape one-for-one.
type Status struct {
	IndexPath       string
	FileCount       int
	Languages       map[string]int
	LastIndexed     *time.Time
	SemanticEnabled bool
}

// New resolves the workspace root and repository fingerprint, opens (or
// initializes) the store artifact, and wires every configured subsystem.
// The returned Engine owns the store and, if configured, the watcher; both
// are released by Close.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Engine, error) {
	if log == nil {
		log = slog.Default()
	}

	root, err := reposcope.WorkspaceRoot(cfg.WorkspaceRoot)
	if err != nil {
		return nil, fmt.Errorf("engine: resolve workspace root: %w", err)
	}

	fp, err := reposcope.Fingerprint(root)
	if err != nil {
		return nil, fmt.Errorf("engine: compute fingerprint: %w", err)
	}

	central := reposcope.CentralRoot(root, cfg.CentralIndexRoot)
	dir, err := reposcope.IndexDir(central, fp)
	if err != nil {
		return nil, fmt.Errorf("engine: resolve index dir: %w", err)
	}

	branch := reposcope.CurrentBranch(root)
	commit := reposcope.CurrentCommit(root)

	artifactPath, haveCurrent, err := reposcope.ResolveCurrent(dir)
	if err != nil {
		return nil, fmt.Errorf("engine: resolve current artifact: %w", err)
	}
	artifactFilename := reposcope.ArtifactFilename(branch, commit)
	if !haveCurrent {
		artifactPath = filepath.Join(dir, artifactFilename)
	}

	st, err := store.OpenOrInit(artifactPath)
	if err != nil {
		return nil, fmt.Errorf("engine: open store: %w", err)
	}
	if !haveCurrent {
		if err := reposcope.SetCurrent(dir, filepath.Base(artifactPath)); err != nil {
			st.Close()
			return nil, fmt.Errorf("engine: set current pointer: %w", err)
		}
	}

	repoID, err := st.EnsureRepository(ctx, fp, root, filepath.Base(root))
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("engine: ensure repository: %w", err)
	}

	langs := lang.NewDefaultRegistry()
	plugins := plugin.NewRegistry(langs)
	disp := dispatch.New(st, plugins, langs, repoID, root, cfg)

	e := &Engine{
		cfg:             cfg,
		log:             log,
		store:           st,
		langs:           langs,
		plugins:         plugins,
		disp:            disp,
		repoID:          repoID,
		repoFingerprint: fp,
		rootPath:        root,
		indexDir:        dir,
		branch:          branch,
		commit:          commit,
		chunkCounts:     make(map[string]int),
	}

	if cfg.Semantic.Mode == config.SemanticOn {
		embedder := semantic.NewHTTPEmbedder(cfg.Semantic.ProviderURL, cfg.Semantic.Model, cfg.APIKey(), cfg.Semantic.Dimensions)
		vecStore := semantic.NewVectorStore(cfg.Semantic.Dimensions)
		e.semantic = semantic.NewIndex(fp, embedder, vecStore, st)
	}

	if cfg.Watcher.Mode == config.WatcherOn {
		if err := e.startWatcher(); err != nil {
			st.Close()
			return nil, fmt.Errorf("engine: start watcher: %w", err)
		}
	}

	return e, nil
}

// Close stops the watcher (if any) and releases the store handle. Safe to
// call once.
func (e *Engine) Close() error {
	if e.watch != nil {
		e.watchCancel()
		_ = e.watch.Stop()
		<-e.watchDone
	}
	return e.store.Close()
}

// SymbolLookup implements the symbol_lookup tool (spec §6.1).
func (e *Engine) SymbolLookup(ctx context.Context, symbol string, fuzzy bool) (*store.SymbolMatch, error) {
	return e.disp.Lookup(ctx, symbol, fuzzy, e.cfg.Fuzzy.SimilarityCutoff)
}

// SearchCode implements the search_code tool (spec §6.1). When semantic is
// true and a semantic index is configured, the vector path is used;
// otherwise (or on an empty semantic index) the call falls back to the
// dispatcher's FTS path, matching the graceful-degradation behavior spec'd
// for missing language plugins (§4.6) extended to a missing semantic index.
func (e *Engine) SearchCode(ctx context.Context, query string, semanticRequested bool, limit int) ([]rank.Hit, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	if semanticRequested && e.semantic != nil {
		hits, err := e.semantic.Search(ctx, query, limit, e.cfg.SnippetDelimiters)
		if err != nil {
			e.log.Warn("semantic search failed, falling back to full text", slog.String("error", err.Error()))
		} else if len(hits) > 0 {
			return hits, nil
		}
	}
	return e.disp.Search(ctx, query, limit)
}

// GetStatus implements the get_status tool (spec §6.1).
func (e *Engine) GetStatus(ctx context.Context) (Status, error) {
	meta, err := e.store.BuildMetadata(ctx, e.branch, e.commit, toolVersion, time.Now().UTC())
	if err != nil {
		return Status{}, fmt.Errorf("engine: build metadata: %w", err)
	}

	st := Status{
		IndexPath:       e.store.Path(),
		FileCount:       meta.Counts.Files,
		Languages:       meta.Languages,
		SemanticEnabled: e.semantic != nil,
	}
	if last, ok, err := e.store.LastIndexedAt(ctx); err != nil {
		return Status{}, fmt.Errorf("engine: last indexed at: %w", err)
	} else if ok {
		st.LastIndexed = &last
	}
	return st, nil
}

// ReindexStats is the result of Reindex, matching the reindex tool's
// {indexed, failed} result shape (spec §6.1).
type ReindexStats struct {
	Indexed int `json:"indexed"`
	Failed  int `json:"failed"`
}

// ProgressFunc reports per-file progress during a full-workspace Reindex;
// see dispatch.ProgressFunc. May be nil.
type ProgressFunc = dispatch.ProgressFunc

// Reindex implements the reindex tool (spec §6.1). An empty path reindexes
// the whole workspace; a non-empty path reindexes (or, if deleted, removes)
// a single file. deadline is zero for no deadline.
func (e *Engine) Reindex(ctx context.Context, relPath string, deadline time.Time) (ReindexStats, error) {
	return e.ReindexWithProgress(ctx, relPath, deadline, nil)
}

// ReindexWithProgress is Reindex with an optional per-file progress
// callback driven during the full-workspace walk, for callers (the CLI)
// that render live progress; the tool protocol calls Reindex, which passes
// a nil callback.
func (e *Engine) ReindexWithProgress(ctx context.Context, relPath string, deadline time.Time, progress ProgressFunc) (ReindexStats, error) {
	if relPath == "" {
		stats, err := e.disp.IndexDirectory(ctx, deadline, progress)
		if err != nil {
			return ReindexStats{}, err
		}
		if e.semantic != nil {
			e.resyncSemanticAll(ctx)
		}
		return ReindexStats{Indexed: stats.Indexed, Failed: stats.Failed + stats.SkippedUnreadable}, nil
	}

	if _, statErr := os.Lstat(filepath.Join(e.rootPath, relPath)); os.IsNotExist(statErr) {
		if err := e.disp.RemoveFile(ctx, filepath.ToSlash(relPath)); err != nil {
			return ReindexStats{}, err
		}
		if e.semantic != nil {
			e.removeSemanticOne(filepath.ToSlash(relPath))
		}
		return ReindexStats{}, nil
	}

	stats, err := e.disp.ReindexFile(ctx, relPath)
	if err != nil {
		return ReindexStats{}, err
	}
	if e.semantic != nil && stats.Indexed > 0 {
		e.resyncSemanticOne(ctx, relPath)
	}
	return ReindexStats{Indexed: stats.Indexed, Failed: stats.Failed}, nil
}

// toolVersion is reported in index metadata; kept as a constant since this
// build has no separate release process yet.
const toolVersion = "dev"

// resyncSemanticAll walks every committed file and (re-)embeds it. Used
// after a full directory reindex, since dispatch.IndexDirectory has no
// per-file hook the semantic layer can ride along on.
func (e *Engine) resyncSemanticAll(ctx context.Context) {
	files, err := e.store.ListFiles(ctx, e.repoID)
	if err != nil {
		e.log.Warn("semantic resync: list files failed", slog.String("error", err.Error()))
		return
	}
	for _, f := range files {
		e.resyncSemanticOne(ctx, f.RelativePath)
	}
}

// resyncSemanticOne re-embeds one file's current committed content. Failures
// are logged and otherwise swallowed: the semantic side-index is allowed to
// lag behind the primary FTS index (spec §4.9).
func (e *Engine) resyncSemanticOne(ctx context.Context, relPath string) {
	content, ok, err := e.store.GetFileContent(ctx, relPath)
	if err != nil {
		e.log.Warn("semantic resync: read content failed", slog.String("path", relPath), slog.String("error", err.Error()))
		return
	}
	if !ok {
		return
	}

	tag := e.langs.Detect(relPath)
	if err := e.semantic.IndexFile(ctx, relPath, string(tag), content); err != nil {
		e.log.Warn("semantic resync: index file failed", slog.String("path", relPath), slog.String("error", err.Error()))
		return
	}

	chunks := semantic.ChunkFile(relPath, content)
	e.chunkMu.Lock()
	e.chunkCounts[relPath] = len(chunks)
	e.chunkMu.Unlock()
}

// removeSemanticOne drops every vector chunk last known for relPath.
func (e *Engine) removeSemanticOne(relPath string) {
	e.chunkMu.Lock()
	count, ok := e.chunkCounts[relPath]
	delete(e.chunkCounts, relPath)
	e.chunkMu.Unlock()
	if ok {
		e.semantic.RemoveFile(relPath, count)
	}
}
