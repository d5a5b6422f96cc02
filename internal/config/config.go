// Package config assembles the engine's single immutable Config value, per
// spec.md §9 ("Global singletons ... keep a single Engine value threaded
// through operations, constructed once from an immutable Config struct").
//
// Precedence, highest first: environment variables, project YAML file
// (.codeindex.yaml at the workspace root), built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RerankerMode selects the optional post-retrieval reranking pass (§4.7).
type RerankerMode string

const (
	RerankerOff   RerankerMode = "off"
	RerankerTFIDF RerankerMode = "tfidf"
)

// SemanticMode toggles the optional dense-vector side-index (C9).
type SemanticMode string

const (
	SemanticOff SemanticMode = "off"
	SemanticOn  SemanticMode = "on"
)

// WatcherMode toggles the file-system watcher (C8).
type WatcherMode string

const (
	WatcherOff WatcherMode = "off"
	WatcherOn  WatcherMode = "on"
)

// BM25Backend names the content full-text index backend (§4.11 domain
// stack: sqlite FTS5 is the default, bleve is an alternate engine behind the
// same interface). Validate accepts either value, but the engine always uses
// the sqlite backend; this field does not switch engines.
type BM25Backend string

const (
	BM25BackendSQLite BM25Backend = "sqlite"
	BM25BackendBleve  BM25Backend = "bleve"
)

// SemanticConfig configures the optional embedding provider and vector store.
type SemanticConfig struct {
	Mode        SemanticMode  `yaml:"mode" json:"mode"`
	ProviderURL string        `yaml:"provider_url" json:"provider_url"`
	Model       string        `yaml:"model" json:"model"`
	APIKeyEnv   string        `yaml:"api_key_env" json:"api_key_env"`
	Dimensions  int           `yaml:"dimensions" json:"dimensions"`
	BatchSize   int           `yaml:"batch_size" json:"batch_size"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	MaxRetries  int           `yaml:"max_retries" json:"max_retries"`
}

// WatcherConfig configures the file-system watcher (C8).
type WatcherConfig struct {
	Mode        WatcherMode   `yaml:"mode" json:"mode"`
	DebounceMS  int           `yaml:"debounce_ms" json:"debounce_ms"`
	QueueCap    int           `yaml:"queue_cap" json:"queue_cap"`
	PollFallbackInterval time.Duration `yaml:"poll_fallback_interval" json:"poll_fallback_interval"`
}

// FTSConfig configures full-text indexing (§3 FTSEntry, §4.7).
type FTSConfig struct {
	Backend      BM25Backend `yaml:"backend" json:"backend"`
	PrefixSizes  []int       `yaml:"prefix_sizes" json:"prefix_sizes"` // default [2, 3]
	K1           float64     `yaml:"k1" json:"k1"`
	B            float64     `yaml:"b" json:"b"`
}

// RerankerConfig configures the optional TF-IDF reranker (§4.7).
type RerankerConfig struct {
	Mode      RerankerMode `yaml:"mode" json:"mode"`
	TopK      int          `yaml:"top_k" json:"top_k"`
	CacheSize int          `yaml:"cache_size" json:"cache_size"`
}

// FuzzyConfig configures the trigram-based fuzzy symbol lookup (§4.6).
type FuzzyConfig struct {
	SimilarityCutoff float64 `yaml:"similarity_cutoff" json:"similarity_cutoff"`
}

// Config is the engine's complete, immutable configuration. One value is
// constructed at startup (via Load) and threaded through every operation.
// Outside this package, reposcope.WorkspaceRoot also reads
// MCP_WORKSPACE_ROOT and internal/ui reads NO_COLOR and CI variables.
type Config struct {
	// WorkspaceRoot overrides workspace root detection (spec §4.1).
	WorkspaceRoot string `yaml:"workspace_root" json:"workspace_root"`

	// CentralIndexRoot overrides the central index directory
	// (default "<workspace_root>/.indexes").
	CentralIndexRoot string `yaml:"central_index_root" json:"central_index_root"`

	// WorkerCount bounds indexing parallelism. Zero means
	// min(runtime.NumCPU(), 8), per spec §4.6.
	WorkerCount int `yaml:"worker_count" json:"worker_count"`

	// SnippetDelimiters is the (open, close) highlight pair used by the
	// snippet generator. Defaults to the spec's "«"/"»".
	SnippetDelimiters [2]string `yaml:"snippet_delimiters" json:"snippet_delimiters"`

	// Debug mirrors MCP_DEBUG: increases log verbosity (§6.4).
	Debug bool `yaml:"debug" json:"debug"`

	FTS       FTSConfig      `yaml:"fts" json:"fts"`
	Reranker  RerankerConfig `yaml:"reranker" json:"reranker"`
	Fuzzy     FuzzyConfig    `yaml:"fuzzy" json:"fuzzy"`
	Semantic  SemanticConfig `yaml:"semantic" json:"semantic"`
	Watcher   WatcherConfig  `yaml:"watcher" json:"watcher"`
}

// ConfigFileName is the project-level configuration file, searched for at
// the workspace root.
const ConfigFileName = ".codeindex.yaml"

// Default returns a Config populated with the engine's built-in defaults.
func Default() *Config {
	return &Config{
		WorkerCount:       min(runtime.NumCPU(), 8),
		SnippetDelimiters: [2]string{"«", "»"},
		FTS: FTSConfig{
			Backend:     BM25BackendSQLite,
			PrefixSizes: []int{2, 3},
			K1:          1.2,
			B:           0.75,
		},
		Reranker: RerankerConfig{
			Mode:      RerankerOff,
			TopK:      50,
			CacheSize: 1024,
		},
		Fuzzy: FuzzyConfig{
			SimilarityCutoff: 0.7,
		},
		Semantic: SemanticConfig{
			Mode:       SemanticOff,
			Dimensions: 256,
			BatchSize:  10,
			Timeout:    30 * time.Second,
			MaxRetries: 3,
		},
		Watcher: WatcherConfig{
			Mode:                 WatcherOn,
			DebounceMS:           200,
			QueueCap:             10_000,
			PollFallbackInterval: 2 * time.Second,
		},
	}
}

// Load assembles the final Config for workspaceRoot: defaults, then the
// project YAML file if present, then environment variable overrides.
func Load(workspaceRoot string) (*Config, error) {
	cfg := Default()
	cfg.WorkspaceRoot = workspaceRoot

	yamlPath := filepath.Join(workspaceRoot, ConfigFileName)
	if _, err := os.Stat(yamlPath); err == nil {
		if err := cfg.loadYAML(yamlPath); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	c.mergeWith(&parsed)
	return nil
}

// mergeWith overlays non-zero fields of other onto c. WorkspaceRoot is not
// overlaid: Load has already fixed it before the file is read.
func (c *Config) mergeWith(other *Config) {
	if other.Debug {
		c.Debug = true
	}
	if other.CentralIndexRoot != "" {
		c.CentralIndexRoot = other.CentralIndexRoot
	}
	if other.WorkerCount != 0 {
		c.WorkerCount = other.WorkerCount
	}
	if other.SnippetDelimiters != [2]string{} {
		c.SnippetDelimiters = other.SnippetDelimiters
	}
	if other.FTS.Backend != "" {
		c.FTS.Backend = other.FTS.Backend
	}
	if len(other.FTS.PrefixSizes) > 0 {
		c.FTS.PrefixSizes = other.FTS.PrefixSizes
	}
	if other.FTS.K1 != 0 {
		c.FTS.K1 = other.FTS.K1
	}
	if other.FTS.B != 0 {
		c.FTS.B = other.FTS.B
	}
	if other.Reranker.Mode != "" {
		c.Reranker.Mode = other.Reranker.Mode
	}
	if other.Reranker.TopK != 0 {
		c.Reranker.TopK = other.Reranker.TopK
	}
	if other.Reranker.CacheSize != 0 {
		c.Reranker.CacheSize = other.Reranker.CacheSize
	}
	if other.Fuzzy.SimilarityCutoff != 0 {
		c.Fuzzy.SimilarityCutoff = other.Fuzzy.SimilarityCutoff
	}
	if other.Semantic.Mode != "" {
		c.Semantic.Mode = other.Semantic.Mode
	}
	if other.Semantic.ProviderURL != "" {
		c.Semantic.ProviderURL = other.Semantic.ProviderURL
	}
	if other.Semantic.Model != "" {
		c.Semantic.Model = other.Semantic.Model
	}
	if other.Semantic.APIKeyEnv != "" {
		c.Semantic.APIKeyEnv = other.Semantic.APIKeyEnv
	}
	if other.Semantic.Dimensions != 0 {
		c.Semantic.Dimensions = other.Semantic.Dimensions
	}
	if other.Semantic.BatchSize != 0 {
		c.Semantic.BatchSize = other.Semantic.BatchSize
	}
	if other.Semantic.Timeout != 0 {
		c.Semantic.Timeout = other.Semantic.Timeout
	}
	if other.Semantic.MaxRetries != 0 {
		c.Semantic.MaxRetries = other.Semantic.MaxRetries
	}
	if other.Watcher.Mode != "" {
		c.Watcher.Mode = other.Watcher.Mode
	}
	if other.Watcher.DebounceMS != 0 {
		c.Watcher.DebounceMS = other.Watcher.DebounceMS
	}
	if other.Watcher.QueueCap != 0 {
		c.Watcher.QueueCap = other.Watcher.QueueCap
	}
	if other.Watcher.PollFallbackInterval != 0 {
		c.Watcher.PollFallbackInterval = other.Watcher.PollFallbackInterval
	}
}

// applyEnvOverrides applies the environment variables named in spec.md §6.4.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MCP_WORKSPACE_ROOT"); v != "" {
		c.WorkspaceRoot = v
	}
	if v := os.Getenv("MCP_INDEX_STORAGE_PATH"); v != "" {
		c.CentralIndexRoot = v
	}
	if v := os.Getenv("MCP_DEBUG"); v != "" {
		// Consumed by internal/logging at startup; recorded here so callers
		// that only hold a Config can still detect the intent.
		c.Debug = strings.EqualFold(v, "true") || v == "1"
	}
	if c.Semantic.APIKeyEnv != "" {
		if _, ok := os.LookupEnv(c.Semantic.APIKeyEnv); !ok {
			// No credential present; semantic mode degrades to off at engine
			// construction time rather than failing Load.
		}
	}
	if v := os.Getenv("CODEINDEX_WORKER_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.WorkerCount = n
		}
	}
}

// Validate rejects configurations that would violate a spec invariant.
func (c *Config) Validate() error {
	if c.WorkerCount < 0 {
		return fmt.Errorf("worker_count must be >= 0")
	}
	if c.Fuzzy.SimilarityCutoff < 0 || c.Fuzzy.SimilarityCutoff > 1 {
		return fmt.Errorf("fuzzy.similarity_cutoff must be in [0,1]")
	}
	if c.Reranker.Mode != RerankerOff && c.Reranker.Mode != RerankerTFIDF {
		return fmt.Errorf("reranker.mode must be %q or %q", RerankerOff, RerankerTFIDF)
	}
	if c.Reranker.TopK > 50 {
		return fmt.Errorf("reranker.top_k must be <= 50")
	}
	if c.Semantic.Mode == SemanticOn && c.Semantic.ProviderURL == "" {
		return fmt.Errorf("semantic.provider_url is required when semantic.mode is \"on\"")
	}
	if c.FTS.Backend != BM25BackendSQLite && c.FTS.Backend != BM25BackendBleve {
		return fmt.Errorf("fts.backend must be %q or %q", BM25BackendSQLite, BM25BackendBleve)
	}
	return nil
}

// APIKey resolves the embedding provider credential named by
// Semantic.APIKeyEnv, or "" if unset.
func (c *Config) APIKey() string {
	if c.Semantic.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Semantic.APIKeyEnv)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
