// Package store is the on-disk storage engine (spec C2): schema management,
// file/symbol/reference CRUD, and the inverted full-text (BM25) index, all
// backed by an embedded relational engine with FTS extensions
// (modernc.org/sqlite, a pure-Go SQLite driver — chosen the same way the
// teacher repo chose it, to get concurrent multi-process WAL access without
// cgo).
package store

import "time"

// CurrentSchemaVersion is the schema version this build writes and expects.
// open_or_init fails fast when an artifact's stored version exceeds this.
const CurrentSchemaVersion = 1

// SymbolKind is one of the fixed kinds named in spec.md §3.
type SymbolKind string

const (
	KindClass     SymbolKind = "class"
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindVariable  SymbolKind = "variable"
	KindConstant  SymbolKind = "constant"
	KindInterface SymbolKind = "interface"
	KindType      SymbolKind = "type"
	KindEnum      SymbolKind = "enum"
	KindStruct    SymbolKind = "struct"
	KindModule    SymbolKind = "module"
	KindField     SymbolKind = "field"
	KindParameter SymbolKind = "parameter"
	KindMacro     SymbolKind = "macro"
	KindTrait     SymbolKind = "trait"
	KindPackage   SymbolKind = "package"
	KindNamespace SymbolKind = "namespace"
	KindSymbol    SymbolKind = "symbol"
)

// kindPriority implements the dispatcher tie-break order of spec §4.6:
// class > function > method > struct > interface > type > variable > other.
var kindPriority = map[SymbolKind]int{
	KindClass:     0,
	KindFunction:  1,
	KindMethod:    2,
	KindStruct:    3,
	KindInterface: 4,
	KindType:      5,
	KindVariable:  6,
}

// KindPriority returns the tie-break rank for k; unlisted kinds sort last.
func KindPriority(k SymbolKind) int {
	if p, ok := kindPriority[k]; ok {
		return p
	}
	return len(kindPriority)
}

// ReferenceKind is one of the fixed kinds named in spec.md §3.
type ReferenceKind string

const (
	RefCall    ReferenceKind = "call"
	RefImport  ReferenceKind = "import"
	RefInherit ReferenceKind = "inherit"
	RefUse     ReferenceKind = "use"
	RefOther   ReferenceKind = "other"
)

// File is a row of the `files` table (spec §3 File).
type File struct {
	ID            int64
	RepoID        int64
	RelativePath  string
	AbsolutePath  string
	Language      string // "" means undetected
	Size          int64
	ContentHash   string
	IndexedAt     time.Time
	Truncated     bool // true when content exceeded the 10MB FTS cap
	NonUTF8       bool // true when decode failed (binary file)
}

// Symbol is a row of the `symbols` table (spec §3 Symbol).
type Symbol struct {
	ID         int64
	FileID     int64
	Name       string
	Kind       SymbolKind
	Signature  string
	Doc        string
	StartLine  int
	EndLine    int
	Column     int
	ParentID   *int64

	// Populated on read paths that join against files, not persisted here.
	FilePath string
	Language string
}

// Reference is a row of the `symbol_references` table (spec §3 Reference).
type Reference struct {
	ID       int64
	SymbolID *int64 // nullable: unresolved reference
	FileID   int64
	Line     int
	Column   int
	Kind     ReferenceKind
}

// Repository is a row of the `repositories` table.
type Repository struct {
	ID          int64
	Fingerprint string
	RootPath    string
	Name        string
	FirstSeen   time.Time
}

// FTSHit is a raw row returned from a bm25_content MATCH query, before
// ranking/snippet post-processing (owned by internal/rank).
type FTSHit struct {
	FilePath string
	FileName string
	Content  string
	Language string
	// Rank is the FTS engine's native bm25() rank (negative = more relevant
	// in SQLite FTS5's convention; callers normalize via math.Abs).
	Rank float64
}

// SymbolMatch is a row returned from a symbol query (exact or fuzzy),
// already joined against files for FilePath/Language.
type SymbolMatch struct {
	Symbol
	Similarity float64 // 1.0 for exact matches, trigram Jaccard for fuzzy
}

// IndexMetadata is the sidecar JSON record described in spec §6.2.
type IndexMetadata struct {
	SchemaVersion int                `json:"schema_version"`
	CreatedAt     time.Time          `json:"created_at"`
	Branch        string             `json:"branch"`
	Commit        string             `json:"commit"`
	Counts        IndexMetadataCounts `json:"counts"`
	Languages     map[string]int     `json:"languages"`
	ToolVersion   string             `json:"tool_version"`
}

// IndexMetadataCounts is the `counts` object of IndexMetadata.
type IndexMetadataCounts struct {
	Files   int `json:"files"`
	Symbols int `json:"symbols"`
	FTSRows int `json:"fts_rows"`
}
