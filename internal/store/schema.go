package store

// schemaDDL creates every table in the logical schema of spec.md §4.2 at
// CurrentSchemaVersion. FTS5 virtual tables back `fts_symbols` (substring/
// stemmed symbol search) and `bm25_content` (primary content search, Porter
// tokenizer, 2-3 char prefix index per spec).
const schemaDDL = `
PRAGMA journal_mode = WAL;
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS repositories (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	fingerprint TEXT NOT NULL UNIQUE,
	root_path TEXT NOT NULL,
	name TEXT NOT NULL,
	first_seen DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	repo_id INTEGER NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
	relative_path TEXT NOT NULL,
	absolute_path TEXT NOT NULL,
	language TEXT,
	size INTEGER NOT NULL DEFAULT 0,
	content_hash TEXT NOT NULL,
	indexed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	truncated INTEGER NOT NULL DEFAULT 0,
	non_utf8 INTEGER NOT NULL DEFAULT 0,
	UNIQUE(repo_id, relative_path)
);
CREATE INDEX IF NOT EXISTS idx_files_repo ON files(repo_id);

CREATE TABLE IF NOT EXISTS symbols (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	signature TEXT,
	doc TEXT,
	start_line INTEGER NOT NULL,
	end_line INTEGER NOT NULL,
	column INTEGER NOT NULL DEFAULT 0,
	parent_id INTEGER REFERENCES symbols(id) ON DELETE SET NULL,
	UNIQUE(file_id, name, kind, start_line)
);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_id);
CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind);

CREATE TABLE IF NOT EXISTS symbol_references (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol_id INTEGER REFERENCES symbols(id) ON DELETE CASCADE,
	file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
	line INTEGER NOT NULL,
	column INTEGER NOT NULL DEFAULT 0,
	kind TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_refs_symbol ON symbol_references(symbol_id);
CREATE INDEX IF NOT EXISTS idx_refs_file ON symbol_references(file_id);

CREATE TABLE IF NOT EXISTS symbol_trigrams (
	symbol_id INTEGER NOT NULL REFERENCES symbols(id) ON DELETE CASCADE,
	trigram TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trigrams_trigram ON symbol_trigrams(trigram);
CREATE INDEX IF NOT EXISTS idx_trigrams_symbol ON symbol_trigrams(symbol_id);

CREATE VIRTUAL TABLE IF NOT EXISTS fts_symbols USING fts5(
	name, signature, doc,
	content='',
	tokenize='porter unicode61'
);

CREATE VIRTUAL TABLE IF NOT EXISTS bm25_content USING fts5(
	filepath, filename, content, language,
	tokenize='porter unicode61',
	prefix='2 3'
);

CREATE TABLE IF NOT EXISTS bm25_index_status (
	file_id INTEGER PRIMARY KEY REFERENCES files(id) ON DELETE CASCADE,
	filepath TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	indexed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// migrations maps a schema version to the statements that bring an artifact
// from version-1 up to that version. Version 1 is created directly by
// schemaDDL; entries here start at 2.
var migrations = map[int]string{
	// No migrations yet: CurrentSchemaVersion is 1. Future schema changes
	// append here, e.g. migrations[2] = "ALTER TABLE files ADD COLUMN ...".
}
