package lang

import (
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Tag names one of the languages this build can parse symbols from.
// "" (Unknown) and "plaintext" both degrade to the identity adapter.
type Tag string

const (
	Unknown    Tag = ""
	Go         Tag = "go"
	TypeScript Tag = "typescript"
	TSX        Tag = "tsx"
	JavaScript Tag = "javascript"
	JSX        Tag = "jsx"
	Python     Tag = "python"
	Rust       Tag = "rust"
	Java       Tag = "java"
	C          Tag = "c"
	Cpp        Tag = "cpp"
	Plaintext  Tag = "plaintext"
)

// Definition pairs a tag with its tree-sitter grammar and fixed query
// source (spec C3: query vocabulary is @function/@method/@class/etc,
// identical across languages so the dispatcher never branches on tag).
type Definition struct {
	Tag         Tag
	Extensions  []string
	Grammar     *sitter.Language
	QuerySource string
}

// Registry maps extensions/filenames to Definitions. Grounded on the
// teacher's internal/chunk/languages.go LanguageRegistry, generalized from
// node-type tables to tree-sitter Query sources (see queries.go).
type Registry struct {
	mu        sync.RWMutex
	byTag     map[Tag]*Definition
	byExt     map[string]Tag
	byFile    map[string]Tag // exact filename matches, e.g. "Dockerfile"
}

// NewDefaultRegistry registers every language this build ships queries for.
func NewDefaultRegistry() *Registry {
	r := &Registry{
		byTag:  make(map[Tag]*Definition),
		byExt:  make(map[string]Tag),
		byFile: make(map[string]Tag),
	}
	r.register(&Definition{Tag: Go, Extensions: []string{".go"}, Grammar: golang.GetLanguage(), QuerySource: goQuery})
	r.register(&Definition{Tag: TypeScript, Extensions: []string{".ts"}, Grammar: typescript.GetLanguage(), QuerySource: tsQuery})
	r.register(&Definition{Tag: TSX, Extensions: []string{".tsx"}, Grammar: tsx.GetLanguage(), QuerySource: tsQuery})
	r.register(&Definition{Tag: JavaScript, Extensions: []string{".js", ".mjs", ".cjs"}, Grammar: javascript.GetLanguage(), QuerySource: jsQuery})
	r.register(&Definition{Tag: JSX, Extensions: []string{".jsx"}, Grammar: javascript.GetLanguage(), QuerySource: jsQuery})
	r.register(&Definition{Tag: Python, Extensions: []string{".py", ".pyi"}, Grammar: python.GetLanguage(), QuerySource: pyQuery})
	r.register(&Definition{Tag: Rust, Extensions: []string{".rs"}, Grammar: rust.GetLanguage(), QuerySource: rustQuery})
	r.register(&Definition{Tag: Java, Extensions: []string{".java"}, Grammar: java.GetLanguage(), QuerySource: javaQuery})
	r.register(&Definition{Tag: C, Extensions: []string{".c", ".h"}, Grammar: c.GetLanguage(), QuerySource: cQuery})
	r.register(&Definition{Tag: Cpp, Extensions: []string{".cc", ".cpp", ".cxx", ".hpp", ".hh"}, Grammar: cpp.GetLanguage(), QuerySource: cppQuery})
	return r
}

func (r *Registry) register(def *Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byTag[def.Tag] = def
	for _, ext := range def.Extensions {
		r.byExt[ext] = def.Tag
	}
}

// Detect returns the Tag for a file: an exact-filename entry in byFile first
// (NewDefaultRegistry registers none), then the extension, falling back to
// Plaintext.
// ".env"/".env.*" files are tagged Plaintext explicitly (spec §4.3: treated
// as key-value text, never parsed for symbols, and always export-excluded
// regardless of user ignore rules — see internal/ignore/sensitive.go).
func (r *Registry) Detect(filename string) Tag {
	base := filename
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	lower := strings.ToLower(base)

	if lower == ".env" || strings.HasPrefix(lower, ".env.") {
		return Plaintext
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if tag, ok := r.byFile[lower]; ok {
		return tag
	}

	ext := extOf(lower)
	if tag, ok := r.byExt[ext]; ok {
		return tag
	}
	return Plaintext
}

// Lookup returns the Definition for tag, if this build has one.
func (r *Registry) Lookup(tag Tag) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byTag[tag]
	return def, ok
}

func extOf(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return ""
	}
	return name[idx:]
}
