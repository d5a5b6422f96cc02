package lang

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codeindex-mcp/codeindex/internal/store"
)

// maxSignatureLen truncates symbol signatures to keep the symbols table and
// search snippets compact (spec §4.3: "200-char signature truncation").
const maxSignatureLen = 200

// Extracted is one parsed file's symbols/references, ready for
// store.ReplaceSymbols (SymbolIndex refers to the position in Symbols).
type Extracted struct {
	Symbols    []store.Symbol
	References []store.PendingReference
}

// Extractor parses one language's source with its fixed Query and converts
// tree-sitter matches into the engine's Symbol/Reference shape. One
// Extractor per Definition is cheap to build and is not goroutine-safe
// (tree-sitter parsers aren't); internal/plugin owns per-language pooling.
type Extractor struct {
	def    *Definition
	parser *sitter.Parser
	query  *sitter.Query
}

// NewExtractor compiles def's query against its grammar.
func NewExtractor(def *Definition) (*Extractor, error) {
	q, err := sitter.NewQuery([]byte(def.QuerySource), def.Grammar)
	if err != nil {
		return nil, fmt.Errorf("compile query for %s: %w", def.Tag, err)
	}
	p := sitter.NewParser()
	p.SetLanguage(def.Grammar)
	return &Extractor{def: def, parser: p, query: q}, nil
}

// Close releases the underlying tree-sitter parser.
func (e *Extractor) Close() { e.parser.Close() }

// Extract parses source and walks every query match, producing one Symbol
// per @function/@method/@class/@interface/@type/@constant/@variable/@struct
// capture and folding its paired *.name capture into Symbol.Name.
func (e *Extractor) Extract(ctx context.Context, source []byte) (Extracted, error) {
	tree, err := e.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return Extracted{}, fmt.Errorf("parse %s source: %w", e.def.Tag, err)
	}
	if tree == nil {
		return Extracted{}, fmt.Errorf("parse %s source: nil tree", e.def.Tag)
	}
	defer tree.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(e.query, tree.RootNode())

	var out Extracted
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		match = cursor.FilterPredicates(match, source)
		sym, ok := e.symbolFromMatch(match, source)
		if !ok {
			continue
		}
		out.Symbols = append(out.Symbols, sym)
	}
	return out, nil
}

func (e *Extractor) symbolFromMatch(match *sitter.QueryMatch, source []byte) (store.Symbol, bool) {
	var outer *sitter.Node
	var outerCapture string
	var name string

	for _, c := range match.Captures {
		capName := e.query.CaptureNameForId(c.Index)
		if strings.HasSuffix(capName, ".name") {
			name = string(c.Node.Content(source))
			continue
		}
		// The outer capture (e.g. "function", "method") has no dot suffix.
		if !strings.Contains(capName, ".") {
			outer = c.Node
			outerCapture = capName
		}
	}
	if outer == nil || name == "" {
		return store.Symbol{}, false
	}

	kind := kindForCapture(outerCapture)
	if kind == store.KindFunction && isNestedInClass(outer) {
		kind = store.KindMethod
	}

	sig := firstLine(outer.Content(source))
	if len(sig) > maxSignatureLen {
		sig = sig[:maxSignatureLen]
	}

	return store.Symbol{
		Name:      name,
		Kind:      kind,
		Signature: sig,
		Doc:       leadingDocComment(outer, source),
		StartLine: int(outer.StartPoint().Row) + 1,
		EndLine:   int(outer.EndPoint().Row) + 1,
		Column:    int(outer.StartPoint().Column),
	}, true
}

func kindForCapture(capture string) store.SymbolKind {
	switch capture {
	case "function":
		return store.KindFunction
	case "method":
		return store.KindMethod
	case "class":
		return store.KindClass
	case "interface":
		return store.KindInterface
	case "struct":
		return store.KindStruct
	case "type":
		return store.KindType
	case "constant":
		return store.KindConstant
	case "variable":
		return store.KindVariable
	default:
		return store.KindSymbol
	}
}

// isNestedInClass walks up from a function_definition node to decide
// whether it sits directly inside a class body, promoting the capture from
// function to method. Needed for Python, where the grammar has no distinct
// "method" node type (spec §4.3 notes this per the teacher's
// internal/chunk/languages.go Python MethodTypes being empty).
func isNestedInClass(n *sitter.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if strings.Contains(p.Type(), "class") {
			return true
		}
		// Stop at the nearest function/method boundary so a closure
		// defined inside a method isn't itself called a method.
		if strings.Contains(p.Type(), "function") {
			return false
		}
	}
	return false
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

// leadingDocComment collects the run of comment siblings immediately
// preceding n, matching spec §4.3's "doc-comment leading-run extraction".
func leadingDocComment(n *sitter.Node, source []byte) string {
	parent := n.Parent()
	if parent == nil {
		return ""
	}

	var idx int = -1
	for i := 0; i < int(parent.ChildCount()); i++ {
		if parent.Child(i) == n {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return ""
	}

	var lines []string
	for i := idx - 1; i >= 0; i-- {
		sib := parent.Child(i)
		if sib == nil || !strings.Contains(sib.Type(), "comment") {
			break
		}
		lines = append([]string{string(sib.Content(source))}, lines...)
	}
	return strings.Join(lines, "\n")
}
