// Package lang maps source files to a language tag and, for languages with a
// tree-sitter grammar, extracts symbols using the Query API (spec C3).
// References are not extracted: Extracted.References is always empty.
// Plain-text and unsupported languages fall back to a no-symbol
// identity adapter in internal/plugin rather than failing the pipeline.
package lang
