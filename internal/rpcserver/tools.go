package rpcserver

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SymbolLookupInput is the symbol_lookup tool's argument shape (spec §6.1).
type SymbolLookupInput struct {
	Symbol string `json:"symbol" jsonschema:"the symbol name to look up"`
	Fuzzy  bool   `json:"fuzzy,omitempty" jsonschema:"fall back to trigram-similarity matching when no exact match exists"`
}

// SymbolLookupOutput is the symbol_lookup tool's result shape (spec §6.1).
type SymbolLookupOutput struct {
	Symbol     string `json:"symbol"`
	Kind       string `json:"kind"`
	Language   string `json:"language"`
	DefinedIn  string `json:"defined_in"`
	Line       int    `json:"line"`
	Signature  string `json:"signature"`
	Doc        string `json:"doc,omitempty"`
}

func (s *Server) symbolLookupHandler(ctx context.Context, _ *mcp.CallToolRequest, input SymbolLookupInput) (
	*mcp.CallToolResult,
	*SymbolLookupOutput,
	error,
) {
	if strings.TrimSpace(input.Symbol) == "" {
		return nil, nil, newInvalidParamsError("symbol is required")
	}

	match, err := s.engine.SymbolLookup(ctx, input.Symbol, input.Fuzzy)
	if err != nil {
		return nil, nil, mapError(err)
	}
	if match == nil {
		// Spec §6.1: "empty content on miss" -- a nil result, not an error.
		return nil, nil, nil
	}

	return nil, &SymbolLookupOutput{
		Symbol:    match.Name,
		Kind:      string(match.Kind),
		Language:  match.Language,
		DefinedIn: match.FilePath,
		Line:      match.StartLine,
		Signature: match.Signature,
		Doc:       match.Doc,
	}, nil
}

// SearchCodeInput is the search_code tool's argument shape (spec §6.1).
type SearchCodeInput struct {
	Query    string `json:"query" jsonschema:"the search query"`
	Semantic bool   `json:"semantic,omitempty" jsonschema:"prefer the dense-vector side-index over plain full text, when available"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 20, max 100"`
}

// SearchCodeResult is one element of the search_code tool's result array.
type SearchCodeResult struct {
	File     string  `json:"file"`
	Line     int     `json:"line"`
	Snippet  string  `json:"snippet"`
	Score    float64 `json:"score"`
	Language string  `json:"language"`
}

// SearchCodeOutput wraps the search_code tool's result array; the MCP SDK
// requires a struct (not a bare slice) as a tool's structured output type.
type SearchCodeOutput struct {
	Results []SearchCodeResult `json:"results"`
}

func (s *Server) searchCodeHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchCodeInput) (
	*mcp.CallToolResult,
	SearchCodeOutput,
	error,
) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchCodeOutput{}, newInvalidParamsError("query is required")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	hits, err := s.engine.SearchCode(ctx, input.Query, input.Semantic, limit)
	if err != nil {
		return nil, SearchCodeOutput{}, mapError(err)
	}

	out := SearchCodeOutput{Results: make([]SearchCodeResult, 0, len(hits))}
	for _, h := range hits {
		out.Results = append(out.Results, SearchCodeResult{
			File:     h.FilePath,
			Line:     h.Line,
			Snippet:  h.Snippet,
			Score:    h.Score,
			Language: h.Language,
		})
	}
	return nil, out, nil
}

// GetStatusInput is the get_status tool's argument shape (spec §6.1): no
// arguments.
type GetStatusInput struct{}

// GetStatusOutput is the get_status tool's result shape (spec §6.1).
type GetStatusOutput struct {
	IndexPath       string         `json:"index_path"`
	FileCount       int            `json:"file_count"`
	Languages       map[string]int `json:"languages"`
	LastIndexed     *string        `json:"last_indexed"`
	SemanticEnabled bool           `json:"semantic_enabled"`
}

func (s *Server) getStatusHandler(ctx context.Context, _ *mcp.CallToolRequest, _ GetStatusInput) (
	*mcp.CallToolResult,
	GetStatusOutput,
	error,
) {
	status, err := s.engine.GetStatus(ctx)
	if err != nil {
		return nil, GetStatusOutput{}, mapError(err)
	}

	out := GetStatusOutput{
		IndexPath:       status.IndexPath,
		FileCount:       status.FileCount,
		Languages:       status.Languages,
		SemanticEnabled: status.SemanticEnabled,
	}
	if status.LastIndexed != nil {
		ts := status.LastIndexed.UTC().Format(rfc3339Milli)
		out.LastIndexed = &ts
	}
	return nil, out, nil
}

// rfc3339Milli matches the teacher's convention for timestamps surfaced
// across the wire (millisecond precision is enough for "when was this
// indexed", and avoids the monotonic-reading noise time.Time's default
// String()/MarshalJSON would otherwise carry).
const rfc3339Milli = "2006-01-02T15:04:05.000Z07:00"

// ReindexInput is the reindex tool's argument shape (spec §6.1).
type ReindexInput struct {
	Path string `json:"path,omitempty" jsonschema:"relative path to reindex; omit to reindex the whole workspace"`
}

// ReindexOutput is the reindex tool's result shape (spec §6.1).
type ReindexOutput struct {
	Indexed int `json:"indexed"`
	Failed  int `json:"failed"`
}

func (s *Server) reindexHandler(ctx context.Context, _ *mcp.CallToolRequest, input ReindexInput) (
	*mcp.CallToolResult,
	ReindexOutput,
	error,
) {
	stats, err := s.engine.Reindex(ctx, input.Path, s.reindexDeadline())
	if err != nil {
		return nil, ReindexOutput{}, mapError(err)
	}
	return nil, ReindexOutput{Indexed: stats.Indexed, Failed: stats.Failed}, nil
}
