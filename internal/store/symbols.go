package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/codeindex-mcp/codeindex/internal/engineerr"
)

// ReplaceSymbols atomically deletes the existing symbol/reference/trigram
// rows for fileID and inserts syms and refs in their place (spec §4.2
// replace_symbols: "one transaction per file, never partial"). refs whose
// SymbolID refers to a symbol by its index into syms (via SymbolIndex) are
// rewritten to the newly-assigned database ids.
func (s *Store) ReplaceSymbols(ctx context.Context, fileID int64, syms []Symbol, refs []PendingReference) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return replaceSymbolsTx(ctx, tx, fileID, syms, refs)
	})
}

func replaceSymbolsTx(ctx context.Context, tx *sql.Tx, fileID int64, syms []Symbol, refs []PendingReference) error {
	{
		if _, err := tx.ExecContext(ctx, `DELETE FROM symbols WHERE file_id = ?`, fileID); err != nil {
			return fmt.Errorf("delete old symbols: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM fts_symbols WHERE rowid IN (
			SELECT id FROM symbols WHERE file_id = ?)`, fileID); err != nil {
			return fmt.Errorf("delete old fts symbol rows: %w", err)
		}

		ids := make([]int64, len(syms))
		for i, sym := range syms {
			var parentID interface{}
			if sym.ParentID != nil {
				parentID = *sym.ParentID
			}
			res, err := tx.ExecContext(ctx, `
				INSERT INTO symbols(file_id, name, kind, signature, doc, start_line, end_line, column, parent_id)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				fileID, sym.Name, string(sym.Kind), nullIfEmpty(sym.Signature), nullIfEmpty(sym.Doc),
				sym.StartLine, sym.EndLine, sym.Column, parentID)
			if err != nil {
				return fmt.Errorf("insert symbol %q: %w", sym.Name, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("read symbol id: %w", err)
			}
			ids[i] = id

			if _, err := tx.ExecContext(ctx,
				`INSERT INTO fts_symbols(rowid, name, signature, doc) VALUES (?, ?, ?, ?)`,
				id, sym.Name, sym.Signature, sym.Doc); err != nil {
				return fmt.Errorf("insert fts symbol row: %w", err)
			}

			for _, tri := range trigramsOf(sym.Name) {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO symbol_trigrams(symbol_id, trigram) VALUES (?, ?)`, id, tri); err != nil {
					return fmt.Errorf("insert trigram: %w", err)
				}
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM symbol_references WHERE file_id = ?`, fileID); err != nil {
			return fmt.Errorf("delete old references: %w", err)
		}
		for _, ref := range refs {
			var symbolID interface{}
			if ref.SymbolIndex >= 0 && ref.SymbolIndex < len(ids) {
				symbolID = ids[ref.SymbolIndex]
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO symbol_references(symbol_id, file_id, line, column, kind) VALUES (?, ?, ?, ?, ?)`,
				symbolID, fileID, ref.Line, ref.Column, string(ref.Kind)); err != nil {
				return fmt.Errorf("insert reference: %w", err)
			}
		}
		return nil
	}
}

// PendingReference is a reference awaiting symbol-id resolution within the
// same ReplaceSymbols transaction. SymbolIndex is -1 for unresolved
// references (e.g. calls to symbols outside this file).
type PendingReference struct {
	SymbolIndex int
	Line        int
	Column      int
	Kind        ReferenceKind
}

// QuerySymbol resolves name against the symbols table. It first tries an
// exact name match; when none exists and fuzzy is true, it falls back to
// trigram-similarity matching gated by cutoff (spec §4.6 fuzzy fallback).
// Exact matches are ordered by KindPriority; fuzzy matches by similarity
// descending, then KindPriority.
func (s *Store) QuerySymbol(ctx context.Context, name string, fuzzy bool, cutoff float64, limit int) ([]SymbolMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exact, err := s.queryExactSymbol(ctx, name, limit)
	if err != nil {
		return nil, err
	}
	if len(exact) > 0 || !fuzzy {
		return exact, nil
	}
	return s.queryFuzzySymbol(ctx, name, cutoff, limit)
}

func (s *Store) queryExactSymbol(ctx context.Context, name string, limit int) ([]SymbolMatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sy.id, sy.file_id, sy.name, sy.kind, COALESCE(sy.signature,''), COALESCE(sy.doc,''),
		       sy.start_line, sy.end_line, sy.column, sy.parent_id,
		       f.relative_path, COALESCE(f.language, '')
		FROM symbols sy JOIN files f ON f.id = sy.file_id
		WHERE sy.name = ?
		LIMIT ?`, name, limit)
	if err != nil {
		return nil, fmt.Errorf("query exact symbol: %w", err)
	}
	defer rows.Close()

	matches, err := scanSymbolMatches(rows, 1.0)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return KindPriority(matches[i].Kind) < KindPriority(matches[j].Kind)
	})
	return matches, nil
}

func (s *Store) queryFuzzySymbol(ctx context.Context, name string, cutoff float64, limit int) ([]SymbolMatch, error) {
	queryTrigrams := trigramsOf(name)
	if len(queryTrigrams) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(queryTrigrams))
	args := make([]interface{}, len(queryTrigrams))
	for i, t := range queryTrigrams {
		placeholders[i] = "?"
		args[i] = t
	}

	query := fmt.Sprintf(`
		SELECT sy.id, sy.file_id, sy.name, sy.kind, COALESCE(sy.signature,''), COALESCE(sy.doc,''),
		       sy.start_line, sy.end_line, sy.column, sy.parent_id,
		       f.relative_path, COALESCE(f.language, ''), COUNT(*) AS overlap
		FROM symbol_trigrams st
		JOIN symbols sy ON sy.id = st.symbol_id
		JOIN files f ON f.id = sy.file_id
		WHERE st.trigram IN (%s)
		GROUP BY sy.id
		ORDER BY overlap DESC
		LIMIT ?`, joinPlaceholders(placeholders))
	args = append(args, limit*4) // over-fetch, then filter by Jaccard below

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query fuzzy symbol: %w", err)
	}
	defer rows.Close()

	var matches []SymbolMatch
	for rows.Next() {
		var m SymbolMatch
		var kind string
		var parentID sql.NullInt64
		var overlap int
		if err := rows.Scan(&m.ID, &m.FileID, &m.Name, &kind, &m.Signature, &m.Doc,
			&m.StartLine, &m.EndLine, &m.Column, &parentID, &m.FilePath, &m.Language, &overlap); err != nil {
			return nil, fmt.Errorf("scan fuzzy symbol: %w", err)
		}
		m.Kind = SymbolKind(kind)
		if parentID.Valid {
			id := parentID.Int64
			m.ParentID = &id
		}
		candidateTrigrams := trigramsOf(m.Name)
		m.Similarity = jaccard(queryTrigrams, candidateTrigrams, overlap)
		if m.Similarity >= cutoff {
			matches = append(matches, m)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return KindPriority(matches[i].Kind) < KindPriority(matches[j].Kind)
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func scanSymbolMatches(rows *sql.Rows, similarity float64) ([]SymbolMatch, error) {
	var out []SymbolMatch
	for rows.Next() {
		var m SymbolMatch
		var kind string
		var parentID sql.NullInt64
		if err := rows.Scan(&m.ID, &m.FileID, &m.Name, &kind, &m.Signature, &m.Doc,
			&m.StartLine, &m.EndLine, &m.Column, &parentID, &m.FilePath, &m.Language); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		m.Kind = SymbolKind(kind)
		if parentID.Valid {
			id := parentID.Int64
			m.ParentID = &id
		}
		m.Similarity = similarity
		out = append(out, m)
	}
	return out, rows.Err()
}

func joinPlaceholders(ps []string) string {
	out := ""
	for i, p := range ps {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

// schemaMismatchHint wraps a low-level scan error with the engine's
// structural error code when the symbols table itself is missing, which
// only happens against a stale or foreign artifact.
func schemaMismatchHint(err error) error {
	return engineerr.Structural(engineerr.CodeCorruptArtifact, "symbols table unreadable", err)
}
