package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ReferencesTo returns every reference row pointing at symbolID, joined
// against files for the caller's FilePath (spec C2 find_references).
func (s *Store) ReferencesTo(ctx context.Context, symbolID int64, limit int) ([]Reference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.symbol_id, r.file_id, r.line, r.column, r.kind
		FROM symbol_references r
		WHERE r.symbol_id = ?
		ORDER BY r.file_id, r.line
		LIMIT ?`, symbolID, limit)
	if err != nil {
		return nil, fmt.Errorf("query references: %w", err)
	}
	defer rows.Close()

	var out []Reference
	for rows.Next() {
		var r Reference
		var symID sql.NullInt64
		if err := rows.Scan(&r.ID, &symID, &r.FileID, &r.Line, &r.Column, &r.Kind); err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		if symID.Valid {
			id := symID.Int64
			r.SymbolID = &id
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SymbolByID fetches one symbol row by its primary key, joined against its
// file for path/language, or nil if absent.
func (s *Store) SymbolByID(ctx context.Context, id int64) (*SymbolMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT sy.id, sy.file_id, sy.name, sy.kind, COALESCE(sy.signature,''), COALESCE(sy.doc,''),
		       sy.start_line, sy.end_line, sy.column, sy.parent_id,
		       f.relative_path, COALESCE(f.language, '')
		FROM symbols sy JOIN files f ON f.id = sy.file_id
		WHERE sy.id = ?`, id)

	var m SymbolMatch
	var kind string
	var parentID sql.NullInt64
	err := row.Scan(&m.ID, &m.FileID, &m.Name, &kind, &m.Signature, &m.Doc,
		&m.StartLine, &m.EndLine, &m.Column, &parentID, &m.FilePath, &m.Language)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan symbol by id: %w", err)
	}
	m.Kind = SymbolKind(kind)
	if parentID.Valid {
		pid := parentID.Int64
		m.ParentID = &pid
	}
	m.Similarity = 1.0
	return &m, nil
}
