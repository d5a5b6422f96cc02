// Package rank implements FTS query construction, BM25 score normalization,
// snippet extraction, and the optional TF-IDF reranker (spec C7), grounded on
// the teacher's internal/search package (fusion.go's rank-based scoring,
// reranker.go's Reranker interface shape).
package rank

import (
	"regexp"
	"strings"
)

// identifierToken matches tokens eligible for the filename-boost duplication
// (spec §4.7: "looks like an identifier").
var identifierToken = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{2,}$`)

// specialChars are the characters that mark a token as a verbatim phrase or
// prefix expression, passed through to the FTS engine unescaped.
const specialChars = `"*()`

// BuildMatchExpr turns a free-text query into an FTS5 MATCH expression
// (spec §4.7 query construction):
//   - whitespace-separated tokens are AND-combined by default
//   - tokens containing ", *, (, ) pass through verbatim (phrase/prefix matching);
//     a quoted phrase with spaces inside is kept as one token
//   - identifier-shaped tokens are additionally boosted via a duplicated
//     "filename:<token>" clause
func BuildMatchExpr(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}

	clauses := make([]string, 0, len(fields))
	for i := 0; i < len(fields); i++ {
		tok := fields[i]
		// Re-join a quoted phrase that strings.Fields split at its spaces.
		for strings.HasPrefix(tok, `"`) && strings.Count(tok, `"`)%2 == 1 && i+1 < len(fields) {
			i++
			tok += " " + fields[i]
		}
		if strings.ContainsAny(tok, specialChars) {
			clauses = append(clauses, tok)
			continue
		}
		if identifierToken.MatchString(tok) {
			clauses = append(clauses, "("+tok+" OR filename:"+tok+")")
		} else {
			clauses = append(clauses, tok)
		}
	}
	return strings.Join(clauses, " AND ")
}
