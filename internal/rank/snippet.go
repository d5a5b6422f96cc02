package rank

import (
	"regexp"
	"strings"
)

// snippetWindow is the total number of tokens in a snippet, centered where
// possible on the first matching token (spec §4.7).
const snippetWindow = 20

// tokenPattern splits content into runs of word characters and runs of
// punctuation, so "TODO:" yields the tokens "TODO" and ":".
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]+|[^\s\p{L}\p{N}_]+`)

// QueryTerms extracts the plain (non-phrase, non-prefix) terms from a raw
// query string, used to find the strongest match for snippet highlighting.
func QueryTerms(query string) []string {
	fields := strings.Fields(query)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, `"*()`)
		if f != "" {
			terms = append(terms, f)
		}
	}
	return terms
}

// Snippet extracts a snippetWindow-token window of content around the first
// occurrence of any term in terms (case-insensitive), highlighting every
// matched token with delimiters[0]/delimiters[1] and marking truncation with
// "…" on either side. Tokens that were adjacent in content are joined
// without a space. It returns the 1-indexed line number of the matched
// token, or 1 when no match is found (spec §4.7).
func Snippet(content string, terms []string, delimiters [2]string) (string, int) {
	locs := tokenPattern.FindAllStringIndex(content, -1)
	if len(locs) == 0 {
		return "", 1
	}

	matchTok := firstMatch(content, locs, terms)

	start := matchTok - snippetWindow/2
	if start < 0 {
		start = 0
	}
	end := start + snippetWindow
	if end > len(locs) {
		end = len(locs)
		start = end - snippetWindow
		if start < 0 {
			start = 0
		}
	}

	lower := make(map[string]bool, len(terms))
	for _, t := range terms {
		lower[strings.ToLower(t)] = true
	}

	var b strings.Builder
	if start > 0 {
		b.WriteString("… ")
	}
	for i := start; i < end; i++ {
		if i > start && locs[i][0] > locs[i-1][1] {
			b.WriteByte(' ')
		}
		tok := content[locs[i][0]:locs[i][1]]
		if lower[strings.ToLower(tok)] {
			b.WriteString(delimiters[0])
			b.WriteString(tok)
			b.WriteString(delimiters[1])
		} else {
			b.WriteString(tok)
		}
	}
	if end < len(locs) {
		b.WriteString(" …")
	}

	line := 1
	if lower[strings.ToLower(content[locs[matchTok][0]:locs[matchTok][1]])] {
		line = lineOf(content, locs[matchTok][0])
	}
	return b.String(), line
}

// firstMatch returns the index into locs of the first token matching any of
// terms, or 0 (start of content) when no match is found.
func firstMatch(content string, locs [][]int, terms []string) int {
	if len(terms) == 0 {
		return 0
	}
	lower := make([]string, len(terms))
	for i, t := range terms {
		lower[i] = strings.ToLower(t)
	}
	for i, loc := range locs {
		tok := strings.ToLower(content[loc[0]:loc[1]])
		for _, t := range lower {
			if tok == t {
				return i
			}
		}
	}
	return 0
}

// lineOf returns the 1-indexed line number of byte offset in content.
func lineOf(content string, offset int) int {
	return 1 + strings.Count(content[:offset], "\n")
}
