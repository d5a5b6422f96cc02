package rank

import (
	"math"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// maxRerankContentChars bounds how much of a hit's content contributes to
// its TF-IDF document vector (spec §4.7: "first 500 chars of content").
const maxRerankContentChars = 500

// Reranker is the optional local TF-IDF cosine reranker (spec §4.7),
// grounded on the teacher's search.Reranker interface shape
// (internal/search/reranker.go) but implemented without a network call —
// the teacher's variant talks to a cross-encoder service, this one never
// leaves the process.
type Reranker struct {
	topK int

	mu    sync.Mutex
	cache *lru.Cache[cacheKey, float64]
}

type cacheKey struct {
	queryHash string
	path      string
}

// NewReranker returns a Reranker that reranks at most topK results (topK
// must be <= 50 per spec §4.7) and caches (query, path) scores in a bounded
// LRU of the given size.
func NewReranker(topK, cacheSize int) *Reranker {
	cache, _ := lru.New[cacheKey, float64](cacheSize)
	return &Reranker{topK: topK, cache: cache}
}

// Rerank reorders hits by TF-IDF cosine similarity to query, over at most
// r.topK of them, and sets RerankScore/Reranked on the returned slice.
func (r *Reranker) Rerank(query string, hits []Hit) []Hit {
	n := len(hits)
	if n > r.topK {
		n = r.topK
	}
	if n == 0 {
		return hits
	}

	head := hits[:n]
	tail := hits[n:]

	docs := make([][]string, n)
	for i, h := range head {
		docs[i] = tokenize(docText(h))
	}
	idf := computeIDF(docs)
	queryVec := tfidf(tokenize(query), idf)
	queryHash := hashTerms(query)

	scored := make([]Hit, n)
	for i, h := range head {
		key := cacheKey{queryHash: queryHash, path: h.FilePath}
		score, ok := r.cachedScore(key)
		if !ok {
			docVec := tfidf(docs[i], idf)
			score = cosine(queryVec, docVec)
			r.storeScore(key, score)
		}
		h.RerankScore = score
		h.Reranked = true
		scored[i] = h
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RerankScore > scored[j].RerankScore
	})

	return append(scored, tail...)
}

func (r *Reranker) cachedScore(key cacheKey) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Get(key)
}

func (r *Reranker) storeScore(key cacheKey, score float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Add(key, score)
}

func docText(h Hit) string {
	text := h.FilePath + " " + h.Snippet
	if len(text) > maxRerankContentChars {
		text = text[:maxRerankContentChars]
	}
	return text
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

func computeIDF(docs [][]string) map[string]float64 {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, tok := range doc {
			if !seen[tok] {
				df[tok]++
				seen[tok] = true
			}
		}
	}
	idf := make(map[string]float64, len(df))
	n := float64(len(docs))
	for tok, count := range df {
		idf[tok] = math.Log(1 + n/float64(count))
	}
	return idf
}

func tfidf(tokens []string, idf map[string]float64) map[string]float64 {
	tf := make(map[string]float64)
	for _, tok := range tokens {
		tf[tok]++
	}
	vec := make(map[string]float64, len(tf))
	for tok, count := range tf {
		vec[tok] = count * idf[tok]
	}
	return vec
}

func cosine(a, b map[string]float64) float64 {
	var dot, normA, normB float64
	for tok, va := range a {
		dot += va * b[tok]
		normA += va * va
	}
	for _, vb := range b {
		normB += vb * vb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func hashTerms(query string) string {
	return strings.Join(tokenize(query), "\x1f")
}
