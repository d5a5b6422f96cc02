package ignore

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// cachedMatchCapacity bounds the memoized Match() results per repository;
// export runs scan every file once, so this only pays off on repeated
// exports of the same tree without a reindex in between.
const cachedMatchCapacity = 4096

// CachedMatcher memoizes Matcher.Match results, grounded on the teacher's
// internal/embed/cached.go pattern of wrapping a slow operation in an LRU
// cache (hashicorp/golang-lru/v2) rather than recomputing it per call.
type CachedMatcher struct {
	m     *Matcher
	cache *lru.Cache[matchKey, bool]
}

type matchKey struct {
	path  string
	isDir bool
}

// NewCachedMatcher wraps m with an LRU cache of bounded size.
func NewCachedMatcher(m *Matcher) *CachedMatcher {
	cache, _ := lru.New[matchKey, bool](cachedMatchCapacity)
	return &CachedMatcher{m: m, cache: cache}
}

// Match returns m.Match(path, isDir), memoized.
func (c *CachedMatcher) Match(path string, isDir bool) bool {
	key := matchKey{path: path, isDir: isDir}
	if v, ok := c.cache.Get(key); ok {
		return v
	}
	result := c.m.Match(path, isDir)
	c.cache.Add(key, result)
	return result
}
