package ignore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCachedMatcher_MatchesUnderlyingMatcher(t *testing.T) {
	m := New()
	m.AddPattern("*.log")
	c := NewCachedMatcher(m)

	assert.True(t, c.Match("debug.log", false))
	assert.False(t, c.Match("main.go", false))
	// second call exercises the cache hit path
	assert.True(t, c.Match("debug.log", false))
}
