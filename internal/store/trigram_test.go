package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrigramsOf_ShortNamesReturnWholeLowercased(t *testing.T) {
	assert.Equal(t, []string{"ab"}, trigramsOf("AB"))
}

func TestTrigramsOf_Dedup(t *testing.T) {
	tris := trigramsOf("aaaa")
	assert.Equal(t, []string{"aaa"}, tris)
}

func TestJaccard_IdenticalSetsAreOne(t *testing.T) {
	a := trigramsOf("getUserById")
	assert.InDelta(t, 1.0, jaccard(a, a, len(a)), 0.0001)
}

func TestJaccard_DisjointIsZero(t *testing.T) {
	assert.Equal(t, 0.0, jaccard([]string{"abc"}, []string{"xyz"}, 0))
}
