package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeindex-mcp/codeindex/internal/lang"
)

func TestRegistry_ForGoReturnsGenericPlugin(t *testing.T) {
	r := NewRegistry(lang.NewDefaultRegistry())
	p, err := r.For(lang.Go)
	require.NoError(t, err)
	assert.True(t, p.Supports(lang.Go))
}

func TestRegistry_ForReusesConstructedPlugin(t *testing.T) {
	r := NewRegistry(lang.NewDefaultRegistry())
	p1, err := r.For(lang.Python)
	require.NoError(t, err)
	p2, err := r.For(lang.Python)
	require.NoError(t, err)
	assert.Same(t, p1, p2)
}

func TestRegistry_ForUnknownFallsBackToPlaintext(t *testing.T) {
	r := NewRegistry(lang.NewDefaultRegistry())
	p, err := r.For(lang.Tag("cobol"))
	require.NoError(t, err)
	assert.True(t, p.Supports(lang.Plaintext))
}
