package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect_ByExtension(t *testing.T) {
	r := NewDefaultRegistry()
	assert.Equal(t, Go, r.Detect("main.go"))
	assert.Equal(t, Python, r.Detect("script.py"))
	assert.Equal(t, TSX, r.Detect("component.tsx"))
}

func TestDetect_EnvFileIsAlwaysPlaintext(t *testing.T) {
	r := NewDefaultRegistry()
	assert.Equal(t, Plaintext, r.Detect(".env"))
	assert.Equal(t, Plaintext, r.Detect(".env.production"))
}

func TestDetect_UnknownExtensionFallsBackToPlaintext(t *testing.T) {
	r := NewDefaultRegistry()
	assert.Equal(t, Plaintext, r.Detect("README.unknownext"))
}

func TestLookup_ReturnsDefinitionForRegisteredTag(t *testing.T) {
	r := NewDefaultRegistry()
	def, ok := r.Lookup(Go)
	assert.True(t, ok)
	assert.Equal(t, Go, def.Tag)
	assert.NotNil(t, def.Grammar)
}
