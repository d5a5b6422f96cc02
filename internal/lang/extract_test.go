package lang

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeindex-mcp/codeindex/internal/store"
)

func TestExtract_Go_FindsFunctionAndMethod(t *testing.T) {
	r := NewDefaultRegistry()
	def, ok := r.Lookup(Go)
	require.True(t, ok)
	ex, err := NewExtractor(def)
	require.NoError(t, err)
	defer ex.Close()

	src := []byte(`package main

// Greet returns a greeting.
func Greet(name string) string {
	return "hi " + name
}

type Server struct{}

func (s *Server) Start() error {
	return nil
}
`)
	got, err := ex.Extract(context.Background(), src)
	require.NoError(t, err)

	var names []string
	for _, s := range got.Symbols {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "Greet")
	assert.Contains(t, names, "Start")

	for _, s := range got.Symbols {
		if s.Name == "Greet" {
			assert.Equal(t, store.KindFunction, s.Kind)
			assert.Contains(t, s.Doc, "Greet returns a greeting")
		}
		if s.Name == "Start" {
			assert.Equal(t, store.KindMethod, s.Kind)
		}
	}
}

func TestExtract_Python_NestedDefIsMethod(t *testing.T) {
	r := NewDefaultRegistry()
	def, ok := r.Lookup(Python)
	require.True(t, ok)
	ex, err := NewExtractor(def)
	require.NoError(t, err)
	defer ex.Close()

	src := []byte(`class Greeter:
    def hello(self):
        return "hi"

def standalone():
    return 1
`)
	got, err := ex.Extract(context.Background(), src)
	require.NoError(t, err)

	kinds := map[string]store.SymbolKind{}
	for _, s := range got.Symbols {
		kinds[s.Name] = s.Kind
	}
	assert.Equal(t, store.KindMethod, kinds["hello"])
	assert.Equal(t, store.KindFunction, kinds["standalone"])
}
