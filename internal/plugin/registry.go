package plugin

import (
	"fmt"
	"sync"

	"github.com/codeindex-mcp/codeindex/internal/lang"
)

// Registry lazily constructs one Plugin per language.Tag, guarded by a
// per-entry sync.Once the way the teacher's embed package lazily builds a
// single embedder instance (internal/embed/cached.go wraps the embedder
// once rather than reconstructing it per query).
type Registry struct {
	langs    *lang.Registry
	mu       sync.Mutex
	once     map[lang.Tag]*sync.Once
	built    map[lang.Tag]Plugin
	errs     map[lang.Tag]error
	fallback Plugin
}

// NewRegistry wires langs as the source of Definitions to build extractors
// from.
func NewRegistry(langs *lang.Registry) *Registry {
	return &Registry{
		langs:    langs,
		once:     make(map[lang.Tag]*sync.Once),
		built:    make(map[lang.Tag]Plugin),
		errs:     make(map[lang.Tag]error),
		fallback: NewPlaintextPlugin(),
	}
}

// For returns the Plugin for tag, constructing it on first use. Unknown and
// Plaintext tags, and any tag this build has no Definition for, resolve to
// the shared PlaintextPlugin (spec §4.4: unsupported languages degrade
// rather than fail the pipeline).
func (r *Registry) For(tag lang.Tag) (Plugin, error) {
	if tag == lang.Unknown || tag == lang.Plaintext {
		return r.fallback, nil
	}

	def, ok := r.langs.Lookup(tag)
	if !ok {
		return r.fallback, nil
	}

	r.mu.Lock()
	once, exists := r.once[tag]
	if !exists {
		once = &sync.Once{}
		r.once[tag] = once
	}
	r.mu.Unlock()

	once.Do(func() {
		ex, err := lang.NewExtractor(def)
		if err != nil {
			r.mu.Lock()
			r.errs[tag] = fmt.Errorf("build extractor for %s: %w", tag, err)
			r.mu.Unlock()
			return
		}
		r.mu.Lock()
		r.built[tag] = NewGenericPlugin(tag, ex)
		r.mu.Unlock()
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.errs[tag]; ok {
		return nil, err
	}
	return r.built[tag], nil
}
