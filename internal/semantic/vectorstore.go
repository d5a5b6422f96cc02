package semantic

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sync"

	"github.com/coder/hnsw"
)

// PointPayload is attached to every vector point so a search hit can be
// mapped back to a file, chunk and line range without a second storage
// lookup (spec §4.9 storage payload). Positions are 1-indexed lines; no byte
// range is stored.
type PointPayload struct {
	Repo       string
	Path       string
	Language   string
	ChunkIndex int
	StartLine  int
	EndLine    int
}

// VectorStore is a cosine-distance nearest-neighbor index over chunk
// embeddings, keyed by a hash of (repo_fingerprint, file_path,
// chunk_index) (spec §4.9). Adapted from the teacher's HNSWStore
// (internal/store/hnsw.go): same coder/hnsw graph and lazy-deletion
// strategy for updates/deletes, generalized from opaque string IDs to
// semantic chunk points with payload lookup, and trimmed of the
// teacher's on-disk Save/Load (the semantic side-index is rebuilt from
// the primary store on startup rather than persisted separately).
type VectorStore struct {
	mu         sync.RWMutex
	graph      *hnsw.Graph[uint64]
	dimensions int

	idMap   map[string]uint64 // point key -> internal graph key
	keyMap  map[uint64]string // internal graph key -> point key
	payload map[string]PointPayload
	nextKey uint64
}

// NewVectorStore constructs a VectorStore for vectors of the given width.
func NewVectorStore(dimensions int) *VectorStore {
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = 16
	graph.Ml = 0.25
	graph.EfSearch = 20

	return &VectorStore{
		graph:      graph,
		dimensions: dimensions,
		idMap:      make(map[string]uint64),
		keyMap:     make(map[uint64]string),
		payload:    make(map[string]PointPayload),
	}
}

// PointKey hashes (repoFingerprint, filePath, chunkIndex) into the stable
// point identity named by spec §4.9.
func PointKey(repoFingerprint, filePath string, chunkIndex int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%d", repoFingerprint, filePath, chunkIndex)))
	return hex.EncodeToString(sum[:])
}

// Upsert inserts or replaces the vector at key. An existing key is
// lazily deleted (mapping dropped, node orphaned in the graph) rather
// than removed from the graph outright, the same workaround the teacher
// uses for a coder/hnsw bug where deleting the last node corrupts the
// graph.
func (s *VectorStore) Upsert(key string, vector []float32, payload PointPayload) error {
	if len(vector) != s.dimensions {
		return fmt.Errorf("vector has %d dims, store expects %d", len(vector), s.dimensions)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.idMap[key]; ok {
		delete(s.keyMap, existing)
	}

	graphKey := s.nextKey
	s.nextKey++

	vec := normalized(vector)
	s.graph.Add(hnsw.MakeNode(graphKey, vec))

	s.idMap[key] = graphKey
	s.keyMap[graphKey] = key
	s.payload[key] = payload
	return nil
}

// VectorHit is one nearest-neighbor result.
type VectorHit struct {
	Key     string
	Score   float64 // cosine similarity, higher is better
	Payload PointPayload
}

// Search returns the k nearest points to query by cosine distance.
func (s *VectorStore) Search(query []float32, k int) ([]VectorHit, error) {
	if len(query) != s.dimensions {
		return nil, fmt.Errorf("query has %d dims, store expects %d", len(query), s.dimensions)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.graph.Len() == 0 {
		return nil, nil
	}

	q := normalized(query)
	nodes := s.graph.Search(q, k)

	hits := make([]VectorHit, 0, len(nodes))
	for _, node := range nodes {
		key, ok := s.keyMap[node.Key]
		if !ok {
			continue // orphaned (lazily deleted) node
		}
		distance := s.graph.Distance(q, node.Value)
		hits = append(hits, VectorHit{
			Key:     key,
			Score:   1.0 - float64(distance)/2.0, // cosine distance in [0,2] -> similarity in [0,1]
			Payload: s.payload[key],
		})
	}
	return hits, nil
}

// Delete removes a point by key (lazy deletion, matching Upsert).
func (s *VectorStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if graphKey, ok := s.idMap[key]; ok {
		delete(s.keyMap, graphKey)
		delete(s.idMap, key)
		delete(s.payload, key)
	}
}

// Count returns the number of live (non-orphaned) points.
func (s *VectorStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.idMap)
}

func normalized(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	out := make([]float32, len(v))
	if sumSquares == 0 {
		copy(out, v)
		return out
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i, val := range v {
		out[i] = val * inv
	}
	return out
}
