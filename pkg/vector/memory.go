package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/viterin/vek/vek32"
)

// MemoryStore is an in-memory Store keyed by item ID. Reads are safe for
// concurrent use; writes happen during initialization and enrichment only.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	vectors   map[string][]float32
	payloads  map[string]map[string]string
}

// NewMemoryStore creates an empty store for vectors of the given dimension.
func NewMemoryStore(dimension int) *MemoryStore {
	return &MemoryStore{
		dimension: dimension,
		vectors:   make(map[string][]float32),
		payloads:  make(map[string]map[string]string),
	}
}

// Upsert stores the vector under id.
func (s *MemoryStore) Upsert(_ context.Context, id string, vector []float32, payload map[string]string) error {
	if len(vector) != s.dimension {
		return fmt.Errorf("vector: dimension %d does not match store dimension %d", len(vector), s.dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors[id] = vector
	s.payloads[id] = payload
	return nil
}

// Search scans all vectors and returns the top matches by cosine similarity,
// ties broken by ID so results are deterministic.
func (s *MemoryStore) Search(_ context.Context, vector []float32, limit int) ([]Match, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("vector: query dimension %d does not match store dimension %d", len(vector), s.dimension)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]Match, 0, len(s.vectors))
	for id, v := range s.vectors {
		matches = append(matches, Match{
			ID:      id,
			Score:   vek32.CosineSimilarity(vector, v),
			Payload: s.payloads[id],
		})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
