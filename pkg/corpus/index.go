// Package corpus holds the read-only item index shared by all requests.
// An Index is immutable after construction and safe for unsynchronized
// concurrent reads; retraining builds a new Index and atomically swaps the
// Handle that new requests read from.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/andrew/webtoon-rag/pkg/models"
	"github.com/andrew/webtoon-rag/pkg/vector"
)

// ErrInconsistentDimensions is returned when item embeddings disagree on
// dimensionality. This is a data-preparation defect, not a user condition.
var ErrInconsistentDimensions = errors.New("corpus: inconsistent embedding dimensions")

// Index is the in-memory item corpus with precomputed embeddings. Items that
// carry an embedding are additionally indexed in a vector store for
// similarity search; items without one remain addressable by ID but are
// never similarity candidates.
type Index struct {
	items     []*models.Item
	byID      map[string]*models.Item
	dimension int
	genres    []string
	store     *vector.MemoryStore
}

// Stats describes what the corpus contains; used to guide query
// reformulation on rejection.
type Stats struct {
	TotalItems int
	Genres     []string
}

// NewIndex validates the items and builds an index. All embeddings must
// share one dimensionality; items are ordered by ID for deterministic scans.
func NewIndex(items []*models.Item) (*Index, error) {
	ix := &Index{
		items: make([]*models.Item, 0, len(items)),
		byID:  make(map[string]*models.Item, len(items)),
	}

	genreSet := make(map[string]struct{})
	for _, it := range items {
		if it == nil || it.ID == "" {
			continue
		}
		if len(it.Embedding) > 0 {
			if ix.dimension == 0 {
				ix.dimension = len(it.Embedding)
			} else if len(it.Embedding) != ix.dimension {
				return nil, fmt.Errorf("%w: item %s has %d, corpus has %d",
					ErrInconsistentDimensions, it.ID, len(it.Embedding), ix.dimension)
			}
		}
		ix.items = append(ix.items, it)
		ix.byID[it.ID] = it
		for _, g := range it.Genres {
			if g != "" {
				genreSet[g] = struct{}{}
			}
		}
	}

	sort.Slice(ix.items, func(i, j int) bool { return ix.items[i].ID < ix.items[j].ID })

	if ix.dimension > 0 {
		ix.store = vector.NewMemoryStore(ix.dimension)
		for _, it := range ix.items {
			if len(it.Embedding) == 0 {
				continue
			}
			if err := ix.store.Upsert(context.Background(), it.ID, it.Embedding, nil); err != nil {
				return nil, err
			}
		}
	}

	for g := range genreSet {
		ix.genres = append(ix.genres, g)
	}
	sort.Strings(ix.genres)
	return ix, nil
}

// Items returns the indexed items in ID order. Callers must not mutate them.
func (ix *Index) Items() []*models.Item { return ix.items }

// Get returns the item with the given ID, or nil.
func (ix *Index) Get(id string) *models.Item { return ix.byID[id] }

// Len returns the number of indexed items.
func (ix *Index) Len() int { return len(ix.items) }

// Dimension returns the shared embedding dimensionality (0 when no item
// carries an embedding).
func (ix *Index) Dimension() int { return ix.dimension }

// Search runs a cosine-similarity search over the items that carry
// embeddings. Items without embeddings are never candidates; an index with
// no embedded items returns no matches.
func (ix *Index) Search(ctx context.Context, embedding []float32, limit int) ([]vector.Match, error) {
	if ix.store == nil {
		return nil, nil
	}
	return ix.store.Search(ctx, embedding, limit)
}

// Titles returns all item titles, for seeding the classifier.
func (ix *Index) Titles() []string {
	titles := make([]string, 0, len(ix.items))
	for _, it := range ix.items {
		titles = append(titles, it.Title)
	}
	return titles
}

// Stats summarizes the corpus contents.
func (ix *Index) Stats() Stats {
	return Stats{
		TotalItems: len(ix.items),
		Genres:     ix.genres,
	}
}

// Handle is an atomically swappable reference to the current Index.
// Requests arriving before the first Store observe nil and must be refused
// with a not-ready condition rather than operate on a partial index.
type Handle struct {
	ptr atomic.Pointer[Index]
}

// Load returns the current index, or nil before initialization.
func (h *Handle) Load() *Index { return h.ptr.Load() }

// Store publishes a new index for subsequent requests.
func (h *Handle) Store(ix *Index) { h.ptr.Store(ix) }
