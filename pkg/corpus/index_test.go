package corpus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrew/webtoon-rag/pkg/models"
)

func TestNewIndexOrdersByID(t *testing.T) {
	ix, err := NewIndex([]*models.Item{
		{ID: "c", Title: "C", Embedding: []float32{0, 1}},
		{ID: "a", Title: "A", Embedding: []float32{1, 0}},
		{ID: "b", Title: "B", Embedding: []float32{1, 1}},
	})
	require.NoError(t, err)

	require.Equal(t, 3, ix.Len())
	assert.Equal(t, "a", ix.Items()[0].ID)
	assert.Equal(t, "b", ix.Items()[1].ID)
	assert.Equal(t, "c", ix.Items()[2].ID)
	assert.Equal(t, 2, ix.Dimension())
	assert.Equal(t, []string{"A", "B", "C"}, ix.Titles())
}

func TestNewIndexRejectsMixedDimensions(t *testing.T) {
	_, err := NewIndex([]*models.Item{
		{ID: "a", Embedding: []float32{1, 0}},
		{ID: "b", Embedding: []float32{1, 0, 0}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInconsistentDimensions)
}

func TestNewIndexSkipsInvalidItems(t *testing.T) {
	ix, err := NewIndex([]*models.Item{
		nil,
		{ID: "", Title: "No ID"},
		{ID: "a", Title: "A", Embedding: []float32{1, 0}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, ix.Len())
}

func TestIndexSearchExcludesItemsWithoutEmbeddings(t *testing.T) {
	ix, err := NewIndex([]*models.Item{
		{ID: "a", Embedding: []float32{1, 0}},
		{ID: "b"},
	})
	require.NoError(t, err)

	matches, err := ix.Search(context.Background(), []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a", matches[0].ID)
}

func TestIndexSearchWithoutEmbeddedItems(t *testing.T) {
	ix, err := NewIndex([]*models.Item{{ID: "a"}})
	require.NoError(t, err)

	matches, err := ix.Search(context.Background(), []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestIndexGet(t *testing.T) {
	ix, err := NewIndex([]*models.Item{{ID: "a", Title: "A"}})
	require.NoError(t, err)

	require.NotNil(t, ix.Get("a"))
	assert.Equal(t, "A", ix.Get("a").Title)
	assert.Nil(t, ix.Get("missing"))
}

func TestIndexStatsCollectsSortedGenres(t *testing.T) {
	ix, err := NewIndex([]*models.Item{
		{ID: "a", Genres: []string{"Romance", "Comedy"}},
		{ID: "b", Genres: []string{"Horror", "Romance", ""}},
	})
	require.NoError(t, err)

	stats := ix.Stats()
	assert.Equal(t, 2, stats.TotalItems)
	assert.Equal(t, []string{"Comedy", "Horror", "Romance"}, stats.Genres)
}

func TestHandleSwapsAtomically(t *testing.T) {
	h := &Handle{}
	assert.Nil(t, h.Load())

	first, err := NewIndex([]*models.Item{{ID: "a"}})
	require.NoError(t, err)
	h.Store(first)
	assert.Same(t, first, h.Load())

	second, err := NewIndex([]*models.Item{{ID: "a"}, {ID: "b"}})
	require.NoError(t, err)
	h.Store(second)
	assert.Same(t, second, h.Load())
}
