package retrieval

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrew/webtoon-rag/pkg/corpus"
	"github.com/andrew/webtoon-rag/pkg/models"
)

// unitVec returns a 2-d unit vector whose cosine similarity against [1, 0]
// is exactly c.
func unitVec(c float64) []float32 {
	return []float32{float32(c), float32(math.Sqrt(1 - c*c))}
}

func buildIndex(t *testing.T, items ...*models.Item) *corpus.Index {
	t.Helper()
	ix, err := corpus.NewIndex(items)
	require.NoError(t, err)
	return ix
}

func simOnly() *Retriever {
	return New(Weights{Similarity: 1}, DefaultRejectionThreshold, zerolog.Nop())
}

func TestRetrieveRanksBySimilarity(t *testing.T) {
	ix := buildIndex(t,
		&models.Item{ID: "a", Title: "A", Embedding: unitVec(0.5)},
		&models.Item{ID: "b", Title: "B", Embedding: unitVec(0.9)},
		&models.Item{ID: "c", Title: "C", Embedding: unitVec(0.7)},
	)
	query := models.ClassifiedQuery{Intent: models.IntentGeneral, Embedding: []float32{1, 0}}

	rr, err := simOnly().Retrieve(context.Background(), query, ix, 5)
	require.NoError(t, err)
	require.True(t, rr.Accepted)
	require.Len(t, rr.Items, 3)

	assert.Equal(t, "b", rr.Items[0].Item.ID)
	assert.Equal(t, "c", rr.Items[1].Item.ID)
	assert.Equal(t, "a", rr.Items[2].Item.ID)
	for i, s := range rr.Items {
		assert.Equal(t, i+1, s.Rank)
	}
	assert.InDelta(t, 0.9, rr.Confidence, 1e-6)
}

func TestRetrieveTruncatesToTopK(t *testing.T) {
	ix := buildIndex(t,
		&models.Item{ID: "a", Embedding: unitVec(0.9)},
		&models.Item{ID: "b", Embedding: unitVec(0.8)},
		&models.Item{ID: "c", Embedding: unitVec(0.7)},
	)
	query := models.ClassifiedQuery{Intent: models.IntentGeneral, Embedding: []float32{1, 0}}

	rr, err := simOnly().Retrieve(context.Background(), query, ix, 2)
	require.NoError(t, err)
	assert.Len(t, rr.Items, 2)

	// Fewer items than topK returns everything, never pads.
	rr, err = simOnly().Retrieve(context.Background(), query, ix, 10)
	require.NoError(t, err)
	assert.Len(t, rr.Items, 3)
}

func TestRetrieveRejectsBelowThreshold(t *testing.T) {
	query := models.ClassifiedQuery{Intent: models.IntentGeneral, Embedding: []float32{1, 0}}

	below := buildIndex(t, &models.Item{ID: "a", Embedding: unitVec(0.34)})
	rr, err := simOnly().Retrieve(context.Background(), query, below, 5)
	require.NoError(t, err)
	assert.False(t, rr.Accepted)
	assert.Empty(t, rr.Items)
	assert.NotEmpty(t, rr.Reason)
	assert.InDelta(t, 0.34, rr.Confidence, 1e-6)

	above := buildIndex(t, &models.Item{ID: "a", Embedding: unitVec(0.36)})
	rr, err = simOnly().Retrieve(context.Background(), query, above, 5)
	require.NoError(t, err)
	assert.True(t, rr.Accepted)
	require.Len(t, rr.Items, 1)
}

func TestRetrieveRejectsOutOfDomainWithoutScoring(t *testing.T) {
	ix := buildIndex(t, &models.Item{ID: "a", Embedding: unitVec(0.9)})
	// No embedding is attached: an out-of-domain query must be refused
	// before any vector math happens.
	query := models.ClassifiedQuery{Intent: models.IntentOutOfDomain}

	rr, err := simOnly().Retrieve(context.Background(), query, ix, 5)
	require.NoError(t, err)
	assert.False(t, rr.Accepted)
	assert.Zero(t, rr.Confidence)
	assert.Empty(t, rr.Items)
}

func TestRetrieveSkipsItemsWithoutEmbeddings(t *testing.T) {
	// Enrichment can leave a series without an embedding when it has no
	// summary; such items must be silently excluded from scoring, not crash
	// the vector math.
	ix := buildIndex(t,
		&models.Item{ID: "embedded", Title: "Embedded", Embedding: unitVec(0.9)},
		&models.Item{ID: "bare", Title: "No Vector"},
	)
	query := models.ClassifiedQuery{Intent: models.IntentGeneral, Embedding: []float32{1, 0}}

	rr, err := simOnly().Retrieve(context.Background(), query, ix, 5)
	require.NoError(t, err)
	require.True(t, rr.Accepted)
	require.Len(t, rr.Items, 1)
	assert.Equal(t, "embedded", rr.Items[0].Item.ID)
}

func TestRetrieveRejectsCorpusWithoutEmbeddings(t *testing.T) {
	ix := buildIndex(t, &models.Item{ID: "bare", Title: "No Vector"})
	query := models.ClassifiedQuery{Intent: models.IntentGeneral, Embedding: []float32{1, 0}}

	rr, err := simOnly().Retrieve(context.Background(), query, ix, 5)
	require.NoError(t, err)
	assert.False(t, rr.Accepted)
	assert.Empty(t, rr.Items)
	assert.NotEmpty(t, rr.Reason)
}

func TestRetrieveEmptyCorpus(t *testing.T) {
	ix := buildIndex(t)
	query := models.ClassifiedQuery{Intent: models.IntentGeneral, Embedding: []float32{1, 0}}

	rr, err := simOnly().Retrieve(context.Background(), query, ix, 5)
	require.NoError(t, err)
	assert.False(t, rr.Accepted)
	assert.Zero(t, rr.Confidence)
}

func TestRetrieveDimensionMismatch(t *testing.T) {
	ix := buildIndex(t, &models.Item{ID: "a", Embedding: unitVec(0.9)})
	query := models.ClassifiedQuery{Intent: models.IntentGeneral, Embedding: []float32{1, 0, 0}}

	_, err := simOnly().Retrieve(context.Background(), query, ix, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestRetrieveInvalidTopK(t *testing.T) {
	ix := buildIndex(t, &models.Item{ID: "a", Embedding: unitVec(0.9)})
	query := models.ClassifiedQuery{Intent: models.IntentGeneral, Embedding: []float32{1, 0}}

	for _, k := range []int{0, -1} {
		_, err := simOnly().Retrieve(context.Background(), query, ix, k)
		assert.Error(t, err, "topK=%d", k)
	}
}

func TestRetrieveTieBreaksByPopularityThenID(t *testing.T) {
	// Identical embeddings force equal combined scores under sim-only
	// weights; popularity then ID must decide the order.
	ix := buildIndex(t,
		&models.Item{ID: "c", Embedding: unitVec(0.8), PopularityNormalized: 0.2},
		&models.Item{ID: "b", Embedding: unitVec(0.8), PopularityNormalized: 0.9},
		&models.Item{ID: "a", Embedding: unitVec(0.8), PopularityNormalized: 0.2},
	)
	query := models.ClassifiedQuery{Intent: models.IntentGeneral, Embedding: []float32{1, 0}}

	rr, err := simOnly().Retrieve(context.Background(), query, ix, 5)
	require.NoError(t, err)
	require.Len(t, rr.Items, 3)
	assert.Equal(t, "b", rr.Items[0].Item.ID)
	assert.Equal(t, "a", rr.Items[1].Item.ID)
	assert.Equal(t, "c", rr.Items[2].Item.ID)
}

func TestRetrieveGenreBoostBreaksSimilarityTie(t *testing.T) {
	ix := buildIndex(t,
		&models.Item{ID: "horror", Genres: []string{"Horror"}, Embedding: unitVec(0.8)},
		&models.Item{ID: "romcom", Genres: []string{"romance-comedy"}, Embedding: unitVec(0.8)},
	)
	query := models.ClassifiedQuery{
		Intent:     models.IntentMood,
		GenreHints: []string{"Romance", "Comedy"},
		Embedding:  []float32{1, 0},
	}

	r := New(DefaultWeights(), DefaultRejectionThreshold, zerolog.Nop())
	rr, err := r.Retrieve(context.Background(), query, ix, 5)
	require.NoError(t, err)
	require.True(t, rr.Accepted)
	require.Len(t, rr.Items, 2)
	assert.Equal(t, "romcom", rr.Items[0].Item.ID)
}

func TestRetrieveMetadataCannotOverrideSimilarity(t *testing.T) {
	// A perfect metadata match on a weakly similar item must not outrank a
	// strongly similar item with no metadata overlap.
	ix := buildIndex(t,
		&models.Item{ID: "relevant", Genres: []string{"Horror"}, Embedding: unitVec(0.95)},
		&models.Item{ID: "tagged", Genres: []string{"Romance"}, Embedding: unitVec(0.1)},
	)
	query := models.ClassifiedQuery{
		Intent:     models.IntentGenre,
		GenreHints: []string{"Romance"},
		Embedding:  []float32{1, 0},
	}

	r := New(DefaultWeights(), DefaultRejectionThreshold, zerolog.Nop())
	rr, err := r.Retrieve(context.Background(), query, ix, 5)
	require.NoError(t, err)
	require.True(t, rr.Accepted)
	assert.Equal(t, "relevant", rr.Items[0].Item.ID)
}

func TestRetrieveTitleHintBoost(t *testing.T) {
	ix := buildIndex(t,
		&models.Item{ID: "a", Title: "Tower of God", Embedding: unitVec(0.8)},
		&models.Item{ID: "b", Title: "Unrelated", Embedding: unitVec(0.8)},
	)
	query := models.ClassifiedQuery{
		Intent:     models.IntentComparison,
		TitleHints: []string{"Tower of God"},
		Embedding:  []float32{1, 0},
	}

	r := New(DefaultWeights(), DefaultRejectionThreshold, zerolog.Nop())
	rr, err := r.Retrieve(context.Background(), query, ix, 5)
	require.NoError(t, err)
	require.Len(t, rr.Items, 2)
	assert.Equal(t, "a", rr.Items[0].Item.ID)
	assert.Greater(t, rr.Items[0].Combined, rr.Items[1].Combined)
}

func TestRetrieveIsDeterministic(t *testing.T) {
	ix := buildIndex(t,
		&models.Item{ID: "a", Embedding: unitVec(0.6), PopularityNormalized: 0.4},
		&models.Item{ID: "b", Embedding: unitVec(0.6), PopularityNormalized: 0.4},
		&models.Item{ID: "c", Embedding: unitVec(0.9), PopularityNormalized: 0.1},
	)
	query := models.ClassifiedQuery{Intent: models.IntentGeneral, Embedding: []float32{1, 0}}
	r := New(DefaultWeights(), DefaultRejectionThreshold, zerolog.Nop())

	first, err := r.Retrieve(context.Background(), query, ix, 5)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := r.Retrieve(context.Background(), query, ix, 5)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
