// Package retrieval implements hybrid retrieval: cosine similarity combined
// with bounded metadata and popularity boosts, ranked deterministically, with
// confidence-threshold rejection.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/andrew/webtoon-rag/pkg/corpus"
	"github.com/andrew/webtoon-rag/pkg/models"
)

// ErrDimensionMismatch indicates the query embedding's dimensionality
// differs from the corpus embeddings. A configuration defect, never a
// user-facing rejection.
var ErrDimensionMismatch = errors.New("retrieval: embedding dimension mismatch")

// Weights are the fixed combination weights for the hybrid score. They must
// sum to 1 with Similarity dominant; config validation enforces this.
type Weights struct {
	Similarity float64
	Metadata   float64
	Popularity float64
}

// DefaultWeights keeps semantic similarity dominant with small metadata and
// popularity boosts, mirroring the tuned production constants.
func DefaultWeights() Weights {
	return Weights{Similarity: 0.65, Metadata: 0.20, Popularity: 0.15}
}

// DefaultRejectionThreshold is the tuned confidence floor below which a
// result is rejected. Tuned offline against labeled query/relevance pairs;
// override through configuration when the corpus changes.
const DefaultRejectionThreshold = 0.35

// Retriever scores and ranks corpus items for a classified query.
type Retriever struct {
	weights   Weights
	threshold float64
	log       zerolog.Logger
}

// New creates a Retriever with the given weights and rejection threshold.
func New(weights Weights, threshold float64, log zerolog.Logger) *Retriever {
	return &Retriever{weights: weights, threshold: threshold, log: log}
}

// Retrieve computes the ranked candidate list for the query.
//
// Cosine similarities come from the corpus's vector store, so only items
// carrying an embedding are ever candidates. Per candidate:
// combined = wSim*cosine + wMeta*metadataMatch + wPop*popularity.
// Ranking is by combined score descending, ties by normalized popularity
// descending, then item ID ascending, so repeated calls on the same corpus
// yield identical orderings. Confidence is the top candidate's combined
// score; below the threshold, or for out-of-domain intents, the result is
// rejected and carries no candidates.
func (r *Retriever) Retrieve(ctx context.Context, query models.ClassifiedQuery, ix *corpus.Index, topK int) (models.RetrievalResult, error) {
	if topK <= 0 {
		return models.RetrievalResult{}, fmt.Errorf("retrieval: top_k must be positive, got %d", topK)
	}

	if query.Intent == models.IntentOutOfDomain {
		return models.RetrievalResult{
			Confidence: 0,
			Accepted:   false,
			Reason:     "query is outside the webtoon domain",
		}, nil
	}

	if ix.Len() == 0 {
		return models.RetrievalResult{
			Confidence: 0,
			Accepted:   false,
			Reason:     "the corpus is empty",
		}, nil
	}

	if ix.Dimension() == 0 {
		return models.RetrievalResult{
			Confidence: 0,
			Accepted:   false,
			Reason:     "no series in the corpus carries an embedding",
		}, nil
	}

	if len(query.Embedding) != ix.Dimension() {
		return models.RetrievalResult{}, fmt.Errorf("%w: query has %d, corpus has %d",
			ErrDimensionMismatch, len(query.Embedding), ix.Dimension())
	}

	matches, err := ix.Search(ctx, query.Embedding, ix.Len())
	if err != nil {
		return models.RetrievalResult{}, fmt.Errorf("retrieval: similarity search failed: %w", err)
	}

	scored := make([]models.ScoredItem, 0, len(matches))
	for _, m := range matches {
		it := ix.Get(m.ID)
		if it == nil {
			continue
		}
		sim := float64(m.Score)
		combined := r.weights.Similarity*sim +
			r.weights.Metadata*metadataMatch(query, it) +
			r.weights.Popularity*it.PopularityNormalized
		scored = append(scored, models.ScoredItem{
			Item:       it,
			Similarity: sim,
			Combined:   combined,
		})
	}
	if len(scored) == 0 {
		return models.RetrievalResult{
			Confidence: 0,
			Accepted:   false,
			Reason:     "no series in the corpus carries an embedding",
		}, nil
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Combined != scored[j].Combined {
			return scored[i].Combined > scored[j].Combined
		}
		if scored[i].Item.PopularityNormalized != scored[j].Item.PopularityNormalized {
			return scored[i].Item.PopularityNormalized > scored[j].Item.PopularityNormalized
		}
		return scored[i].Item.ID < scored[j].Item.ID
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	for i := range scored {
		scored[i].Rank = i + 1
	}

	confidence := scored[0].Combined
	if confidence < r.threshold {
		r.log.Debug().
			Float64("confidence", confidence).
			Float64("threshold", r.threshold).
			Msg("retrieval rejected below threshold")
		return models.RetrievalResult{
			Confidence: confidence,
			Accepted:   false,
			Reason: fmt.Sprintf("no sufficiently confident match (confidence %.2f below threshold %.2f)",
				confidence, r.threshold),
		}, nil
	}

	return models.RetrievalResult{
		Items:      scored,
		Confidence: confidence,
		Accepted:   true,
	}, nil
}

// metadataMatch is a bounded [0,1] indicator of hint overlap: the fraction
// of genre hints present on the item, and a full score when a title hint
// names the item. Bounded so metadata can never override semantic
// similarity.
func metadataMatch(query models.ClassifiedQuery, it *models.Item) float64 {
	var parts []float64

	if len(query.GenreHints) > 0 {
		itemTokens := genreTokens(it.Genres)
		matched := 0
		for _, hint := range query.GenreHints {
			if containsAllTokens(itemTokens, hint) {
				matched++
			}
		}
		parts = append(parts, float64(matched)/float64(len(query.GenreHints)))
	}

	if len(query.TitleHints) > 0 {
		hit := 0.0
		title := strings.ToLower(it.Title)
		for _, hint := range query.TitleHints {
			if strings.Contains(title, strings.ToLower(hint)) {
				hit = 1.0
				break
			}
		}
		parts = append(parts, hit)
	}

	if len(parts) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range parts {
		sum += p
	}
	return sum / float64(len(parts))
}

// containsAllTokens reports whether every token of the hint appears in the
// item's genre tokens, so the hint "Sci-Fi" matches the label "sci-fi" and
// "Romance" matches "romance-comedy".
func containsAllTokens(itemTokens map[string]struct{}, hint string) bool {
	hintTokens := genreTokens([]string{hint})
	if len(hintTokens) == 0 {
		return false
	}
	for tok := range hintTokens {
		if _, ok := itemTokens[tok]; !ok {
			return false
		}
	}
	return true
}

// genreTokens splits compound genre labels like "romance-comedy" into
// comparable lowercase tokens.
func genreTokens(genres []string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, g := range genres {
		for _, tok := range strings.FieldsFunc(strings.ToLower(g), func(r rune) bool {
			return r == '-' || r == '/' || r == ' ' || r == ','
		}) {
			if tok != "" {
				tokens[tok] = struct{}{}
			}
		}
	}
	return tokens
}
