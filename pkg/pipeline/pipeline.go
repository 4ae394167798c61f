// Package pipeline orchestrates one recommendation request:
// validate -> classify -> embed -> retrieve -> accept/reject -> ground.
//
// Classification and retrieval are deterministic and pure, so they are never
// retried; only the LLM call is retried, a bounded number of times, on
// transient service errors. No error path falls back to unranked results:
// absence of a confident answer is always an explicit rejection.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/andrew/webtoon-rag/pkg/classify"
	"github.com/andrew/webtoon-rag/pkg/corpus"
	"github.com/andrew/webtoon-rag/pkg/embedding"
	"github.com/andrew/webtoon-rag/pkg/llm"
	"github.com/andrew/webtoon-rag/pkg/models"
	"github.com/andrew/webtoon-rag/pkg/retrieval"
	"github.com/andrew/webtoon-rag/pkg/validate"
)

// ErrNotReady is returned while the corpus handle has not been populated;
// requests must not operate on a partial index.
var ErrNotReady = errors.New("pipeline: corpus not initialized")

const (
	// llmRetries bounds retries of the explanation call on transient errors.
	llmRetries      = 2
	llmRetryBackoff = 500 * time.Millisecond
)

// Pipeline wires the request components around the shared read-only corpus
// handle. Each Run is an independent, stateless unit of work; concurrent
// calls share nothing but the handle and the fitted popularity scores
// already baked into the items.
type Pipeline struct {
	validator  *validate.Validator
	classifier *classify.Classifier
	embedder   embedding.Provider
	retriever  *retrieval.Retriever
	explainer  llm.Explainer
	handle     *corpus.Handle
	topK       int
	log        zerolog.Logger
}

// New assembles a Pipeline.
func New(
	validator *validate.Validator,
	classifier *classify.Classifier,
	embedder embedding.Provider,
	retriever *retrieval.Retriever,
	explainer llm.Explainer,
	handle *corpus.Handle,
	topK int,
	log zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		validator:  validator,
		classifier: classifier,
		embedder:   embedder,
		retriever:  retriever,
		explainer:  explainer,
		handle:     handle,
		topK:       topK,
		log:        log,
	}
}

// Run executes the pipeline for one raw query. Input errors and component
// failures return a Result in StateFailed along with the error; rejection is
// a normal terminal outcome and returns nil error.
func (p *Pipeline) Run(ctx context.Context, raw string) (Result, error) {
	res := Result{RequestID: uuid.NewString(), State: StateReceived}
	log := p.log.With().Str("request_id", res.RequestID).Logger()

	ix := p.handle.Load()
	if ix == nil {
		res.State = StateFailed
		return res, ErrNotReady
	}

	clean, err := p.validator.Validate(raw)
	if err != nil {
		res.State = StateFailed
		log.Debug().Err(err).Msg("validation failed")
		return res, err
	}
	res.State = StateValidated
	res.Query = clean

	query, err := p.classifier.Classify(clean)
	if err != nil {
		res.State = StateFailed
		return res, err
	}
	res.State = StateClassified
	res.Intent = query.Intent
	log.Debug().Str("intent", string(query.Intent)).Strs("genre_hints", query.GenreHints).Msg("query classified")

	// Out-of-domain rejects immediately: no embedding call, no LLM call.
	if query.Intent == models.IntentOutOfDomain {
		return p.reject(res, query, "query is outside the webtoon domain", ix, log), nil
	}

	emb, err := p.embedder.Embed(ctx, query.SemanticQuery)
	if err != nil {
		res.State = StateFailed
		log.Error().Err(err).Msg("embedding failed")
		return res, err
	}
	query.Embedding = emb
	res.State = StateEmbedded

	rr, err := p.retriever.Retrieve(ctx, query, ix, p.topK)
	if err != nil {
		res.State = StateFailed
		log.Error().Err(err).Msg("retrieval failed")
		return res, err
	}
	res.State = StateRetrieved
	res.Confidence = rr.Confidence

	if !rr.Accepted {
		return p.reject(res, query, rr.Reason, ix, log), nil
	}
	res.State = StateAccepted

	grounding := buildGrounding(rr.Items)
	explanations, err := p.explainWithRetry(ctx, clean, grounding, log)
	if err != nil {
		res.State = StateFailed
		log.Error().Err(err).Msg("explanation failed after retries")
		return res, err
	}
	res.State = StateGrounded

	res.Recommendations = assemble(rr.Items, explanations)
	res.TotalResults = len(res.Recommendations)
	res.State = StateCompleted
	log.Info().
		Int("results", res.TotalResults).
		Float64("confidence", res.Confidence).
		Msg("request completed")
	return res, nil
}

func (p *Pipeline) reject(res Result, query models.ClassifiedQuery, reason string, ix *corpus.Index, log zerolog.Logger) Result {
	stats := ix.Stats()
	res.State = StateRejected
	res.Rejected = true
	res.RejectionMessage = rejectionMessage(query, reason, stats)
	res.AvailableGenres = stats.Genres
	log.Info().Str("reason", reason).Float64("confidence", res.Confidence).Msg("request rejected")
	return res
}

// explainWithRetry calls the explainer, retrying transient service errors
// with exponential backoff. Retries stop early on context cancellation.
func (p *Pipeline) explainWithRetry(ctx context.Context, query string, items []llm.GroundingItem, log zerolog.Logger) ([]string, error) {
	var lastErr error
	for attempt := 0; attempt <= llmRetries; attempt++ {
		if attempt > 0 {
			delay := llmRetryBackoff << (attempt - 1)
			log.Warn().Err(lastErr).Int("attempt", attempt).Dur("backoff", delay).Msg("retrying explanation")
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", llm.ErrService, ctx.Err())
			case <-time.After(delay):
			}
		}
		explanations, err := p.explainer.Explain(ctx, query, items)
		if err == nil {
			return explanations, nil
		}
		lastErr = err
		if !errors.Is(err, llm.ErrService) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: retries exhausted: %v", llm.ErrService, lastErr)
}

// buildGrounding converts ranked items into the evidence records handed to
// the LLM, applying the missing-metadata defaults up front.
func buildGrounding(items []models.ScoredItem) []llm.GroundingItem {
	grounding := make([]llm.GroundingItem, len(items))
	for i, s := range items {
		rec := Recommendation{
			Genre:       joinGenres(s.Item.Genres),
			Description: s.Item.Summary,
			Tier:        s.Item.Tier,
		}
		fillDefaults(&rec)
		grounding[i] = llm.GroundingItem{
			Title:   s.Item.Title,
			Genre:   rec.Genre,
			Summary: rec.Description,
			Tier:    rec.Tier,
		}
	}
	return grounding
}

// assemble builds the final payload; explanations are presentation only and
// never reorder items.
func assemble(items []models.ScoredItem, explanations []string) []Recommendation {
	recs := make([]Recommendation, len(items))
	for i, s := range items {
		rec := Recommendation{
			Title:       s.Item.Title,
			Description: s.Item.Summary,
			Genre:       joinGenres(s.Item.Genres),
			Tier:        s.Item.Tier,
			Similarity:  s.Similarity,
			CoverURL:    s.Item.CoverURL,
		}
		if i < len(explanations) {
			rec.Explanation = explanations[i]
		}
		fillDefaults(&rec)
		recs[i] = rec
	}
	return recs
}

func joinGenres(genres []string) string {
	return strings.Join(genres, ", ")
}
