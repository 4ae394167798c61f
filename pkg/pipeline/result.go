package pipeline

import (
	"fmt"
	"strings"

	"github.com/andrew/webtoon-rag/pkg/corpus"
	"github.com/andrew/webtoon-rag/pkg/models"
)

// State tracks a request through the orchestrator. Completed, Rejected and
// Failed are terminal.
type State string

const (
	StateReceived   State = "received"
	StateValidated  State = "validated"
	StateClassified State = "classified"
	StateEmbedded   State = "embedded"
	StateRetrieved  State = "retrieved"
	StateAccepted   State = "accepted"
	StateGrounded   State = "grounded"
	StateCompleted  State = "completed"
	StateRejected   State = "rejected"
	StateFailed     State = "failed"
)

// Recommendation is one item of the final payload consumed by the
// presentation layer.
type Recommendation struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Genre       string      `json:"genre"`
	Tier        models.Tier `json:"popularity_tier"`
	Similarity  float64     `json:"similarity_score"`
	Explanation string      `json:"explanation,omitempty"`
	CoverURL    string      `json:"cover_url,omitempty"`
}

// Result is the structured outcome of one request.
type Result struct {
	RequestID string        `json:"request_id"`
	State     State         `json:"state"`
	Query     string        `json:"query"`
	Intent    models.Intent `json:"query_type"`

	Recommendations []Recommendation `json:"recommendations,omitempty"`
	TotalResults    int              `json:"total_results"`
	Confidence      float64          `json:"confidence"`

	Rejected         bool     `json:"rejected"`
	RejectionMessage string   `json:"rejection_message,omitempty"`
	AvailableGenres  []string `json:"available_genres,omitempty"`
}

// Defaults applied when enrichment left metadata blank. Centralized here so
// the presentation layer never improvises domain defaults.
const (
	defaultGenre       = "Unknown"
	defaultDescription = "No description available."
)

func fillDefaults(rec *Recommendation) {
	if rec.Genre == "" {
		rec.Genre = defaultGenre
	}
	if rec.Description == "" {
		rec.Description = defaultDescription
	}
	if rec.Tier == "" {
		rec.Tier = models.TierUnpopular
	}
}

// rejectionMessage builds a human-readable rejection with what the corpus
// does contain, to guide reformulation.
func rejectionMessage(query models.ClassifiedQuery, reason string, stats corpus.Stats) string {
	var b strings.Builder
	switch query.Intent {
	case models.IntentOutOfDomain:
		b.WriteString("That doesn't look like a webtoon question, so I have nothing to recommend for it. ")
	default:
		fmt.Fprintf(&b, "I couldn't find a confident match for %q (%s). ", query.Raw, reason)
	}
	if len(stats.Genres) > 0 {
		fmt.Fprintf(&b, "Our catalogue of %d series covers these genres: %s. ",
			stats.TotalItems, strings.Join(stats.Genres, ", "))
	}
	b.WriteString("Try naming a genre, a theme, or a series you already enjoy.")
	return b.String()
}
