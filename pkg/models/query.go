package models

// Intent is the classified intent of a user query. Every non-empty query is
// assigned exactly one intent by the classifier's fixed-priority rule ladder.
type Intent string

const (
	// IntentTitle is an exact lookup of a known series title.
	IntentTitle Intent = "title"
	// IntentComparison asks for series similar to a named one.
	IntentComparison Intent = "comparison"
	// IntentGenre is a pure genre/attribute browse with no thematic content.
	IntentGenre Intent = "genre"
	// IntentMood is a mood or thematic search ("dark revenge story").
	IntentMood Intent = "mood"
	// IntentGeneral is the fallback for queries with domain vocabulary that
	// match no specific rule.
	IntentGeneral Intent = "general"
	// IntentOutOfDomain marks queries with no recognizable domain vocabulary
	// at all; these are rejected without invoking retrieval.
	IntentOutOfDomain Intent = "out_of_domain"
)

// ClassifiedQuery is the transient, per-request view of a user query after
// classification. The embedding is attached by the orchestrator before
// retrieval.
type ClassifiedQuery struct {
	Raw           string
	Intent        Intent
	GenreHints    []string
	TitleHints    []string
	SemanticQuery string
	Embedding     []float32
}
