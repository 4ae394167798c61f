// Package llm provides the explanation capability: given a query and the
// retrieved grounding records, produce a short free-text explanation per
// item. Explanations never alter ranking; they are presentation only.
package llm

import (
	"context"
	"errors"

	"github.com/andrew/webtoon-rag/pkg/models"
)

// ErrService wraps transport, auth or rate-limit failures from the LLM
// backend. The orchestrator's bounded retry policy applies to it.
var ErrService = errors.New("llm: service unavailable")

// GroundingItem is one retrieved record supplied as evidence. The LLM is
// constrained to these fields so its explanations stay grounded.
type GroundingItem struct {
	Title   string
	Genre   string
	Summary string
	Tier    models.Tier
}

// Explainer is the interface for generating grounded explanations.
type Explainer interface {
	// Explain returns one explanation per grounding item, in order.
	Explain(ctx context.Context, query string, items []GroundingItem) ([]string, error)
}
