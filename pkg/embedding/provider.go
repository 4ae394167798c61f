// Package embedding converts text into fixed-length vectors via an external
// embedding service.
package embedding

import (
	"context"
	"errors"
)

// ErrService wraps transport or auth failures from the embedding backend.
// Callers surface it as a service-unavailable condition; it is never silently
// degraded to an empty vector.
var ErrService = errors.New("embedding: service unavailable")

// Provider is the narrow contract the pipeline depends on. Implementations
// must be deterministic for identical text (caching is allowed) and must
// respect context cancellation.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
