// Package vector defines the vector store used to persist and search item
// embeddings, with an in-memory implementation for local use and tests and a
// Qdrant implementation for a running server.
package vector

import "context"

// Match is one search hit.
type Match struct {
	ID      string
	Score   float32
	Payload map[string]string
}

// Store defines the interface for vector database operations.
type Store interface {
	// Upsert inserts or updates a vector and its payload.
	Upsert(ctx context.Context, id string, vector []float32, payload map[string]string) error

	// Search finds the vectors most similar to the query vector.
	Search(ctx context.Context, vector []float32, limit int) ([]Match, error)

	// Close releases resources used by the store.
	Close() error
}
