package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/ollama/ollama/api"
	"github.com/rs/zerolog"
)

const (
	maxRetries   = 3
	baseDelay    = time.Second
	requestLimit = 10 * time.Second
	// maxInputSize truncates oversized inputs before embedding; longer text
	// degrades embedding quality and can exceed the model context.
	maxInputSize = 2048
)

// OllamaProvider generates embeddings through a local Ollama server.
type OllamaProvider struct {
	client *api.Client
	model  string
	log    zerolog.Logger
}

// NewOllamaProvider creates a provider for the given Ollama host and
// embedding model.
func NewOllamaProvider(host, model string, log zerolog.Logger) (*OllamaProvider, error) {
	if host == "" {
		host = "http://localhost:11434"
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("embedding: invalid ollama host %q: %w", host, err)
	}
	client := api.NewClient(u, &http.Client{Timeout: 30 * time.Second})
	return &OllamaProvider{client: client, model: model, log: log}, nil
}

// truncate bounds text to maxInputSize bytes, backing up so a multi-byte
// UTF-8 rune is never split.
func truncate(text string) string {
	if len(text) <= maxInputSize {
		return text
	}
	cut := maxInputSize
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// Embed requests an embedding for text, retrying transient failures with
// exponential backoff before giving up with ErrService.
func (p *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if t := truncate(text); len(t) < len(text) {
		text = t
		p.log.Debug().Int("limit", maxInputSize).Msg("input truncated for embedding")
	}

	req := &api.EmbeddingRequest{
		Model:  p.model,
		Prompt: text,
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		reqCtx, cancel := context.WithTimeout(ctx, requestLimit)
		resp, err := p.client.Embeddings(reqCtx, req)
		cancel()
		if err == nil {
			vec := make([]float32, len(resp.Embedding))
			for i, v := range resp.Embedding {
				vec[i] = float32(v)
			}
			return vec, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrService, ctx.Err())
		}

		delay := baseDelay << attempt
		p.log.Warn().Err(err).Int("attempt", attempt+1).Dur("retry_in", delay).Msg("embedding request failed")
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrService, ctx.Err())
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("%w: after %d attempts: %v", ErrService, maxRetries, lastErr)
}
