package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OllamaExplainer generates explanations through the Ollama generate API.
type OllamaExplainer struct {
	baseURL    string
	httpClient *http.Client
	modelName  string
}

// ollamaRequest represents a request to the Ollama generate endpoint.
type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float32 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// ollamaResponse is one chunk of the streamed generate response.
type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewOllamaExplainer creates a client for a local Ollama server.
func NewOllamaExplainer(modelName, baseURL string) *OllamaExplainer {
	if baseURL == "" {
		baseURL = "http://localhost:11434/api"
	}
	return &OllamaExplainer{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		modelName: modelName,
	}
}

// Explain prompts the model with the query and grounding records and parses
// one explanation per item from the response.
func (c *OllamaExplainer) Explain(ctx context.Context, query string, items []GroundingItem) ([]string, error) {
	if len(items) == 0 {
		return nil, nil
	}
	raw, err := c.generate(ctx, buildExplanationPrompt(query, items))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrService, err)
	}
	return parseExplanations(raw, len(items)), nil
}

// generate sends a prompt to the generate endpoint and concatenates the
// streamed response chunks.
func (c *OllamaExplainer) generate(ctx context.Context, prompt string) (string, error) {
	req := ollamaRequest{
		Model:  c.modelName,
		Prompt: prompt,
		Options: ollamaOptions{
			Temperature: 0.3,
			NumPredict:  1024,
		},
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/generate", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Ollama API error (status %d): %s", resp.StatusCode, body)
	}

	// Ollama returns a stream of JSON objects, one per line.
	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		var chunk ollamaResponse
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			return "", fmt.Errorf("failed to parse Ollama response chunk: %v", err)
		}
		full.WriteString(chunk.Response)
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("error reading response stream: %v", err)
	}

	return full.String(), nil
}
