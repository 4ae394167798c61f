package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var leadingNumber = regexp.MustCompile(`^\d+[\.)]\s*`)

// buildExplanationPrompt formats the grounding records into a prompt that
// asks for a JSON array with one explanation per item.
func buildExplanationPrompt(query string, items []GroundingItem) string {
	var ctx []string
	for i, it := range items {
		ctx = append(ctx, fmt.Sprintf(
			"%d. %s - Genre: %s, Popularity: %s\n   Summary: %s",
			i+1, it.Title, it.Genre, it.Tier, it.Summary,
		))
	}

	return fmt.Sprintf(`You are a webtoon recommendation expert. Generate personalized explanations for why each webtoon matches the user's query.

USER QUERY: %s

WEBTOONS TO EXPLAIN:
%s

TASK:
For each webtoon above, write a 1-2 sentence explanation of why it matches the user's preferences.
Focus on the specific aspects they're looking for.

Return your response as a JSON array of explanations in this exact format:
[
  "Explanation for webtoon 1",
  "Explanation for webtoon 2"
]

IMPORTANT: Return ONLY the JSON array, no other text.`, query, strings.Join(ctx, "\n\n"))
}

// parseExplanations extracts explanations from the model response. It
// prefers the JSON array the prompt asks for and falls back to splitting
// lines with any leading numbering removed. The result always has exactly
// expected entries; missing ones are empty strings.
func parseExplanations(raw string, expected int) []string {
	response := strings.TrimSpace(raw)

	// Strip markdown code fences if present.
	if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```json")
		response = strings.TrimPrefix(response, "```")
		response = strings.TrimSuffix(response, "```")
		response = strings.TrimSpace(response)
	}

	var parsed []string
	if err := json.Unmarshal([]byte(response), &parsed); err == nil {
		return padTo(parsed, expected)
	}

	var cleaned []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(leadingNumber.ReplaceAllString(strings.TrimSpace(line), ""))
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return padTo(cleaned, expected)
}

func padTo(s []string, n int) []string {
	if len(s) > n {
		s = s[:n]
	}
	for len(s) < n {
		s = append(s, "")
	}
	return s
}
