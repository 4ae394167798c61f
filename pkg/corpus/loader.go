package corpus

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/andrew/webtoon-rag/pkg/models"
)

// LoadItems reads the enriched item corpus from a JSON file.
func LoadItems(path string) ([]*models.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: failed to read items file: %w", err)
	}
	var items []*models.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("corpus: failed to parse items file: %w", err)
	}
	return items, nil
}

// LoadEngagements reads the per-episode engagement corpus from a JSON file.
func LoadEngagements(path string) ([]models.EpisodeEngagement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: failed to read engagement file: %w", err)
	}
	var engagements []models.EpisodeEngagement
	if err := json.Unmarshal(data, &engagements); err != nil {
		return nil, fmt.Errorf("corpus: failed to parse engagement file: %w", err)
	}
	return engagements, nil
}

// WriteItems writes the enriched corpus back to disk.
func WriteItems(path string, items []*models.Item) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("corpus: failed to encode items: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("corpus: failed to write items file: %w", err)
	}
	return nil
}
