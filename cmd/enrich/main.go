// Command enrich runs the offline enrichment step: it fits the popularity
// decay model from the episode engagement corpus, computes normalized
// popularity scores, ranks and tiers for every series, embeds summaries that
// lack vectors, and optionally indexes the result into Qdrant. The recommend
// CLI consumes the enriched corpus file it writes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/andrew/webtoon-rag/pkg/config"
	"github.com/andrew/webtoon-rag/pkg/corpus"
	"github.com/andrew/webtoon-rag/pkg/embedding"
	"github.com/andrew/webtoon-rag/pkg/logging"
	"github.com/andrew/webtoon-rag/pkg/models"
	"github.com/andrew/webtoon-rag/pkg/popularity"
	"github.com/andrew/webtoon-rag/pkg/vector"
)

var (
	configPath     = flag.String("config", "", "Path to YAML config file")
	itemsPath      = flag.String("items", "", "Path to raw items JSON (overrides config)")
	engagementPath = flag.String("engagement", "", "Path to episode engagement JSON (overrides config)")
	outPath        = flag.String("out", "data/items_enriched.json", "Where to write the enriched corpus")
	indexQdrant    = flag.Bool("index", false, "Also index embeddings into Qdrant")
	recreate       = flag.Bool("recreate", false, "Recreate the Qdrant collection if it exists")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *itemsPath != "" {
		cfg.Corpus.ItemsPath = *itemsPath
	}
	if *engagementPath != "" {
		cfg.Corpus.EngagementPath = *engagementPath
	}
	log := logging.New(cfg.Log.Level)
	ctx := context.Background()

	items, err := corpus.LoadItems(cfg.Corpus.ItemsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load items")
	}
	engagements, err := corpus.LoadEngagements(cfg.Corpus.EngagementPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load engagement data")
	}
	fmt.Printf("📚 Loaded %d series and %d engagement records\n", len(items), len(engagements))

	// Fitting is a batch operation over the full corpus; per-request code
	// only ever reads the resulting scores.
	fitted, err := popularity.Fit(engagements)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to fit popularity model")
	}
	fmt.Printf("📈 Fitted decay curve: alpha=%.2f beta=%.4f (R²=%.3f)\n", fitted.Alpha, fitted.Beta, fitted.R2)

	bySeries := make(map[string][]models.EpisodeEngagement)
	for _, e := range engagements {
		bySeries[e.SeriesID] = append(bySeries[e.SeriesID], e)
	}

	raw := make(map[string]float64, len(items))
	for _, it := range items {
		raw[it.ID] = fitted.SeriesScore(bySeries[it.ID])
	}
	normalized := popularity.NormalizeCorpus(raw)
	tiers := popularity.AssignTiers(normalized)
	ranks := popularity.Ranks(normalized)

	for _, it := range items {
		it.PopularityRaw = raw[it.ID]
		it.PopularityNormalized = normalized[it.ID]
		it.PopularityRank = ranks[it.ID]
		it.Tier = tiers[it.ID]
	}

	embedded, err := embedSummaries(ctx, cfg, items)
	if err != nil {
		log.Fatal().Err(err).Msg("embedding failed")
	}
	if embedded > 0 {
		fmt.Printf("🧮 Generated embeddings for %d series\n", embedded)
	}
	missing := 0
	for _, it := range items {
		if len(it.Embedding) == 0 {
			missing++
		}
	}
	if missing > 0 {
		log.Warn().Int("series", missing).Msg("series without summaries have no embedding and will not be retrievable")
	}

	if *indexQdrant {
		if err := indexInQdrant(ctx, cfg, items, *recreate); err != nil {
			log.Fatal().Err(err).Msg("qdrant indexing failed")
		}
		fmt.Printf("✅ Indexed %d series into Qdrant collection %q\n", len(items), cfg.Qdrant.Collection)
	}

	if err := corpus.WriteItems(*outPath, items); err != nil {
		log.Fatal().Err(err).Msg("failed to write enriched corpus")
	}
	fmt.Printf("✅ Enriched corpus written to %s\n", *outPath)
}

// embedSummaries fills in missing item embeddings from the summary text.
func embedSummaries(ctx context.Context, cfg *config.Config, items []*models.Item) (int, error) {
	var pending []*models.Item
	for _, it := range items {
		if len(it.Embedding) == 0 && it.Summary != "" {
			pending = append(pending, it)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	provider, err := embedding.NewOllamaProvider(cfg.Ollama.Host, cfg.Ollama.EmbedModel, logging.New(cfg.Log.Level))
	if err != nil {
		return 0, err
	}
	for i, it := range pending {
		vec, err := provider.Embed(ctx, it.Summary)
		if err != nil {
			return i, fmt.Errorf("series %s: %w", it.ID, err)
		}
		it.Embedding = vec
	}
	return len(pending), nil
}

// indexInQdrant upserts every item's embedding with a payload carrying the
// fields retrieval surfaces in grounding records.
func indexInQdrant(ctx context.Context, cfg *config.Config, items []*models.Item, recreate bool) error {
	store, err := vector.NewQdrantStore(cfg.Qdrant.Addr, cfg.Qdrant.Collection, cfg.Embedding.Dimension)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.EnsureCollection(ctx, recreate); err != nil {
		return err
	}
	for _, it := range items {
		if len(it.Embedding) == 0 {
			continue
		}
		payload := map[string]string{
			"title": it.Title,
			"genre": joinComma(it.Genres),
			"tier":  string(it.Tier),
		}
		if err := store.Upsert(ctx, it.ID, it.Embedding, payload); err != nil {
			return fmt.Errorf("series %s: %w", it.ID, err)
		}
	}
	return nil
}

func joinComma(parts []string) string {
	return strings.Join(parts, ",")
}
