package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/andrew/webtoon-rag/pkg/classify"
	"github.com/andrew/webtoon-rag/pkg/config"
	"github.com/andrew/webtoon-rag/pkg/corpus"
	"github.com/andrew/webtoon-rag/pkg/embedding"
	"github.com/andrew/webtoon-rag/pkg/llm"
	"github.com/andrew/webtoon-rag/pkg/logging"
	"github.com/andrew/webtoon-rag/pkg/pipeline"
	"github.com/andrew/webtoon-rag/pkg/retrieval"
	"github.com/andrew/webtoon-rag/pkg/validate"
)

var (
	configPath = flag.String("config", "", "Path to YAML config file")
	itemsPath  = flag.String("items", "", "Path to the enriched items JSON (overrides config)")
	topK       = flag.Int("top-k", 0, "Number of recommendations to return (overrides config)")
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
	if *topK > 0 {
		cfg.Retrieval.TopK = *topK
	}
	log := logging.New(cfg.Log.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Println("\nShutting down...")
		cancel()
		os.Exit(0)
	}()

	// Initialization must finish before any request is served: the corpus
	// handle stays empty until the index is fully built.
	items, err := corpus.LoadItems(cfg.Corpus.ItemsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load corpus")
	}
	index, err := corpus.NewIndex(items)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build corpus index")
	}
	handle := &corpus.Handle{}
	handle.Store(index)

	provider, err := embedding.NewOllamaProvider(cfg.Ollama.Host, cfg.Ollama.EmbedModel, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create embedding provider")
	}
	embedder, err := embedding.NewCached(provider, cfg.Embedding.CacheSize)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create embedding cache")
	}

	p := pipeline.New(
		validate.New(cfg.Input.MinLength, cfg.Input.MaxLength),
		classify.New(index.Titles()),
		embedder,
		retrieval.New(retrieval.Weights{
			Similarity: cfg.Retrieval.SimWeight,
			Metadata:   cfg.Retrieval.MetaWeight,
			Popularity: cfg.Retrieval.PopWeight,
		}, cfg.Retrieval.Threshold, log),
		llm.NewOllamaExplainer(cfg.Ollama.ChatModel, cfg.Ollama.Host+"/api"),
		handle,
		cfg.Retrieval.TopK,
		log,
	)

	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Println(boldGreen("📚 Webtoon Recommender"))
	fmt.Printf("Corpus: %d series, embedding model: %s\n", index.Len(), boldCyan(cfg.Ollama.EmbedModel))
	fmt.Println("Describe what you want to read. Type 'exit' or press Ctrl+C to quit.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(boldGreen("You: "))
		if !scanner.Scan() {
			break
		}
		input := scanner.Text()
		if strings.ToLower(strings.TrimSpace(input)) == "exit" {
			break
		}

		result, err := p.Run(ctx, input)
		if err != nil {
			if errors.Is(err, embedding.ErrService) || errors.Is(err, llm.ErrService) {
				fmt.Fprintf(os.Stderr, "Service error: %v\n", err)
				fmt.Println("Make sure Ollama is running with: ollama serve")
			} else {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			continue
		}

		if result.Rejected {
			fmt.Println(yellow(result.RejectionMessage))
			fmt.Println()
			continue
		}

		fmt.Printf("\n%s (query type: %s, confidence %.2f)\n\n", boldCyan("Recommendations"), result.Intent, result.Confidence)
		for i, rec := range result.Recommendations {
			fmt.Printf("%d. %s  [%s | %s | similarity %.2f]\n", i+1, boldGreen(rec.Title), rec.Genre, rec.Tier, rec.Similarity)
			if rec.Explanation != "" {
				fmt.Printf("   %s\n", rec.Explanation)
			}
			fmt.Printf("   %s\n\n", rec.Description)
		}
	}
}
