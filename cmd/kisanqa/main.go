// Command kisanqa serves the agricultural Q&A API: loads the persisted
// index pair, answers queries over HTTP, and hot-reloads the index when the
// build pipeline replaces the artifacts.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/agrostack/kisanqa-go/internal/adapters/artifactwatcher"
	"github.com/agrostack/kisanqa-go/internal/adapters/embedding"
	"github.com/agrostack/kisanqa-go/internal/adapters/llm"
	"github.com/agrostack/kisanqa-go/internal/adapters/store"
	"github.com/agrostack/kisanqa-go/internal/adapters/vectordb"
	"github.com/agrostack/kisanqa-go/internal/config"
	"github.com/agrostack/kisanqa-go/internal/domain/entities"
	"github.com/agrostack/kisanqa-go/internal/domain/ports"
	"github.com/agrostack/kisanqa-go/internal/domain/usecases"
	httpserver "github.com/agrostack/kisanqa-go/internal/infrastructure/http"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("[ERROR] %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo := vectordb.NewFileRepository(cfg.Data.IndexFile, cfg.Data.MetaFile)
	searcher, queries, answers, err := repo.Load(ctx)
	if errors.Is(err, entities.ErrCorpusNotBuilt) {
		log.Fatalf("[ERROR] %v\nRun: buildindex -config <config>", err)
	}
	if err != nil {
		log.Fatalf("[ERROR] loading index: %v", err)
	}
	log.Printf("[INFO] loaded index: %d entries, dim %d", searcher.Size(), searcher.Dimension())

	embedder, err := newEmbedder(cfg.Embedding)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}

	retrieveUC := usecases.NewRetrieveUseCase(embedder, searcher, queries, answers, usecases.RetrievalConfig{
		MinSimilarity:   cfg.Retrieval.MinSimilarity,
		MaxDisplayHits:  cfg.Retrieval.MaxDisplayHits,
		TopK:            cfg.Retrieval.TopK,
		NoMatchMessage:  cfg.Retrieval.NoMatchMessage,
		SecondaryAnswer: cfg.Retrieval.SecondaryAnswer,
	})

	var augmentUC *usecases.AugmentUseCase
	if cfg.LLM.Enabled {
		llmService, err := newLLM(cfg.LLM)
		if err != nil {
			log.Fatalf("[ERROR] %v", err)
		}
		augmentUC = usecases.NewAugmentUseCase(llmService)
	}

	convs, err := store.NewSQLiteStore(cfg.Data.StoreFile)
	if err != nil {
		log.Fatalf("[ERROR] opening conversation store: %v", err)
	}
	defer convs.Close()

	startArtifactReload(ctx, cfg, repo, retrieveUC)

	server := httpserver.NewServer(retrieveUC, augmentUC, convs, cfg.Server.Addr)
	if err := server.Start(ctx); err != nil {
		log.Fatalf("[ERROR] server: %v", err)
	}
}

// startArtifactReload watches the artifact directory and swaps in rebuilt
// indexes. A failed reload keeps the current handle serving.
func startArtifactReload(ctx context.Context, cfg config.Config, repo *vectordb.FileRepository, uc *usecases.RetrieveUseCase) {
	watcher, err := artifactwatcher.NewFSNotifyWatcher(cfg.Data.IndexFile, cfg.Data.MetaFile)
	if err != nil {
		log.Printf("[WARN] artifact watcher unavailable, hot reload disabled: %v", err)
		return
	}

	changed, err := watcher.Watch(ctx, cfg.Data.Dir)
	if err != nil {
		log.Printf("[WARN] watching %s failed, hot reload disabled: %v", cfg.Data.Dir, err)
		watcher.Stop()
		return
	}

	go func() {
		defer watcher.Stop()
		for path := range changed {
			searcher, queries, answers, err := repo.Load(ctx)
			if err != nil {
				// Likely mid-replacement: index renamed, metadata not yet.
				// The next event retries.
				log.Printf("[WARN] reload after %s changed: %v", path, err)
				continue
			}
			uc.Reload(searcher, queries, answers)
		}
	}()
}

func newEmbedder(cfg config.EmbeddingConfig) (ports.EmbeddingService, error) {
	switch cfg.Provider {
	case "openai":
		return embedding.NewOpenAIAdapter(cfg.APIKey, cfg.BaseURL, cfg.Model)
	default:
		return embedding.NewOllamaAdapter(cfg.BaseURL, cfg.Model), nil
	}
}

func newLLM(cfg config.LLMConfig) (ports.LLMService, error) {
	switch cfg.Provider {
	case "watsonx":
		return llm.NewWatsonxAdapter(cfg.BaseURL, cfg.APIKey, cfg.ProjectID, cfg.Model)
	default:
		return llm.NewOllamaAdapter(cfg.BaseURL, cfg.Model), nil
	}
}
