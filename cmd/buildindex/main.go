// Command buildindex runs the offline pipeline: normalize the raw Q&A
// corpus, embed it, and persist the index/metadata artifact pair.
package main

import (
	"context"
	"errors"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/agrostack/kisanqa-go/internal/adapters/embedding"
	"github.com/agrostack/kisanqa-go/internal/adapters/loader"
	"github.com/agrostack/kisanqa-go/internal/adapters/vectordb"
	"github.com/agrostack/kisanqa-go/internal/config"
	"github.com/agrostack/kisanqa-go/internal/domain/entities"
	"github.com/agrostack/kisanqa-go/internal/domain/ports"
	"github.com/agrostack/kisanqa-go/internal/domain/usecases"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	fromJSON := flag.Bool("from-json", false, "build from the portable QA JSON artifact instead of the raw CSV")
	flag.Parse()

	// .env is optional; real env wins either way.
	_ = godotenv.Load()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("[ERROR] %v", err)
		}
	}

	var (
		raw entities.RawTable
		err error
	)
	if *fromJSON {
		raw, err = loader.LoadQAJSON(cfg.Data.QAJSON)
	} else {
		raw, err = loader.LoadCSV(cfg.Data.RawCSV)
	}
	if errors.Is(err, entities.ErrMissingInput) {
		log.Fatalf("[ERROR] %v\nAdd the raw corpus (columns: query/question, answer) and re-run.", err)
	}
	if err != nil {
		log.Fatalf("[ERROR] loading raw corpus: %v", err)
	}

	embedder, err := newEmbedder(cfg.Embedding)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}

	repo := vectordb.NewFileRepository(cfg.Data.IndexFile, cfg.Data.MetaFile)
	uc := usecases.NewBuildUseCase(embedder, repo)

	entries, err := uc.Build(context.Background(), raw)
	if err != nil {
		log.Fatalf("[ERROR] build failed: %v", err)
	}

	if !*fromJSON {
		if err := loader.SaveQAJSON(cfg.Data.QAJSON, entries); err != nil {
			log.Fatalf("[ERROR] writing QA JSON: %v", err)
		}
	}

	log.Printf("[INFO] build complete: %d entries indexed", len(entries))
}

func newEmbedder(cfg config.EmbeddingConfig) (ports.EmbeddingService, error) {
	switch cfg.Provider {
	case "openai":
		return embedding.NewOpenAIAdapter(cfg.APIKey, cfg.BaseURL, cfg.Model)
	default:
		return embedding.NewOllamaAdapter(cfg.BaseURL, cfg.Model), nil
	}
}
