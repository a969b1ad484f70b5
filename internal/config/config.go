// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration, loaded from YAML with
// environment variable expansion (${VAR} references resolve before parsing).
type Config struct {
	Data      DataConfig      `yaml:"data"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	LLM       LLMConfig       `yaml:"llm"`
	Server    ServerConfig    `yaml:"server"`
}

// DataConfig locates the corpus source and the persisted artifacts.
type DataConfig struct {
	Dir       string `yaml:"dir" validate:"required"`
	RawCSV    string `yaml:"raw_csv"`
	QAJSON    string `yaml:"qa_json"`
	IndexFile string `yaml:"index_file"`
	MetaFile  string `yaml:"meta_file"`
	StoreFile string `yaml:"store_file"`
}

// EmbeddingConfig selects and parameterizes the embedding encoder.
type EmbeddingConfig struct {
	Provider string `yaml:"provider" validate:"oneof=ollama openai"`
	BaseURL  string `yaml:"base_url" validate:"omitempty,url"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
}

// RetrievalConfig carries the engine tuning knobs. Threshold and cap are
// empirical defaults, not derived constants.
type RetrievalConfig struct {
	MinSimilarity   float32 `yaml:"min_similarity" validate:"gte=-1,lte=1"`
	MaxDisplayHits  int     `yaml:"max_display_hits" validate:"gte=0,lte=10"`
	TopK            int     `yaml:"top_k" validate:"gte=0,lte=100"`
	NoMatchMessage  string  `yaml:"no_match_message"`
	SecondaryAnswer bool    `yaml:"secondary_answer"`
}

// LLMConfig parameterizes the optional online-answer model.
type LLMConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Provider  string `yaml:"provider" validate:"omitempty,oneof=ollama watsonx"`
	BaseURL   string `yaml:"base_url" validate:"omitempty,url"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	ProjectID string `yaml:"project_id"`
}

// ServerConfig holds HTTP serving options.
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	cfg := baseDefaults()
	cfg.applyPathDefaults()
	return cfg
}

// baseDefaults leaves the derived artifact paths unset so a config file can
// override the data directory and still get consistent paths.
func baseDefaults() Config {
	return Config{
		Data: DataConfig{Dir: "data"},
		Embedding: EmbeddingConfig{
			Provider: "ollama",
			Model:    "nomic-embed-text",
		},
		Retrieval: RetrievalConfig{
			MinSimilarity:   0.32,
			MaxDisplayHits:  3,
			TopK:            5,
			SecondaryAnswer: true,
		},
		LLM: LLMConfig{
			Provider: "ollama",
			Model:    "llama3.2",
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load reads the YAML file at path, expands environment references,
// applies defaults for unset fields and validates the result.
func Load(path string) (Config, error) {
	cfg := baseDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyPathDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyPathDefaults fills artifact paths relative to the data directory.
func (c *Config) applyPathDefaults() {
	if c.Data.Dir == "" {
		c.Data.Dir = "data"
	}
	if c.Data.RawCSV == "" {
		c.Data.RawCSV = filepath.Join(c.Data.Dir, "raw_kcc.csv")
	}
	if c.Data.QAJSON == "" {
		c.Data.QAJSON = filepath.Join(c.Data.Dir, "kcc_qa_pairs.json")
	}
	if c.Data.IndexFile == "" {
		c.Data.IndexFile = filepath.Join(c.Data.Dir, "kcc_index.gob")
	}
	if c.Data.MetaFile == "" {
		c.Data.MetaFile = filepath.Join(c.Data.Dir, "kcc_meta.json")
	}
	if c.Data.StoreFile == "" {
		c.Data.StoreFile = filepath.Join(c.Data.Dir, "conversations.db")
	}
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Embedding.Provider == "openai" && c.Embedding.APIKey == "" {
		return fmt.Errorf("invalid config: embedding.api_key is required for the openai provider")
	}
	if c.LLM.Enabled && c.LLM.Provider == "watsonx" && (c.LLM.APIKey == "" || c.LLM.ProjectID == "") {
		return fmt.Errorf("invalid config: llm.api_key and llm.project_id are required for watsonx")
	}
	return nil
}
