package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.InDelta(t, 0.32, cfg.Retrieval.MinSimilarity, 1e-6)
	assert.Equal(t, 3, cfg.Retrieval.MaxDisplayHits)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.True(t, cfg.Retrieval.SecondaryAnswer)
	assert.Equal(t, filepath.Join("data", "kcc_index.gob"), cfg.Data.IndexFile)
	assert.NoError(t, cfg.Validate())
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
data:
  dir: /var/lib/kisanqa
embedding:
  provider: ollama
  model: all-minilm
retrieval:
  min_similarity: 0.4
  max_display_hits: 2
server:
  addr: ":9090"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/kisanqa", cfg.Data.Dir)
	assert.Equal(t, "all-minilm", cfg.Embedding.Model)
	assert.InDelta(t, 0.4, cfg.Retrieval.MinSimilarity, 1e-6)
	assert.Equal(t, 2, cfg.Retrieval.MaxDisplayHits)
	assert.Equal(t, ":9090", cfg.Server.Addr)

	// Unset artifact paths follow the data dir.
	assert.Equal(t, filepath.Join("/var/lib/kisanqa", "kcc_index.gob"), cfg.Data.IndexFile)
	// Unset sections keep defaults.
	assert.Equal(t, 5, cfg.Retrieval.TopK)
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("KISANQA_API_KEY", "secret-from-env")
	path := writeConfig(t, `
embedding:
  provider: openai
  api_key: ${KISANQA_API_KEY}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-from-env", cfg.Embedding.APIKey)
}

func TestLoad_InvalidProvider(t *testing.T) {
	path := writeConfig(t, `
embedding:
  provider: sentencepiece
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_OpenAIRequiresKey(t *testing.T) {
	path := writeConfig(t, `
embedding:
  provider: openai
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_WatsonxRequiresCredentials(t *testing.T) {
	path := writeConfig(t, `
llm:
  enabled: true
  provider: watsonx
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
