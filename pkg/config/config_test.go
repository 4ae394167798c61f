package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.65, cfg.Retrieval.SimWeight)
	assert.Equal(t, 0.35, cfg.Retrieval.Threshold)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, 384, cfg.Embedding.Dimension)
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Retrieval, cfg.Retrieval)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
retrieval:
  sim_weight: 0.7
  meta_weight: 0.2
  pop_weight: 0.1
  threshold: 0.5
  top_k: 3
log:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.7, cfg.Retrieval.SimWeight)
	assert.Equal(t, 0.5, cfg.Retrieval.Threshold)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched sections keep their defaults.
	assert.Equal(t, "all-minilm", cfg.Ollama.EmbedModel)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "http://ollama.internal:11434")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://ollama.internal:11434", cfg.Ollama.Host)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidateRejectsWeightsNotSummingToOne(t *testing.T) {
	cfg := Default()
	cfg.Retrieval.SimWeight = 0.5
	cfg.Retrieval.MetaWeight = 0.2
	cfg.Retrieval.PopWeight = 0.2

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to 1")
}

func TestValidateRequiresSimilarityDominance(t *testing.T) {
	cfg := Default()
	cfg.Retrieval.SimWeight = 0.3
	cfg.Retrieval.MetaWeight = 0.4
	cfg.Retrieval.PopWeight = 0.3

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dominate")
}

func TestValidateRejectsNonPositiveTopK(t *testing.T) {
	cfg := Default()
	cfg.Retrieval.TopK = 0
	assert.Error(t, cfg.Validate())
}
