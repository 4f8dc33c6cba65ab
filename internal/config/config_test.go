package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "insights.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ProviderTFIDF, cfg.Embedder.Provider)
	assert.Equal(t, "http://localhost:11434", cfg.Embedder.Ollama.BaseURL)
	assert.Equal(t, "nomic-embed-text", cfg.Embedder.Ollama.Model)
	assert.Equal(t, 30.0, cfg.Search.RecencyHalfLifeDays)
	assert.Equal(t, 20, cfg.Search.MaxResults)
	assert.True(t, cfg.Rumination.Enabled)
	assert.Equal(t, 30, cfg.Rumination.IntervalMinutes)
	assert.Equal(t, 0.25, cfg.Rumination.MinSimilarity)
	assert.Equal(t, "INSIGHTS Digest.md", cfg.Rumination.DigestNotePath)
	assert.Equal(t, 0.4, cfg.Rumination.NoveltyWeight)
	assert.Equal(t, 8, cfg.Rumination.AllowedStartHour)
	assert.Equal(t, 22, cfg.Rumination.AllowedEndHour)
	assert.Equal(t, 3, cfg.Rumination.MaxRepeatsPerPair)
	assert.True(t, cfg.Rumination.BridgeSummary)
	assert.False(t, cfg.Rumination.WriteDigest)
	assert.Equal(t, "raw", cfg.Index.IDF)
	assert.Equal(t, BackendFile, cfg.State.Backend)
	assert.NotEmpty(t, cfg.State.Path)
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := writeFile(t, `
embedder:
  provider: Ollama
  ollama:
    model: mxbai-embed-large
rumination:
  min_similarity: 0.1
  focus_tags: "research, ideas"
some_future_key: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderOllama, cfg.Embedder.Provider)
	assert.Equal(t, "mxbai-embed-large", cfg.Embedder.Ollama.Model)
	assert.Equal(t, "http://localhost:11434", cfg.Embedder.Ollama.BaseURL, "sibling keys keep defaults")
	assert.Equal(t, 0.1, cfg.Rumination.MinSimilarity)
	assert.Equal(t, "research, ideas", cfg.Rumination.FocusTags)
	assert.Equal(t, 30, cfg.Rumination.IntervalMinutes)
	assert.True(t, cfg.Rumination.Enabled)
}

func TestLoad_NormalizesRanges(t *testing.T) {
	path := writeFile(t, `
vault:
  debounce_ms: 10
search:
  max_results: 0
rumination:
  interval_minutes: 0
  novelty_weight: 3
  min_similarity: -1
  allowed_start_hour: 30
  allowed_end_hour: -2
  max_repeats_per_pair: 0
index:
  workers: 0
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, MinDebounceMs, cfg.Vault.DebounceMs)
	assert.Equal(t, 20, cfg.Search.MaxResults)
	assert.Equal(t, 1, cfg.Rumination.IntervalMinutes)
	assert.Equal(t, 1.0, cfg.Rumination.NoveltyWeight)
	assert.Equal(t, 0.0, cfg.Rumination.MinSimilarity)
	assert.Equal(t, 23, cfg.Rumination.AllowedStartHour)
	assert.Equal(t, 0, cfg.Rumination.AllowedEndHour)
	assert.Equal(t, 1, cfg.Rumination.MaxRepeatsPerPair)
	assert.Equal(t, 4, cfg.Index.Workers)
}

func TestLoad_RejectsUnknownValues(t *testing.T) {
	tests := map[string]string{
		"provider": "embedder:\n  provider: word2vec\n",
		"backend":  "state:\n  backend: postgres\n",
		"idf":      "index:\n  idf: bm25\n",
		"syntax":   "vault: [unclosed\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, content))
			assert.Error(t, err)
		})
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Rumination.WriteDigest = true
	cfg.State.Backend = BackendSQLite
	cfg.State.Path = "/tmp/state.db"

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDefaultStatePathFollowsBackend(t *testing.T) {
	assert.Equal(t, "state.yaml", filepath.Base(defaultStatePath(BackendFile)))
	assert.Equal(t, "state.db", filepath.Base(defaultStatePath(BackendSQLite)))
}
