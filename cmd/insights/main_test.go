package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insights/internal/config"
	"insights/internal/domain"
	"insights/internal/rumination"
)

func writeVault(t *testing.T) (vaultDir, cfgFile string) {
	t.Helper()
	root := t.TempDir()
	vaultDir = filepath.Join(root, "vault")
	require.NoError(t, os.MkdirAll(vaultDir, 0o755))

	notes := map[string]string{
		"garden.md": "# Garden\nWatering the garden plants daily.",
		"plants.md": "Plants need watering and sunlight.",
		"taxes.md":  "Quarterly taxes filing deadline.",
	}
	for name, body := range notes {
		require.NoError(t, os.WriteFile(filepath.Join(vaultDir, name), []byte(body), 0o644))
	}

	cfgFile = filepath.Join(root, "insights.yaml")
	yaml := fmt.Sprintf(`vault:
  path: %q
index:
  idf: smooth
rumination:
  min_similarity: 0
  use_link_graph_weighting: false
  write_digest: true
state:
  backend: file
  path: %q
logging:
  level: error
`, vaultDir, filepath.Join(root, "state.yaml"))
	require.NoError(t, os.WriteFile(cfgFile, []byte(yaml), 0o644))
	return vaultDir, cfgFile
}

// execute runs the root command with fresh flag values and returns stdout.
func execute(t *testing.T, args ...string) string {
	t.Helper()
	cfgPath, verbose = "", false
	searchLimit, searchJSON = 10, false
	ruminateForce, ruminateJSON = false, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestSearchCommand_JSON(t *testing.T) {
	_, cfgFile := writeVault(t)

	out := execute(t, "--config", cfgFile, "search", "garden", "--json")

	var results []domain.SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.NotEmpty(t, results)
	assert.Equal(t, "garden.md", results[0].Path)
	assert.Equal(t, "Garden", results[0].Title)
}

func TestSearchCommand_Text(t *testing.T) {
	_, cfgFile := writeVault(t)

	out := execute(t, "--config", cfgFile, "search", "quarterly", "taxes", "-n", "1")
	assert.Contains(t, out, `1 results for "quarterly taxes"`)
	assert.Contains(t, out, "taxes.md")
}

func TestIndexCommand(t *testing.T) {
	_, cfgFile := writeVault(t)

	out := execute(t, "--config", cfgFile, "index")
	assert.Contains(t, out, "Indexed 3 documents")
	assert.Contains(t, out, "dense off")
}

func TestRuminateCommand(t *testing.T) {
	vaultDir, cfgFile := writeVault(t)

	out := execute(t, "--config", cfgFile, "ruminate", "--force", "--json")

	var suggestions []domain.Suggestion
	require.NoError(t, json.Unmarshal([]byte(out), &suggestions))
	require.NotEmpty(t, suggestions)
	assert.Equal(t, "garden.md", suggestions[0].APath)
	assert.Equal(t, "plants.md", suggestions[0].BPath)

	digest, err := os.ReadFile(filepath.Join(vaultDir, rumination.DefaultDigestPath))
	require.NoError(t, err)
	assert.Contains(t, string(digest), rumination.DigestHeader)

	state, err := os.ReadFile(filepath.Join(filepath.Dir(cfgFile), "state.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(state), "garden.md")
}

func TestRuminationConfig(t *testing.T) {
	c := config.Default().Rumination
	c.IntervalMinutes = 5
	c.FocusTags = "#work"

	got := ruminationConfig(c)
	assert.Equal(t, 5*time.Minute, got.Interval)
	assert.Equal(t, c.UseLinkGraphWeighting, got.UseLinkGraph)
	assert.Equal(t, c.DigestNotePath, got.DigestPath)
	assert.Equal(t, "#work", got.FocusTags)
	assert.Equal(t, c.MaxRepeatsPerPair, got.MaxRepeatsPerPair)

	def := rumination.DefaultConfig()
	def.Interval = 5 * time.Minute
	def.FocusTags = "#work"
	assert.Equal(t, def, got, "default settings map onto the ruminator defaults")
}
