package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ProviderTFIDF  = "tfidf-local"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"

	BackendFile   = "file"
	BackendSQLite = "sqlite"

	// MinDebounceMs is the shortest allowed rebuild debounce window.
	MinDebounceMs = 300
)

// VaultConfig points at the document directory and controls automatic indexing.
type VaultConfig struct {
	Path                   string `yaml:"path"`
	IndexOnStartup         bool   `yaml:"index_on_startup"`
	AutoUpdateOnFileChange bool   `yaml:"auto_update_on_file_change"`
	DebounceMs             int    `yaml:"debounce_ms"`
}

// OllamaEmbedderConfig configures the local HTTP embedding service.
type OllamaEmbedderConfig struct {
	BaseURL           string  `yaml:"base_url"`
	Model             string  `yaml:"model"`
	TimeoutSecs       int     `yaml:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKeyEnv  string `yaml:"api_key_env"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// EmbedderConfig selects the dense embedding provider. tfidf-local disables the dense path.
type EmbedderConfig struct {
	Provider string               `yaml:"provider"`
	Ollama   OllamaEmbedderConfig `yaml:"ollama"`
	OpenAI   OpenAIEmbedderConfig `yaml:"openai"`
}

// IndexConfig tunes index builds.
type IndexConfig struct {
	IDF     string `yaml:"idf"`
	Workers int    `yaml:"workers"`
}

// SearchConfig tunes ranking.
type SearchConfig struct {
	RecencyHalfLifeDays float64 `yaml:"recency_half_life_days"`
	MaxResults          int     `yaml:"max_results"`
}

// RuminationConfig controls the background pair scan.
type RuminationConfig struct {
	Enabled               bool    `yaml:"enabled"`
	IntervalMinutes       int     `yaml:"interval_minutes"`
	MinSimilarity         float64 `yaml:"min_similarity"`
	UseLinkGraphWeighting bool    `yaml:"use_link_graph_weighting"`
	WriteDigest           bool    `yaml:"write_digest"`
	DigestNotePath        string  `yaml:"digest_note_path"`
	NoveltyWeight         float64 `yaml:"novelty_weight"`
	FocusTags             string  `yaml:"focus_tags"`
	AllowedStartHour      int     `yaml:"allowed_start_hour"`
	AllowedEndHour        int     `yaml:"allowed_end_hour"`
	MaxRepeatsPerPair     int     `yaml:"max_repeats_per_pair"`
	BridgeSummary         bool    `yaml:"bridge_summary"`
}

// StateConfig selects where novelty state is persisted.
type StateConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// HTTPConfig configures the optional HTTP surface.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Vault      VaultConfig      `yaml:"vault"`
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Index      IndexConfig      `yaml:"index"`
	Search     SearchConfig     `yaml:"search"`
	Rumination RuminationConfig `yaml:"rumination"`
	State      StateConfig      `yaml:"state"`
	HTTP       HTTPConfig       `yaml:"http"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// Load reads a config from path on top of the defaults. A missing file yields the defaults.
// Unknown keys are ignored.
func Load(path string) (*AppConfig, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyConfigDefaults(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyConfigDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault tries ./insights.yaml first, then ~/.config/insights/config.yaml.
// If neither exists, it writes defaults to ~/.config/insights/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "insights.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	applyConfigDefaults(cfg)
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Default returns the built-in settings.
func Default() *AppConfig {
	cfg := defaultConfig()
	applyConfigDefaults(cfg)
	return cfg
}

// Validate rejects values that cannot be normalized.
func (c *AppConfig) Validate() error {
	switch c.Embedder.Provider {
	case ProviderTFIDF, ProviderOllama, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown embedder provider %q", c.Embedder.Provider)
	}
	switch c.State.Backend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("unknown state backend %q", c.State.Backend)
	}
	switch c.Index.IDF {
	case "raw", "smooth":
	default:
		return fmt.Errorf("unknown idf mode %q", c.Index.IDF)
	}
	return nil
}

func defaultUserConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "insights"), nil
}

func defaultUserConfigPath() (string, error) {
	dir, err := defaultUserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func defaultStatePath(backend string) string {
	name := "state.yaml"
	if backend == BackendSQLite {
		name = "state.db"
	}
	dir, err := defaultUserConfigDir()
	if err != nil {
		return filepath.Join(".insights", name)
	}
	return filepath.Join(dir, name)
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Vault: VaultConfig{
			Path:                   ".",
			IndexOnStartup:         true,
			AutoUpdateOnFileChange: true,
			DebounceMs:             MinDebounceMs,
		},
		Embedder: EmbedderConfig{
			Provider: ProviderTFIDF,
			Ollama: OllamaEmbedderConfig{
				BaseURL:     "http://localhost:11434",
				Model:       "nomic-embed-text",
				TimeoutSecs: 30,
			},
			OpenAI: OpenAIEmbedderConfig{
				BaseURL:   "https://api.openai.com/v1",
				APIKeyEnv: "OPENAI_API_KEY",
				Model:     "text-embedding-3-small",
			},
		},
		Index: IndexConfig{IDF: "raw", Workers: 4},
		Search: SearchConfig{
			RecencyHalfLifeDays: 30,
			MaxResults:          20,
		},
		Rumination: RuminationConfig{
			Enabled:               true,
			IntervalMinutes:       30,
			MinSimilarity:         0.25,
			UseLinkGraphWeighting: true,
			WriteDigest:           false,
			DigestNotePath:        "INSIGHTS Digest.md",
			NoveltyWeight:         0.4,
			FocusTags:             "",
			AllowedStartHour:      8,
			AllowedEndHour:        22,
			MaxRepeatsPerPair:     3,
			BridgeSummary:         true,
		},
		State:   StateConfig{Backend: BackendFile},
		HTTP:    HTTPConfig{Addr: "127.0.0.1:8787"},
		Logging: LoggingConfig{Env: "local", Level: "info"},
	}
}

// applyConfigDefaults normalizes ranges and fills values left empty by the file.
func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Vault.Path == "" {
		cfg.Vault.Path = "."
	}
	if cfg.Vault.DebounceMs < MinDebounceMs {
		cfg.Vault.DebounceMs = MinDebounceMs
	}

	cfg.Embedder.Provider = strings.ToLower(strings.TrimSpace(cfg.Embedder.Provider))
	if cfg.Embedder.Provider == "" {
		cfg.Embedder.Provider = ProviderTFIDF
	}
	if cfg.Embedder.Ollama.TimeoutSecs <= 0 {
		cfg.Embedder.Ollama.TimeoutSecs = 30
	}
	if cfg.Embedder.Ollama.RequestsPerSecond < 0 {
		cfg.Embedder.Ollama.RequestsPerSecond = 0
	}
	if cfg.Embedder.OpenAI.APIKeyEnv == "" {
		cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
	}

	cfg.Index.IDF = strings.ToLower(strings.TrimSpace(cfg.Index.IDF))
	if cfg.Index.IDF == "" {
		cfg.Index.IDF = "raw"
	}
	if cfg.Index.Workers < 1 {
		cfg.Index.Workers = 4
	}

	if cfg.Search.MaxResults <= 0 {
		cfg.Search.MaxResults = 20
	}

	r := &cfg.Rumination
	if r.IntervalMinutes < 1 {
		r.IntervalMinutes = 1
	}
	r.MinSimilarity = clamp(r.MinSimilarity, 0, 1)
	r.NoveltyWeight = clamp(r.NoveltyWeight, 0, 1)
	r.AllowedStartHour = int(clamp(float64(r.AllowedStartHour), 0, 23))
	r.AllowedEndHour = int(clamp(float64(r.AllowedEndHour), 0, 23))
	if r.MaxRepeatsPerPair < 1 {
		r.MaxRepeatsPerPair = 1
	}
	if r.DigestNotePath == "" {
		r.DigestNotePath = "INSIGHTS Digest.md"
	}

	cfg.State.Backend = strings.ToLower(strings.TrimSpace(cfg.State.Backend))
	if cfg.State.Backend == "" {
		cfg.State.Backend = BackendFile
	}
	if cfg.State.Path == "" {
		cfg.State.Path = defaultStatePath(cfg.State.Backend)
	}

	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = "127.0.0.1:8787"
	}
	if cfg.Logging.Env == "" {
		cfg.Logging.Env = "local"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
