package embedding

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"insights/internal/config"
	"insights/internal/domain"
	"insights/internal/embedding/ollama"
	"insights/internal/embedding/openai"
	"insights/internal/metrics"
)

// Embedder converts texts into dense vectors, one per input, in order.
type Embedder = domain.Embedder

// New builds the dense embedder selected by cfg.Provider.
// tfidf-local returns nil: the index stays sparse-only.
func New(cfg config.EmbedderConfig, logger *zap.Logger, m *metrics.Metrics) (Embedder, error) {
	switch cfg.Provider {
	case "", config.ProviderTFIDF:
		return nil, nil
	case config.ProviderOllama:
		return ollama.NewClient(ollama.Config{
			BaseURL:           cfg.Ollama.BaseURL,
			Model:             cfg.Ollama.Model,
			Timeout:           time.Duration(cfg.Ollama.TimeoutSecs) * time.Second,
			RequestsPerSecond: cfg.Ollama.RequestsPerSecond,
			Logger:            logger,
			Metrics:           m,
		}), nil
	case config.ProviderOpenAI:
		c, err := openai.NewClient(openai.Config{
			BaseURL:    cfg.OpenAI.BaseURL,
			APIKeyEnv:  cfg.OpenAI.APIKeyEnv,
			Model:      cfg.OpenAI.Model,
			Dimensions: cfg.OpenAI.Dimensions,
			Logger:     logger,
			Metrics:    m,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown embedder provider %q: %w", cfg.Provider, domain.ErrInvalidInput)
}
