package openai

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"insights/internal/domain"
	"insights/internal/metrics"
)

const providerName = "openai"

// Config configures the OpenAI embeddings client.
type Config struct {
	BaseURL    string
	APIKeyEnv  string
	Model      string
	Dimensions int
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
}

// Client is an OpenAI-compatible embeddings client.
type Client struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewClient reads the API key from cfg.APIKeyEnv and builds a client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s: %w", cfg.APIKeyEnv, domain.ErrInvalidInput)
	}
	if cfg.Model == "" {
		cfg.Model = string(openai.SmallEmbedding3)
	}
	clientCfg := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		logger:     logger,
		metrics:    cfg.Metrics,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return providerName }

// Embed requests one embedding per text, sequentially, preserving order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for _, text := range texts {
		req := openai.EmbeddingRequest{
			Input:          []string{text},
			Model:          c.model,
			EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		}
		if c.dimensions > 0 {
			req.Dimensions = c.dimensions
		}
		resp, err := c.client.CreateEmbeddings(ctx, req)
		if err != nil {
			c.metrics.EmbeddingRequest(providerName, "error")
			return nil, parseAPIError(err)
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			c.metrics.EmbeddingRequest(providerName, "error")
			return nil, &domain.ProviderError{Provider: providerName, Err: errors.New("empty embedding response")}
		}
		c.metrics.EmbeddingRequest(providerName, "success")

		src := resp.Data[0].Embedding
		v := make([]float64, len(src))
		for i, f := range src {
			v[i] = float64(f)
		}
		out = append(out, v)
	}
	c.logger.Debug("embedded texts", zap.Int("count", len(out)), zap.String("model", string(c.model)))
	return out, nil
}

// parseAPIError maps go-openai failures to a ProviderError carrying the HTTP status when known.
func parseAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &domain.ProviderError{
			Provider:   providerName,
			StatusCode: apiErr.HTTPStatusCode,
			Err:        fmt.Errorf("embedding API error: %s", apiErr.Message),
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &domain.ProviderError{
			Provider:   providerName,
			StatusCode: reqErr.HTTPStatusCode,
			Err:        fmt.Errorf("embedding request error: %s", string(reqErr.Body)),
		}
	}
	return &domain.ProviderError{Provider: providerName, Err: err}
}
