package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"insights/internal/domain"
	"insights/internal/metrics"
)

const providerName = "ollama"

// errNoShape is returned when a response matches none of the known shapes.
var errNoShape = errors.New("unrecognized embedding response shape")

// Config configures the HTTP embeddings client.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
	// RequestsPerSecond paces outgoing requests; 0 disables pacing.
	RequestsPerSecond float64
	HTTPClient        *http.Client
	Logger            *zap.Logger
	Metrics           *metrics.Metrics
}

// Client posts {model, prompt} to {base}/api/embeddings, one request per text.
type Client struct {
	baseURL string
	model   string
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewClient creates a client, filling unset fields with local Ollama defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "nomic-embed-text"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client:  hc,
		logger:  logger,
		metrics: cfg.Metrics,
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return providerName }

// Embed returns one vector per text in input order. Requests are sequential and never retried.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for _, text := range texts {
		v, err := c.embedOne(ctx, text)
		if err != nil {
			c.metrics.EmbeddingRequest(providerName, "error")
			return nil, err
		}
		c.metrics.EmbeddingRequest(providerName, "success")
		out = append(out, v)
	}
	return out, nil
}

type request struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

func (c *Client) embedOne(ctx context.Context, text string) ([]float64, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &domain.ProviderError{Provider: providerName, Err: err}
		}
	}

	data, err := json.Marshal(request{Model: c.model, Prompt: text})
	if err != nil {
		return nil, &domain.ProviderError{Provider: providerName, Err: err}
	}
	url := c.baseURL + "/api/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, &domain.ProviderError{Provider: providerName, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &domain.ProviderError{Provider: providerName, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ProviderError{Provider: providerName, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("embedding request rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("model", c.model),
		)
		return nil, &domain.ProviderError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	v, err := decodeVector(payload)
	if err != nil {
		return nil, &domain.ProviderError{Provider: providerName, StatusCode: resp.StatusCode, Err: err}
	}
	return v, nil
}

// shape is one recognized response variant. key identifies it, extract pulls the vector out.
type shape struct {
	key     string
	extract func(raw json.RawMessage) ([]float64, error)
}

// shapes lists the variants in decode priority order.
var shapes = []shape{
	{
		// {"data":[{"embedding":[...]}]}
		key: "data",
		extract: func(raw json.RawMessage) ([]float64, error) {
			var data []struct {
				Embedding []float64 `json:"embedding"`
			}
			if err := json.Unmarshal(raw, &data); err != nil {
				return nil, err
			}
			if len(data) == 0 {
				return nil, nil
			}
			return data[0].Embedding, nil
		},
	},
	{
		// {"embedding":[...]}
		key: "embedding",
		extract: func(raw json.RawMessage) ([]float64, error) {
			var v []float64
			err := json.Unmarshal(raw, &v)
			return v, err
		},
	},
	{
		// {"embeddings":[[...]]}
		key: "embeddings",
		extract: func(raw json.RawMessage) ([]float64, error) {
			var vs [][]float64
			if err := json.Unmarshal(raw, &vs); err != nil {
				return nil, err
			}
			if len(vs) == 0 {
				return nil, nil
			}
			return vs[0], nil
		},
	},
}

func decodeVector(payload []byte) ([]float64, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", errNoShape, err)
	}
	for _, s := range shapes {
		raw, ok := fields[s.key]
		if !ok {
			continue
		}
		v, err := s.extract(raw)
		if err != nil {
			return nil, fmt.Errorf("decode %q: %w", s.key, err)
		}
		if len(v) == 0 {
			return nil, fmt.Errorf("no vector in %q response", s.key)
		}
		return v, nil
	}
	return nil, errNoShape
}
