// Package iollm provides LLM backends for candidate extraction and
// enrichment. Three providers are supported: a local Ollama runtime,
// OpenAI and Anthropic. All of them implement llm.Client.
package iollm

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gnames/gnfmt"
	"github.com/gnames/taxfinder/pkg/config"
	"github.com/gnames/taxfinder/pkg/llm"
)

const (
	defaultOllamaURL    = "http://localhost:11434"
	defaultOpenAIURL    = "https://api.openai.com"
	defaultAnthropicURL = "https://api.anthropic.com"
)

// Option modifies provider construction.
type Option func(*settings)

type settings struct {
	client *http.Client
	apiKey string
}

// OptClient overrides the HTTP client.
func OptClient(c *http.Client) Option {
	return func(s *settings) {
		s.client = c
	}
}

// OptAPIKey overrides the API key taken from the environment.
func OptAPIKey(key string) Option {
	return func(s *settings) {
		s.apiKey = key
	}
}

// New creates an llm.Client for the provider named in cfg. The second
// return value is a cleanup callback, non-nil when this call started a
// local runtime that should be stopped after the run.
func New(
	cfg config.LlmConfig,
	userAgent string,
	opts ...Option,
) (llm.Client, func(), error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	if s.client == nil {
		s.client = &http.Client{
			Timeout: time.Duration(cfg.Timeout * float64(time.Second)),
		}
	}

	switch cfg.Provider {
	case "ollama":
		baseURL := cfg.URL
		if baseURL == "" {
			baseURL = defaultOllamaURL
		}
		cleanup, err := prepareOllama(s.client, baseURL, cfg)
		if err != nil {
			return nil, nil, err
		}
		client := &ollamaClient{
			client:    s.client,
			baseURL:   baseURL,
			model:     cfg.Model,
			userAgent: userAgent,
		}
		return client, cleanup, nil
	case "openai":
		baseURL := cfg.URL
		if baseURL == "" {
			baseURL = defaultOpenAIURL
		}
		apiKey := s.apiKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		client := &openaiClient{
			client:    s.client,
			baseURL:   baseURL,
			model:     cfg.Model,
			apiKey:    apiKey,
			userAgent: userAgent,
		}
		return client, nil, nil
	case "anthropic":
		baseURL := cfg.URL
		if baseURL == "" {
			baseURL = defaultAnthropicURL
		}
		apiKey := s.apiKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		client := &anthropicClient{
			client:    s.client,
			baseURL:   baseURL,
			model:     cfg.Model,
			apiKey:    apiKey,
			userAgent: userAgent,
		}
		return client, nil, nil
	default:
		return nil, nil, NewBadProviderError(cfg.Provider)
	}
}

// postJSON encodes the payload, issues the request with extra headers
// and returns the decoded JSON body. Statuses of 400 and above are
// request errors.
func postJSON(
	ctx context.Context,
	client *http.Client,
	url string,
	headers map[string]string,
	payload map[string]any,
	out any,
) error {
	enc := gnfmt.GNjson{}
	body, err := enc.Encode(payload)
	if err != nil {
		return NewRequestError(url, err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, url, bytes.NewReader(body),
	)
	if err != nil {
		return NewRequestError(url, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return NewRequestError(url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewRequestError(url, err)
	}
	if resp.StatusCode >= 400 {
		return NewStatusError(url, resp.StatusCode, string(raw))
	}

	if err = enc.Decode(raw, out); err != nil {
		return NewResponseError(url, err)
	}
	return nil
}
