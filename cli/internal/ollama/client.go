// Package ollama provides an HTTP client for the Ollama API (health check,
// model list, and generation), usable as a local commit message provider.
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

	"github.com/tidwall/gjson"

	"autocommit/cli/internal/logging"
	"autocommit/cli/internal/provider"
)

const _defaultTimeout = 10 * time.Second

// ErrUnreachable indicates the Ollama server could not be reached (connection refused, timeout, or non-2xx).
var ErrUnreachable = errors.New("ollama server unreachable")

// Client calls the Ollama API. Zero value is not valid; use NewClient.
type Client struct {
	// Log receives the status and latency of every generate call at debug level.
	Log logging.Logger

	baseURL    string
	httpClient *http.Client
}

// CheckResult is the result of a health/model check.
type CheckResult struct {
	Reachable    bool     // Server responded with 200.
	ModelPresent bool     // Requested model name appears in the tags list.
	ModelNames   []string // All model names from /api/tags (for diagnostics).
}

// GenerateOptions are passed as /api/generate options. Zero values are omitted.
type GenerateOptions struct {
	Temperature float64
	NumCtx      int
}

// GenerateResult holds the response text and token counters.
type GenerateResult struct {
	Response        string
	PromptEvalCount int64
	EvalCount       int64
	EvalDuration    time.Duration
}

// NewClient builds an Ollama client. baseURL is the API root (e.g. http://localhost:11434).
// If httpClient is nil, a default client with a 10s timeout is used.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: _defaultTimeout}
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// Check verifies the server is reachable and whether the given model is present.
// It GETs /api/tags and parses the response. On connection/HTTP error returns ErrUnreachable (via %w).
func (c *Client) Check(ctx context.Context, model string) (*CheckResult, error) {
	url := c.baseURL + "/api/tags"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ollama tags request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama tags: %w", errors.Join(ErrUnreachable, err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama tags: %w: HTTP %d", ErrUnreachable, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ollama tags: read response: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("ollama tags: parse response: invalid JSON")
	}
	names := []string{}
	modelPresent := false
	for _, n := range gjson.GetBytes(data, "models.#.name").Array() {
		names = append(names, n.String())
		if n.String() == model {
			modelPresent = true
		}
	}
	return &CheckResult{
		Reachable:    true,
		ModelPresent: modelPresent,
		ModelNames:   names,
	}, nil
}

type generateRequest struct {
	Model   string         `json:"model"`
	System  string         `json:"system,omitempty"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

// Generate POSTs a non-streaming /api/generate request. Connection failures and
// non-2xx statuses wrap ErrUnreachable; 429 maps to provider.ErrRateLimited; a
// body without a string "response" field maps to provider.ErrMalformedResponse.
func (c *Client) Generate(ctx context.Context, model, system, prompt string, opts *GenerateOptions) (*GenerateResult, error) {
	body := generateRequest{Model: model, System: system, Prompt: prompt}
	if opts != nil {
		body.Options = map[string]any{}
		if opts.Temperature > 0 {
			body.Options["temperature"] = opts.Temperature
		}
		if opts.NumCtx > 0 {
			body.Options["num_ctx"] = opts.NumCtx
		}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("ollama generate request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ollama generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.Log.Debug("ollama generate failed", "model", model, "latency", time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, provider.Transport(0, errors.Join(ErrUnreachable, err))
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	c.Log.Debug("ollama generate response", "model", model, "status", resp.StatusCode, "latency", time.Since(start))
	if err != nil {
		return nil, provider.Transport(resp.StatusCode, fmt.Errorf("ollama generate: read response: %w", err))
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, provider.RateLimited(fmt.Errorf("ollama generate: HTTP 429"))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, provider.Transport(resp.StatusCode, fmt.Errorf("ollama generate: %w: HTTP %d", ErrUnreachable, resp.StatusCode))
	}
	if !gjson.ValidBytes(data) {
		return nil, provider.Malformed(fmt.Errorf("ollama generate: invalid JSON"))
	}
	parsed := gjson.ParseBytes(data)
	text := parsed.Get("response")
	if text.Type != gjson.String {
		return nil, provider.Malformed(fmt.Errorf("ollama generate: missing response field"))
	}
	return &GenerateResult{
		Response:        text.String(),
		PromptEvalCount: parsed.Get("prompt_eval_count").Int(),
		EvalCount:       parsed.Get("eval_count").Int(),
		EvalDuration:    time.Duration(parsed.Get("eval_duration").Int()),
	}, nil
}

// Synthesizer adapts a Client to provider.Synthesizer for a fixed model.
type Synthesizer struct {
	Client  *Client
	Model   string
	Options *GenerateOptions
}

var _ provider.Synthesizer = (*Synthesizer)(nil)

// NeedsAPIKey reports false; local Ollama servers are unauthenticated.
func (s *Synthesizer) NeedsAPIKey() bool { return false }

// Send generates with the whole prompt as the user prompt and no system prompt.
func (s *Synthesizer) Send(ctx context.Context, req provider.Request) (string, error) {
	res, err := s.Client.Generate(ctx, s.Model, "", req.Prompt, s.Options)
	if err != nil {
		return "", err
	}
	s.Client.Log.Debug("ollama eval",
		"model", s.Model,
		"prompt_eval_count", res.PromptEvalCount,
		"eval_count", res.EvalCount,
		"eval_duration", res.EvalDuration,
	)
	return res.Response, nil
}
