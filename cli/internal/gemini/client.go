// Package gemini calls the Gemini generateContent REST endpoint.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"autocommit/cli/internal/logging"
	"autocommit/cli/internal/provider"
	"autocommit/cli/internal/version"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.0-flash"

	_defaultTimeout = 60 * time.Second
	_maxErrorBody   = 512
)

var errNoText = errors.New("response has no candidates[0].content.parts text")

// Client sends prompts to Gemini. Zero value is not valid; use NewClient.
type Client struct {
	// Log receives the status and latency of every call at debug level.
	Log logging.Logger

	baseURL    string
	model      string
	httpClient *http.Client
}

var _ provider.Synthesizer = (*Client)(nil)

// NewClient builds a Gemini client. Empty baseURL or model use the defaults.
// If httpClient is nil, a default client with a 60s timeout is used.
func NewClient(baseURL, model string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: _defaultTimeout}
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), model: model, httpClient: httpClient}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

// NeedsAPIKey reports true; Gemini authenticates with the key query parameter.
func (c *Client) NeedsAPIKey() bool { return true }

// Endpoint returns the generateContent URL without the key parameter.
func (c *Client) Endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
}

// Send POSTs the prompt and returns the candidate text. 429 maps to
// provider.KindRateLimited, other failures to KindTransport, and a body
// without candidates[0].content.parts[].text to KindMalformedResponse.
func (c *Client) Send(ctx context.Context, req provider.Request) (string, error) {
	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: []part{{Text: req.Prompt}}}}})
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	endpoint := c.Endpoint() + "?key=" + url.QueryEscape(req.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.Log.Debug("gemini request failed", "model", c.model, "latency", time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", provider.Transport(0, redact(err, req.APIKey))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	c.Log.Debug("gemini response", "model", c.model, "status", resp.StatusCode, "latency", time.Since(start), "bytes", len(data))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", provider.Transport(resp.StatusCode, fmt.Errorf("gemini: read body: %w", err))
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return "", provider.RateLimited(fmt.Errorf("gemini: HTTP 429: %s", snippet(data)))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", provider.Transport(resp.StatusCode, fmt.Errorf("gemini: HTTP %d: %s", resp.StatusCode, snippet(data)))
	}
	text, err := extractText(data)
	if err != nil {
		return "", provider.Malformed(err)
	}
	return text, nil
}

// extractText joins the text parts of the first candidate.
func extractText(data []byte) (string, error) {
	if !gjson.ValidBytes(data) {
		return "", fmt.Errorf("gemini: invalid JSON: %s", snippet(data))
	}
	parts := gjson.GetBytes(data, "candidates.0.content.parts")
	if !parts.IsArray() {
		return "", errNoText
	}
	var b strings.Builder
	found := false
	parts.ForEach(func(_, p gjson.Result) bool {
		t := p.Get("text")
		if t.Type == gjson.String {
			found = true
			b.WriteString(t.String())
		}
		return true
	})
	if !found {
		return "", errNoText
	}
	return b.String(), nil
}

// redact strips the API key from transport errors, which embed the request URL.
func redact(err error, key string) error {
	if key == "" {
		return err
	}
	msg := err.Error()
	for _, k := range []string{key, url.QueryEscape(key)} {
		msg = strings.ReplaceAll(msg, k, "REDACTED")
	}
	return errors.New(msg)
}

func snippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > _maxErrorBody {
		s = s[:_maxErrorBody] + "..."
	}
	return s
}
