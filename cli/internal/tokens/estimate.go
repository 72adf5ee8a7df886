// Package tokens provides token estimation for prompts and context-limit
// checks. The default estimator is a byte-based chars/4 heuristic; a tiktoken
// encoding can be selected by name (config key tokenizer).
package tokens

import (
	"fmt"
	"math"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// charsPerToken is the divisor for the simple byte-based estimator
// (roughly 4 bytes per token for typical English/code).
const charsPerToken = 4

// DefaultResponseReserve is the default number of tokens reserved for the
// model response when checking total context. A commit message is short.
const DefaultResponseReserve = 512

// Estimate returns an estimated token count for the given prompt text.
// It uses a simple heuristic: (len(prompt)+3)/4 (bytes), so 0–3 bytes
// map to 1 token, 4–7 to 2, etc. Empty string returns 0.
func Estimate(prompt string) int {
	n := len(prompt)
	if n == 0 {
		return 0
	}
	return (n + charsPerToken - 1) / charsPerToken
}

// Estimator counts tokens in text.
type Estimator func(text string) int

var (
	encodersMu sync.Mutex
	encoders   = map[string]*tiktoken.Tiktoken{}

	// getEncoding is swapped in tests to avoid loading BPE ranks.
	getEncoding = tiktoken.GetEncoding
)

// ForEncoding returns an Estimator for the named tiktoken encoding
// (e.g. cl100k_base). An empty name returns Estimate. If the encoding cannot
// be loaded, Estimate is returned with the load error so callers can log it.
func ForEncoding(name string) (Estimator, error) {
	if name == "" {
		return Estimate, nil
	}
	enc, err := encoding(name)
	if err != nil {
		return Estimate, fmt.Errorf("tokenizer %q: %w", name, err)
	}
	return func(text string) int {
		if text == "" {
			return 0
		}
		if n := len(enc.Encode(text, nil, nil)); n > 0 {
			return n
		}
		return Estimate(text)
	}, nil
}

func encoding(name string) (*tiktoken.Tiktoken, error) {
	encodersMu.Lock()
	defer encodersMu.Unlock()
	if enc, ok := encoders[name]; ok {
		return enc, nil
	}
	enc, err := getEncoding(name)
	if err != nil {
		return nil, err
	}
	encoders[name] = enc
	return enc, nil
}

// WarnIfOver returns a non-empty warning string when the total estimated
// tokens (promptTokens + responseReserve) meet or exceed the warn threshold
// of the context limit. contextLimit and warnThreshold come from config
// (context_limit and warn_threshold). If contextLimit <= 0, returns "".
func WarnIfOver(promptTokens, responseReserve, contextLimit int, warnThreshold float64) string {
	if contextLimit <= 0 {
		return ""
	}
	if promptTokens < 0 || responseReserve < 0 {
		return ""
	}
	if responseReserve > math.MaxInt-promptTokens {
		return fmt.Sprintf("token estimate overflow (prompt %d + reserve %d)", promptTokens, responseReserve)
	}
	total := promptTokens + responseReserve
	limit := float64(contextLimit) * warnThreshold
	threshold := int(limit)
	if limit > float64(threshold) {
		threshold++
	}
	if total < threshold {
		return ""
	}
	pct := warnThreshold * 100
	return fmt.Sprintf("estimated tokens %d (prompt %d + reserve %d) exceeds %.0f%% of context limit %d",
		total, promptTokens, responseReserve, pct, contextLimit)
}
