// Package provider defines the text-generation provider contract and its
// failure taxonomy. Concrete providers live in sibling packages (gemini, ollama).
package provider

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a provider failure.
type Kind int

const (
	// KindTransport covers network failures and non-2xx responses other than 429.
	KindTransport Kind = iota + 1
	// KindRateLimited is HTTP 429. Callers show an advisory message and may re-trigger manually.
	KindRateLimited
	// KindMalformedResponse means the response lacked the expected candidate/text shape.
	KindMalformedResponse
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindRateLimited:
		return "rate_limited"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching against *Error kinds.
var (
	ErrTransport         = errors.New("provider transport failure")
	ErrRateLimited       = errors.New("provider rate limited")
	ErrMalformedResponse = errors.New("provider response malformed")
)

// RateLimitedMessage is the advisory text shown for KindRateLimited.
const RateLimitedMessage = "Gemini API rate limit exceeded. Please wait a moment and try again."

// Error is a provider failure. Error() returns a user-facing message; Err holds the cause.
type Error struct {
	Kind   Kind
	Status int // HTTP status when known; 0 otherwise.
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is the sentinel for e's Kind.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrRateLimited:
		return e.Kind == KindRateLimited
	case ErrMalformedResponse:
		return e.Kind == KindMalformedResponse
	}
	return false
}

// Transport returns a KindTransport error. status may be 0 when no response was received.
func Transport(status int, err error) error {
	msg := "Could not reach the text-generation provider."
	if status != 0 {
		msg = fmt.Sprintf("Text-generation provider returned HTTP %d.", status)
	}
	return &Error{Kind: KindTransport, Status: status, Msg: msg, Err: err}
}

// RateLimited returns a KindRateLimited error carrying RateLimitedMessage.
func RateLimited(err error) error {
	return &Error{Kind: KindRateLimited, Status: 429, Msg: RateLimitedMessage, Err: err}
}

// Malformed returns a KindMalformedResponse error.
func Malformed(err error) error {
	return &Error{Kind: KindMalformedResponse, Msg: "Text-generation provider returned an unexpected response.", Err: err}
}

// Request is one drafting call.
type Request struct {
	Prompt string
	APIKey string
}

// Synthesizer turns a prompt into raw provider text. Implementations make
// exactly one network call per Send and never retry.
type Synthesizer interface {
	Send(ctx context.Context, req Request) (string, error)
	// NeedsAPIKey reports whether Send requires a non-empty Request.APIKey.
	NeedsAPIKey() bool
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
