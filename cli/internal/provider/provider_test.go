package provider

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestError_kindsMatchSentinels(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want error
		kind Kind
	}{
		{"transport", Transport(0, io.EOF), ErrTransport, KindTransport},
		{"transport_status", Transport(503, nil), ErrTransport, KindTransport},
		{"rate_limited", RateLimited(nil), ErrRateLimited, KindRateLimited},
		{"malformed", Malformed(io.ErrUnexpectedEOF), ErrMalformedResponse, KindMalformedResponse},
	}
	sentinels := []error{ErrTransport, ErrRateLimited, ErrMalformedResponse}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			wrapped := fmt.Errorf("draft: %w", tt.err)
			for _, s := range sentinels {
				if got := errors.Is(wrapped, s); got != (s == tt.want) {
					t.Errorf("errors.Is(%v, %v) = %v", tt.err, s, got)
				}
			}
			if KindOf(wrapped) != tt.kind {
				t.Errorf("KindOf = %v, want %v", KindOf(wrapped), tt.kind)
			}
		})
	}
}

func TestRateLimited_advisoryMessage(t *testing.T) {
	t.Parallel()
	err := RateLimited(nil)
	if err.Error() != RateLimitedMessage {
		t.Errorf("Error() = %q, want %q", err.Error(), RateLimitedMessage)
	}
	var pe *Error
	if !errors.As(err, &pe) || pe.Status != 429 {
		t.Errorf("status not recorded: %+v", pe)
	}
}

func TestTransport_unwrapsCause(t *testing.T) {
	t.Parallel()
	err := Transport(0, io.EOF)
	if !errors.Is(err, io.EOF) {
		t.Error("cause not reachable via errors.Is")
	}
	if KindOf(io.EOF) != 0 {
		t.Error("KindOf on plain error should be 0")
	}
}
