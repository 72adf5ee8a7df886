// Package erruser provides errors whose Error() returns only a user-facing
// message; the cause is available via Unwrap() for Details or logs.
//
// Errors built with Configuration or Environment also carry a Kind so callers
// can pick an exit code or hint with errors.Is(err, ErrConfiguration) without
// parsing messages.
package erruser

import "errors"

// Kind classifies a user-facing error.
type Kind int

const (
	// KindNone is a plain user-facing error with no taxonomy.
	KindNone Kind = iota
	// KindConfiguration covers a missing workspace root or a missing or declined credential.
	KindConfiguration
	// KindEnvironment covers a directory that is not a version-controlled working tree.
	KindEnvironment
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindEnvironment:
		return "environment"
	default:
		return "none"
	}
}

// Sentinels for errors.Is. They are never returned directly.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrEnvironment   = errors.New("environment error")
)

// Err holds a user-facing message, a kind, and an optional cause for debugging.
// Error() returns only Msg so the primary line never contains command names
// or exit codes; use Unwrap() for technical detail.
type Err struct {
	Msg  string
	Kind Kind
	Err  error
}

// Error returns the user-facing message only.
func (e *Err) Error() string {
	if e == nil {
		return ""
	}
	return e.Msg
}

// Unwrap returns the underlying error for Details or logging.
// Handles nil receiver (method call on nil *Err is valid in Go).
func (e *Err) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is the sentinel for e's Kind.
func (e *Err) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case ErrConfiguration:
		return e.Kind == KindConfiguration
	case ErrEnvironment:
		return e.Kind == KindEnvironment
	}
	return false
}

// New returns an error with the given user-facing message. If err is non-nil,
// it is wrapped and available via Unwrap() so callers can print "Details: %v".
// If err is nil, returns a simple error with just msg (no Unwrap).
func New(msg string, err error) error {
	if err == nil {
		return errors.New(msg)
	}
	return &Err{Msg: msg, Err: err}
}

// Configuration returns a KindConfiguration error. err may be nil.
func Configuration(msg string, err error) error {
	return &Err{Msg: msg, Kind: KindConfiguration, Err: err}
}

// Environment returns a KindEnvironment error. err may be nil.
func Environment(msg string, err error) error {
	return &Err{Msg: msg, Kind: KindEnvironment, Err: err}
}

// KindOf returns the Kind of the first *Err in err's chain, or KindNone.
func KindOf(err error) Kind {
	var e *Err
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}
