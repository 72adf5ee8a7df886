// Package credential supplies the provider API key, prompting for and
// persisting one when none is configured.
package credential

import (
	"context"
	"strings"

	"autocommit/cli/internal/config"
	"autocommit/cli/internal/erruser"
)

const (
	// PromptLabel is shown when asking the user for a key.
	PromptLabel = "Enter your Gemini API Key"

	// DeclinedMessage is the configuration error text when no key is given.
	DeclinedMessage = "Gemini API key is required to generate commit messages."

	apiKeyName = "api_key"
)

// SecretReader reads a secret without echoing it.
type SecretReader interface {
	ReadSecret(label string) (string, error)
}

// Store holds the current key and persists new ones to Path (the global config file).
type Store struct {
	Path   string
	Reader SecretReader

	current string
}

// NewStore returns a Store seeded with the already-loaded key (may be empty).
func NewStore(path, current string, reader SecretReader) *Store {
	return &Store{Path: path, Reader: reader, current: strings.TrimSpace(current)}
}

// Get returns the current key, if any.
func (s *Store) Get() (string, bool) {
	return s.current, s.current != ""
}

// Set persists key and makes it current.
func (s *Store) Set(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return erruser.Configuration(DeclinedMessage, nil)
	}
	if err := config.Persist(s.Path, apiKeyName, key); err != nil {
		return err
	}
	s.current = key
	return nil
}

// PromptUser asks for a key. An empty answer returns "" with no error.
func (s *Store) PromptUser() (string, error) {
	if s.Reader == nil {
		return "", nil
	}
	key, err := s.Reader.ReadSecret(PromptLabel)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(key), nil
}

// Acquire returns the current key or prompts for one and persists it.
// A missing, declined, or unreadable key is a configuration error.
func (s *Store) Acquire(ctx context.Context) (string, error) {
	if key, ok := s.Get(); ok {
		return key, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := s.PromptUser()
	if err != nil {
		return "", erruser.Configuration(DeclinedMessage, err)
	}
	if key == "" {
		return "", erruser.Configuration(DeclinedMessage, nil)
	}
	if err := s.Set(key); err != nil {
		return "", err
	}
	return key, nil
}
