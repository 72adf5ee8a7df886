package credential

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"

	"autocommit/cli/internal/erruser"
)

type fakeReader struct {
	answer string
	err    error
	calls  int
}

func (f *fakeReader) ReadSecret(label string) (string, error) {
	f.calls++
	return f.answer, f.err
}

func TestAcquire_existingKeyNoPrompt(t *testing.T) {
	t.Parallel()
	r := &fakeReader{answer: "other"}
	s := NewStore(filepath.Join(t.TempDir(), "config.toml"), "  k1 ", r)
	got, err := s.Acquire(context.Background())
	if err != nil || got != "k1" {
		t.Errorf("Acquire = %q, %v", got, err)
	}
	if r.calls != 0 {
		t.Errorf("prompted %d times, want 0", r.calls)
	}
}

func TestAcquire_promptsAndPersists(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "autocommit", "config.toml")
	r := &fakeReader{answer: " new-key\n"}
	s := NewStore(path, "", r)
	got, err := s.Acquire(context.Background())
	if err != nil || got != "new-key" {
		t.Fatalf("Acquire = %q, %v", got, err)
	}
	var doc map[string]any
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		t.Fatal(err)
	}
	if doc["api_key"] != "new-key" {
		t.Errorf("persisted api_key = %v", doc["api_key"])
	}
	if _, err := s.Acquire(context.Background()); err != nil || r.calls != 1 {
		t.Errorf("second Acquire prompted again (calls=%d, err=%v)", r.calls, err)
	}
}

func TestAcquire_declined(t *testing.T) {
	t.Parallel()
	for _, r := range []*fakeReader{{answer: ""}, {err: errors.New("not a terminal")}} {
		s := NewStore(filepath.Join(t.TempDir(), "config.toml"), "", r)
		_, err := s.Acquire(context.Background())
		if !errors.Is(err, erruser.ErrConfiguration) {
			t.Errorf("err = %v, want configuration error", err)
		}
		if err != nil && err.Error() != DeclinedMessage {
			t.Errorf("message = %q", err.Error())
		}
	}
}

func TestAcquire_noReader(t *testing.T) {
	t.Parallel()
	s := NewStore(filepath.Join(t.TempDir(), "config.toml"), "", nil)
	if _, err := s.Acquire(context.Background()); !errors.Is(err, erruser.ErrConfiguration) {
		t.Errorf("err = %v, want configuration error", err)
	}
}

func TestAcquire_cancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &fakeReader{answer: "k"}
	_, err := NewStore(filepath.Join(t.TempDir(), "c.toml"), "", r).Acquire(ctx)
	if !errors.Is(err, context.Canceled) || r.calls != 0 {
		t.Errorf("err = %v calls = %d", err, r.calls)
	}
}

func TestSet_emptyRejected(t *testing.T) {
	t.Parallel()
	s := NewStore(filepath.Join(t.TempDir(), "c.toml"), "", nil)
	if err := s.Set("  "); err == nil {
		t.Error("expected error")
	}
	if _, ok := s.Get(); ok {
		t.Error("Get() reports a key after failed Set")
	}
}
