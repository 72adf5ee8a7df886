package trace

import (
	"bytes"
	"testing"
)

func TestTracer_nilWriterNoops(t *testing.T) {
	t.Parallel()
	tr := New(nil)
	if tr == nil {
		t.Fatal("New(nil) returned nil")
	}
	if tr.Enabled() {
		t.Error("Enabled() with nil writer = true, want false")
	}
	tr.Section("Prompt")
	tr.Block("Prompt", "body")
}

func TestTracer_nilReceiver(t *testing.T) {
	t.Parallel()
	var tr *Tracer
	if tr.Enabled() {
		t.Error("nil Tracer Enabled() = true")
	}
	tr.Section("Prompt")
}

func TestSection_writesHeader(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	New(&buf).Section("Diff")
	if got, want := buf.String(), "\n[autocommit:trace] === Diff ===\n"; got != want {
		t.Errorf("Section output = %q, want %q", got, want)
	}
}

func TestBlock_appendsNewline(t *testing.T) {
	t.Parallel()
	tests := []struct{ body, want string }{
		{"raw", "\n[autocommit:trace] === Raw ===\nraw\n"},
		{"raw\n", "\n[autocommit:trace] === Raw ===\nraw\n"},
		{"", "\n[autocommit:trace] === Raw ===\n\n"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		New(&buf).Block("Raw", tt.body)
		if buf.String() != tt.want {
			t.Errorf("Block(%q) = %q, want %q", tt.body, buf.String(), tt.want)
		}
	}
}
