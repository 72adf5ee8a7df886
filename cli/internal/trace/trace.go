// Package trace writes the raw drafting steps (collected diff, prompt,
// provider text, normalized message) to stderr when --trace is set.
// All methods no-op when the writer is nil.
package trace

import (
	"fmt"
	"io"
	"strings"
)

const prefix = "[autocommit:trace]"

// Tracer writes sectioned trace output. When the underlying writer is nil, all methods no-op.
type Tracer struct {
	w io.Writer
}

// New returns a Tracer that writes to w. If w is nil, all methods no-op.
func New(w io.Writer) *Tracer {
	return &Tracer{w: w}
}

// Enabled returns true if the tracer has a non-nil writer.
func (t *Tracer) Enabled() bool {
	return t != nil && t.w != nil
}

// Section writes a section header: "\n[autocommit:trace] === name ===\n"
func (t *Tracer) Section(name string) {
	if !t.Enabled() {
		return
	}
	fmt.Fprintf(t.w, "\n%s === %s ===\n", prefix, name)
}

// Block writes a section header followed by body, ending with a newline.
func (t *Tracer) Block(name, body string) {
	if !t.Enabled() {
		return
	}
	t.Section(name)
	io.WriteString(t.w, body)
	if !strings.HasSuffix(body, "\n") {
		io.WriteString(t.w, "\n")
	}
}
