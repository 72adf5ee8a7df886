package ui

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	progressStyle = lipgloss.NewStyle().Faint(true)
)

// Notifier prints styled one-line notices to Out (normally stderr).
type Notifier struct {
	Out   io.Writer
	Quiet bool // suppresses Info and Progress
}

// Info prints a success notice unless Quiet.
func (n Notifier) Info(msg string) {
	if n.Quiet {
		return
	}
	fmt.Fprintln(n.Out, infoStyle.Render("✔ "+msg))
}

// Warn prints a warning. Quiet does not suppress it.
func (n Notifier) Warn(msg string) {
	fmt.Fprintln(n.Out, warnStyle.Render("! "+msg))
}

// Error prints a failure notice. Quiet does not suppress it.
func (n Notifier) Error(msg string) {
	fmt.Fprintln(n.Out, errorStyle.Render("✘ "+msg))
}

// Progress prints a drafting step such as "Scanning workspace changes...".
func (n Notifier) Progress(msg string) {
	if n.Quiet {
		return
	}
	fmt.Fprintln(n.Out, progressStyle.Render("AutoCommit: "+msg))
}

// ErrNotTerminal is returned when a secret must be read but stdin is not a terminal.
var ErrNotTerminal = errors.New("stdin is not a terminal")

// TerminalSecret reads secrets from a terminal without echo.
type TerminalSecret struct {
	In  *os.File
	Out io.Writer
}

// ReadSecret prints label and reads one line with echo disabled.
func (s TerminalSecret) ReadSecret(label string) (string, error) {
	fd := int(s.In.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNotTerminal
	}
	fmt.Fprintf(s.Out, "%s: ", label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(s.Out)
	if err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return string(b), nil
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}
