// Package ui holds the terminal front end: the Accept / Regenerate / Copy
// chooser, styled notices, and the hidden API key prompt.
package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"autocommit/cli/internal/review"
)

var descriptions = map[review.Decision]string{
	review.Accept:     "Use this message",
	review.Regenerate: "Try again",
	review.Copy:       "Copy to clipboard",
}

var (
	messageStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	cursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	hintStyle    = lipgloss.NewStyle().Faint(true)
	titleStyle   = lipgloss.NewStyle().Bold(true)
)

func label(d review.Decision) string {
	s := d.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

type chooserModel struct {
	message string
	choices []review.Decision
	cursor  int
	chosen  review.Decision
	// interrupted is set by ctrl+c, which raw mode delivers as a key instead of SIGINT.
	interrupted bool
}

func newChooserModel(message string, choices []review.Decision) chooserModel {
	return chooserModel{message: message, choices: choices, chosen: review.Dismiss}
}

func (m chooserModel) Init() tea.Cmd { return nil }

func (m chooserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k", "shift+tab":
		m.cursor = (m.cursor + len(m.choices) - 1) % len(m.choices)
	case "down", "j", "tab":
		m.cursor = (m.cursor + 1) % len(m.choices)
	case "enter":
		m.chosen = m.choices[m.cursor]
		return m, tea.Quit
	case "esc", "q":
		m.chosen = review.Dismiss
		return m, tea.Quit
	case "ctrl+c":
		m.chosen = review.Dismiss
		m.interrupted = true
		return m, tea.Quit
	default:
		for _, c := range m.choices {
			if key.String() == c.String()[:1] {
				m.chosen = c
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m chooserModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("AutoCommit"))
	b.WriteString("\n")
	b.WriteString(messageStyle.Render(m.message))
	b.WriteString("\n")
	for i, c := range m.choices {
		line := fmt.Sprintf("%s  %s", label(c), hintStyle.Render(descriptions[c]))
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> ") + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString(hintStyle.Render("enter select • a/r/c shortcut • esc dismiss • ctrl+c cancel"))
	b.WriteString("\n")
	return b.String()
}

// TUIChooser shows the choices in a bubbletea program.
type TUIChooser struct {
	In  io.Reader
	Out io.Writer
}

// Choose runs the chooser until a selection or dismissal.
func (c TUIChooser) Choose(ctx context.Context, message string, choices []review.Decision) (review.Decision, error) {
	if len(choices) == 0 {
		return review.Dismiss, nil
	}
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if c.In != nil {
		opts = append(opts, tea.WithInput(c.In))
	}
	if c.Out != nil {
		opts = append(opts, tea.WithOutput(c.Out))
	}
	final, err := tea.NewProgram(newChooserModel(message, choices), opts...).Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return review.Dismiss, ctxErr
	}
	if err != nil {
		return review.Dismiss, fmt.Errorf("chooser: %w", err)
	}
	m, ok := final.(chooserModel)
	if !ok {
		return review.Dismiss, nil
	}
	return m.result()
}

// result is the decision for a finished model. ctrl+c cancels rather than dismisses.
func (m chooserModel) result() (review.Decision, error) {
	if m.interrupted {
		return review.Dismiss, context.Canceled
	}
	return m.chosen, nil
}

// LineChooser prompts on plain line-oriented streams, for pipes and dumb
// terminals. Use NewLineChooser; one reader is kept across calls so answers
// buffered for later prompts are not lost.
type LineChooser struct {
	r   *bufio.Reader
	out io.Writer
}

// NewLineChooser returns a LineChooser reading answers from in and writing prompts to out.
func NewLineChooser(in io.Reader, out io.Writer) *LineChooser {
	return &LineChooser{r: bufio.NewReader(in), out: out}
}

// Choose prints the message and reads one answer per line until it is valid.
// EOF or an empty answer dismisses.
func (c *LineChooser) Choose(ctx context.Context, message string, choices []review.Decision) (review.Decision, error) {
	fmt.Fprintf(c.out, "\n%s\n\n", message)
	var opts []string
	for _, ch := range choices {
		s := ch.String()
		opts = append(opts, "["+s[:1]+"]"+s[1:])
	}
	prompt := strings.Join(opts, ", ") + "? "
	for {
		if err := ctx.Err(); err != nil {
			return review.Dismiss, err
		}
		fmt.Fprint(c.out, prompt)
		line, err := c.r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return review.Dismiss, fmt.Errorf("chooser: %w", err)
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		if answer == "" || answer == "q" || answer == "quit" {
			return review.Dismiss, nil
		}
		for _, ch := range choices {
			if answer == ch.String() || answer == ch.String()[:1] {
				return ch, nil
			}
		}
		if err != nil {
			return review.Dismiss, nil
		}
	}
}
