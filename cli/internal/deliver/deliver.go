// Package deliver hands an accepted commit message to its destination: a
// commit message draft file or the system clipboard.
package deliver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
)

// DraftFileName is the draft written under the git directory by the generate command.
const DraftFileName = "AUTOCOMMIT_EDITMSG"

// clipboardWriteAll is a package-level variable to allow mocking in tests.
var clipboardWriteAll = clipboard.WriteAll

// clipboardUnsupported reports whether no clipboard utility is available.
var clipboardUnsupported = func() bool { return clipboard.Unsupported }

// ErrClipboardUnavailable is returned when the platform has no clipboard utility
// (e.g. Linux without xclip, xsel, or wl-clipboard).
var ErrClipboardUnavailable = errors.New("no clipboard utility available")

// DraftFile writes the message to Path. With KeepExisting, the previous file
// content (e.g. git's commented template in a prepare-commit-msg hook) is kept
// after the message.
type DraftFile struct {
	Path         string
	KeepExisting bool
}

// SetDraftMessage writes msg atomically; a failed write leaves the previous file untouched.
func (d DraftFile) SetDraftMessage(msg string) error {
	if d.Path == "" {
		return errors.New("draft file: empty path")
	}
	content := strings.TrimRight(msg, "\n") + "\n"
	if d.KeepExisting {
		prev, err := os.ReadFile(d.Path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("draft file: read %s: %w", d.Path, err)
		}
		if rest := strings.TrimLeft(string(prev), "\n"); rest != "" {
			content += "\n" + rest
		}
	}
	dir := filepath.Dir(d.Path)
	tmp, err := os.CreateTemp(dir, ".autocommit-msg-*")
	if err != nil {
		return fmt.Errorf("draft file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("draft file: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("draft file: close: %w", err)
	}
	if err := os.Rename(tmpName, d.Path); err != nil {
		return fmt.Errorf("draft file: rename: %w", err)
	}
	return nil
}

// Clipboard copies messages to the system clipboard.
type Clipboard struct{}

// CopyToClipboard writes msg to the system clipboard.
func (Clipboard) CopyToClipboard(msg string) error {
	if clipboardUnsupported() {
		return ErrClipboardUnavailable
	}
	if err := clipboardWriteAll(msg); err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	return nil
}
