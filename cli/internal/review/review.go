// Package review runs the interactive loop around drafting: draft a message,
// then deliver it automatically or let the user accept, copy, or regenerate.
package review

import (
	"context"
	"errors"

	"autocommit/cli/internal/commitmsg"
	"autocommit/cli/internal/config"
	"autocommit/cli/internal/erruser"
	"autocommit/cli/internal/logging"
	"autocommit/cli/internal/provider"
)

// Notices shown to the user.
const (
	NoticeGenerated       = "Commit message generated!"
	NoticeCopied          = "Copied to clipboard!"
	NoticeGeneratedCopied = "Commit message generated and copied to clipboard!"

	failurePrefix = "Unable to generate message: "
)

// Drafter produces one normalized message per call.
type Drafter interface {
	Draft(ctx context.Context, gen config.Generation) (string, error)
}

// Chooser presents a message and returns the user's decision. Returning
// Dismiss with a nil error means the user closed the menu.
type Chooser interface {
	Choose(ctx context.Context, message string, choices []Decision) (Decision, error)
}

// CommitInput receives accepted messages.
type CommitInput interface {
	SetDraftMessage(msg string) error
}

// Clipboard receives copied messages.
type Clipboard interface {
	CopyToClipboard(msg string) error
}

// Notifier shows user-facing notices.
type Notifier interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

// Loop drives one generation request. Snapshot is read at the start of every
// drafting attempt so each attempt sees current settings.
type Loop struct {
	Snapshot    func() (config.Generation, error)
	Drafter     Drafter
	Chooser     Chooser
	CommitInput CommitInput
	Clipboard   Clipboard
	Notifier    Notifier
	Log         logging.Logger
	// OnTransition, if set, is called on every state change.
	OnTransition func(from, to State)
}

// Outcome is the terminal result of Run.
type Outcome struct {
	State State
	// Attempts counts entries into Drafting.
	Attempts int
	// Message is the delivered (or last presented) message.
	Message string
	// Err is set for Failed and Cancelled.
	Err error
}

// Run executes the loop until a terminal state. At most one drafting attempt
// is in flight at a time.
func (l *Loop) Run(ctx context.Context) Outcome {
	var out Outcome
	state := State(0)
	move := func(to State) {
		if l.OnTransition != nil {
			l.OnTransition(state, to)
		}
		l.Log.Debug("review transition", "from", state.String(), "to", to.String())
		state = to
	}
	finish := func(to State, err error) Outcome {
		move(to)
		out.State = to
		out.Err = err
		return out
	}

	for {
		move(Drafting)
		out.Attempts++
		gen, msg, err := l.draft(ctx)
		if err != nil {
			switch {
			case errors.Is(err, commitmsg.ErrNoChanges):
				l.warn(commitmsg.NoChangesMessage)
				return finish(NoChanges, nil)
			case isCancel(ctx, err):
				return finish(Cancelled, err)
			default:
				l.fail(err)
				return finish(Failed, err)
			}
		}
		out.Message = msg

		if !gen.CrossCheck {
			if gen.AutoFill {
				if err := l.CommitInput.SetDraftMessage(msg); err != nil {
					l.fail(err)
					return finish(Failed, err)
				}
				l.info(NoticeGenerated)
				return finish(Accepted, nil)
			}
			if err := l.Clipboard.CopyToClipboard(msg); err != nil {
				l.fail(err)
				return finish(Failed, err)
			}
			l.info(NoticeGeneratedCopied)
			return finish(Copied, nil)
		}

		move(Presented)
		decision, err := l.Chooser.Choose(ctx, msg, Choices)
		if err != nil {
			if isCancel(ctx, err) {
				return finish(Cancelled, err)
			}
			l.fail(err)
			return finish(Failed, err)
		}
		switch decision {
		case Accept:
			if err := l.CommitInput.SetDraftMessage(msg); err != nil {
				l.fail(err)
				return finish(Failed, err)
			}
			return finish(Accepted, nil)
		case Copy:
			if err := l.Clipboard.CopyToClipboard(msg); err != nil {
				l.fail(err)
				return finish(Failed, err)
			}
			l.info(NoticeCopied)
			return finish(Copied, nil)
		case Regenerate:
			move(Regenerating)
		default:
			return finish(Dismissed, nil)
		}
	}
}

// draft takes a fresh snapshot and runs one attempt with it. The same
// snapshot decides routing for that attempt.
func (l *Loop) draft(ctx context.Context) (config.Generation, string, error) {
	if err := ctx.Err(); err != nil {
		return config.Generation{}, "", err
	}
	gen, err := l.snapshot()
	if err != nil {
		return gen, "", err
	}
	msg, err := l.Drafter.Draft(ctx, gen)
	return gen, msg, err
}

func (l *Loop) snapshot() (config.Generation, error) {
	if l.Snapshot == nil {
		return config.DefaultConfig().Generation(), nil
	}
	return l.Snapshot()
}

// FailureMessage is the user-facing text for a failed attempt.
func FailureMessage(err error) string {
	switch {
	case errors.Is(err, provider.ErrRateLimited):
		return provider.RateLimitedMessage
	case erruser.KindOf(err) != erruser.KindNone:
		return err.Error()
	default:
		return failurePrefix + err.Error()
	}
}

func isCancel(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) || (ctx.Err() != nil && errors.Is(err, ctx.Err()))
}

func (l *Loop) fail(err error) {
	l.Log.Debug("review failed", "error", err.Error())
	if l.Notifier != nil {
		l.Notifier.Error(FailureMessage(err))
	}
}

func (l *Loop) warn(msg string) {
	if l.Notifier != nil {
		l.Notifier.Warn(msg)
	}
}

func (l *Loop) info(msg string) {
	if l.Notifier != nil {
		l.Notifier.Info(msg)
	}
}
