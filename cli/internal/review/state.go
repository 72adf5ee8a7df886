package review

// State is a review loop state.
type State int

const (
	Drafting State = iota + 1
	Presented
	Regenerating
	Accepted
	Copied
	Dismissed
	Failed
	// Cancelled is entered when the context is cancelled mid-attempt.
	Cancelled
	// NoChanges is entered when there was nothing to describe; the provider is not called.
	NoChanges
)

var stateNames = map[State]string{
	Drafting:     "drafting",
	Presented:    "presented",
	Regenerating: "regenerating",
	Accepted:     "accepted",
	Copied:       "copied",
	Dismissed:    "dismissed",
	Failed:       "failed",
	Cancelled:    "cancelled",
	NoChanges:    "no_changes",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether the loop stops in s.
func (s State) Terminal() bool {
	switch s {
	case Accepted, Copied, Dismissed, Failed, Cancelled, NoChanges:
		return true
	}
	return false
}

// Decision is the user's answer to a presented message.
type Decision int

const (
	// Dismiss means no selection was made.
	Dismiss Decision = iota
	Accept
	Regenerate
	Copy
)

func (d Decision) String() string {
	switch d {
	case Accept:
		return "accept"
	case Regenerate:
		return "regenerate"
	case Copy:
		return "copy"
	default:
		return "dismiss"
	}
}

// Choices are the options offered in Presented, in display order.
var Choices = []Decision{Accept, Regenerate, Copy}
