package campaign

import "errors"

// Precondition errors are caught before any network call and are
// operator-correctable. They never reach the transport layer.
var (
	ErrNoListSelected      = errors.New("no list selected")
	ErrNoSenderSelected    = errors.New("no sender selected")
	ErrInsufficientSenders = errors.New("insufficient senders for list size")
	ErrEmptySubject        = errors.New("subject is empty")
	ErrEmptyBody           = errors.New("body has no text content")
	ErrIneligibleSender    = errors.New("sender has no outbound address configured")
)

// Lifecycle errors.
var (
	// ErrSendInFlight is returned when a submission arrives while a send is
	// already in progress. At most one send runs per draft.
	ErrSendInFlight = errors.New("a send is already in progress")

	// ErrDraftComplete is returned when submitting after a successful send;
	// the machine requires a fresh draft first.
	ErrDraftComplete = errors.New("draft already sent, start a new draft")
)

// IsPrecondition reports whether err is one of the named precondition errors.
func IsPrecondition(err error) bool {
	for _, target := range []error{
		ErrNoListSelected,
		ErrNoSenderSelected,
		ErrInsufficientSenders,
		ErrEmptySubject,
		ErrEmptyBody,
		ErrIneligibleSender,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ErrorCode returns a stable machine-readable code for a precondition or
// lifecycle error, or "" for anything else.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNoListSelected):
		return "NoListSelected"
	case errors.Is(err, ErrNoSenderSelected):
		return "NoSenderSelected"
	case errors.Is(err, ErrInsufficientSenders):
		return "InsufficientSenders"
	case errors.Is(err, ErrEmptySubject):
		return "EmptySubject"
	case errors.Is(err, ErrEmptyBody):
		return "EmptyBody"
	case errors.Is(err, ErrIneligibleSender):
		return "IneligibleSenderSelected"
	case errors.Is(err, ErrSendInFlight):
		return "SendInFlight"
	case errors.Is(err, ErrDraftComplete):
		return "DraftComplete"
	default:
		return ""
	}
}
