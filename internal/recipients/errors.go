package recipients

import "errors"

var (
	// ErrInvalidFormat is returned when an address fails syntactic validation.
	ErrInvalidFormat = errors.New("email address is not valid")

	// ErrAlreadyPresent is returned when a case-insensitive match already
	// exists in the list, whether detected locally or by the backend.
	ErrAlreadyPresent = errors.New("address is already in the list")

	// ErrNoCandidatesFound is returned when pasted text contains no
	// email-shaped tokens. The backend is never called in that case.
	ErrNoCandidatesFound = errors.New("no email addresses found in text")

	// ErrMutationInFlight is returned when a second mutation is attempted on
	// a list while one is still outstanding.
	ErrMutationInFlight = errors.New("another change to this list is still in progress")

	// ErrStaleFetch marks a member fetch whose result arrived after the list
	// entry moved on; the response is discarded, never applied.
	ErrStaleFetch = errors.New("stale member fetch discarded")

	// ErrRecipientNotFound is returned when a removal targets an id that is
	// not in the cached membership.
	ErrRecipientNotFound = errors.New("recipient not found in list")
)
