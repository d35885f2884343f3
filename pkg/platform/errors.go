package platform

import "errors"

var (
	// ErrNotConnected means no signer account is connected. Checked before
	// any network call is attempted.
	ErrNotConnected = errors.New("no account connected")

	// ErrArgumentSchema marks a positional-argument mismatch against an
	// operation's fixed schema: a caller programming error.
	ErrArgumentSchema = errors.New("argument schema mismatch")

	// ErrSubmissionInFlight means an identical submission by the same signer
	// is still awaiting finality. The duplicate fails fast instead of racing.
	ErrSubmissionInFlight = errors.New("submission already in flight")

	// ErrValidation wraps client-side checks that fail before submission.
	ErrValidation = errors.New("validation failed")
)
