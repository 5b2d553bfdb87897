package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
	ErrNotFound  = errors.New("not_found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("conflict")
	ErrInvalid   = errors.New("invalid")
	// ErrUnprocessable is used for semantic validation failures (HTTP 422)
	ErrUnprocessable = errors.New("unprocessable")
	// ErrUnauthorized marks missing or bad credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrProviderUnavailable wraps failures of the text-generation provider
	// (network, auth, rate limit, unparseable output).
	ErrProviderUnavailable = errors.New("provider_unavailable")
	// ErrReferentialInconsistency marks a transaction whose funding source is
	// missing or of the wrong kind.
	ErrReferentialInconsistency = errors.New("referential_inconsistency")
)
