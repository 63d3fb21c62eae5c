package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure, with no infrastructure dependency. None of them reach
// the business action that triggered scoring; they are logged and degraded.

var (
	// Session errors
	ErrAuthMismatch = errors.New("session does not own the requested user stats")
	ErrNoSession    = errors.New("no authenticated user")

	// Action errors
	ErrUnknownAction = errors.New("unknown action type")
	ErrRateLimited   = errors.New("action rate limited")
	ErrRewardOnly    = errors.New("action is granted by challenge rewards only")

	// Store errors
	ErrStoreUnavailable = errors.New("document store unavailable")
	ErrInvalidFilter    = errors.New("invalid record filter")
	ErrInvalidKey       = errors.New("invalid document key")
	ErrNotFound         = errors.New("document not found")
)
