package domain

import "errors"

var (
	ErrTitleRequired   = errors.New("event title required")
	ErrInvalidInterval = errors.New("start time must be before end time")
	ErrOwnerRequired   = errors.New("owner id required")
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrActionNotFound covers three cases on purpose: unknown id, an action
	// owned by a different user, and an expired action. A single message
	// avoids leaking existence or ownership.
	ErrActionNotFound = errors.New("action not found or expired")

	ErrUnsupportedAction = errors.New("unsupported action type")

	ErrGatewayUnauthorized = errors.New("calendar credentials invalid or expired")
	ErrGatewayUnavailable  = errors.New("calendar provider unavailable")
)
