package game

import "errors"

var (
	// ErrInvalidAction is returned for anything other than Hit or Stand.
	ErrInvalidAction = errors.New("game: invalid action")

	// ErrAlreadyDone is returned by Step once the round is over; call Reset.
	ErrAlreadyDone = errors.New("game: round already finished")

	// ErrNotStarted is returned by Step before the first Reset.
	ErrNotStarted = errors.New("game: round not started")

	// ErrMissingHoleCard means the dealer turn ran before a hole card was
	// dealt. It indicates a sequencing bug, not a recoverable condition.
	ErrMissingHoleCard = errors.New("game: dealer has no hole card")
)
