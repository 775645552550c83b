package errs

import "errors"

// Domain sentinel errors, mapped to HTTP status codes in handlers.
var (
	ErrMatchNotFound    = errors.New("match not found")
	ErrGameNotFound     = errors.New("game not found")
	ErrEmptyGame        = errors.New("game has no questions")
	ErrInvalidPhase     = errors.New("action not allowed in current phase")
	ErrInvalidOption    = errors.New("option index out of range")
	ErrQuestionClosed   = errors.New("question no longer accepts answers")
	ErrUnauthorized     = errors.New("not allowed")
	ErrConflict         = errors.New("concurrent update detected, retry")
	ErrStoreUnavailable = errors.New("store unavailable")
)
