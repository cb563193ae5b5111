package mealbatch

import "errors"

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrNoPendingInputs   = errors.New("no pending meal inputs")
	ErrSummaryNotFound   = errors.New("day summary not found")
	ErrEditLimitExceeded = errors.New("edit limit exceeded")
)
