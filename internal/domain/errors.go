package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrNoJob            = errors.New("no job available")
	ErrQueueUnavailable = errors.New("queue unavailable")
	ErrTerminalStatus   = errors.New("job already in terminal status")
	ErrInvalidFileMap   = errors.New("invalid file map")
	ErrUnknownTemplate  = errors.New("unknown template")
	ErrProviderFailure  = errors.New("provider failure")
)
