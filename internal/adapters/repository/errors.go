package repository

import "errors"

// Sentinel kinds for snapshot store errors.
var (
	ErrNotFound   = errors.New("snapshot not found")
	ErrInvalidTTL = errors.New("invalid snapshot ttl")
)
