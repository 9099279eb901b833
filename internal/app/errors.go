package service

import "errors"

// Sentinel kinds for aggregation service errors.
var (
	ErrNotStarted         = errors.New("service not started")
	ErrNoQuerier          = errors.New("no query client configured")
	ErrMissingDistributor = errors.New("distributor name required")
	ErrAggregationFailed  = errors.New("aggregation failed")
	ErrBadRow             = errors.New("malformed result row")
)
