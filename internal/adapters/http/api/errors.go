package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrNotFound      = errors.New("not found")
	ErrEmptyProfile  = errors.New("profile carries no signal")
	ErrBadLimit      = errors.New("limit must be a positive integer within bounds")
	ErrNegativePrice = errors.New("max_price must not be negative")
	ErrMissingRater  = errors.New("missing rater_id")
	ErrBadKind       = errors.New("kind must be bean or drink")
	ErrBadRoast      = errors.New("unknown roast level")
	ErrBadSensory    = errors.New("desired sensory values must be within [0,5]")
)

func wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

func wrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}
