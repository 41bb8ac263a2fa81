package model

import "errors"

// Validation sentinels for catalog writes.
var (
	ErrMissingID     = errors.New("missing id")
	ErrMissingName   = errors.New("missing name")
	ErrBadKind       = errors.New("kind must be bean or drink")
	ErrBadRoast      = errors.New("unknown roast level")
	ErrBadAffinity   = errors.New("unknown temperature affinity")
	ErrNegativePrice = errors.New("price must not be negative")
)
