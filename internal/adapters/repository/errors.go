package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrItemNotFound = errors.New("item not found")
	ErrInvalidLimit = errors.New("invalid limit")
	ErrEmptyID      = errors.New("empty id")
)
