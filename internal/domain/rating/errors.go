package rating

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidScore = errors.New("rating score must be between 1 and 5")
)
