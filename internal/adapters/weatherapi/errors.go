package weatherapi

import "errors"

// Sentinel kinds for upstream weather errors.
var (
	ErrUpstream = errors.New("weather upstream failed")
	ErrDecode   = errors.New("weather response decode failed")
)
