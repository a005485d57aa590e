package app

import "errors"

// ErrUnsupportedSnapshot and related errors describe validation and runtime failures.
var (
	ErrUnsupportedSnapshot = errors.New("unsupported snapshot version")
	ErrInvalidSnapshot     = errors.New("invalid snapshot")
	ErrNoStore             = errors.New("no store configured")
)
