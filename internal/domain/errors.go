package domain

import "errors"

var (
	ErrInvalidID       = errors.New("invalid id")
	ErrInvalidTitle    = errors.New("invalid title")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidColumnID = errors.New("invalid column id")
	ErrInvalidTheme    = errors.New("invalid theme")
	ErrDuplicateID     = errors.New("duplicate id")
	ErrNoColumns       = errors.New("board has no columns")
)
