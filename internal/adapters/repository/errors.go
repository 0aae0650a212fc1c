package repository

import "errors"

// Sentinel kinds for history errors.
var (
	ErrNotFound      = errors.New("photo not found")
	ErrInvalidLimit  = errors.New("invalid history limit")
	ErrMissingID     = errors.New("photo record has no id")
	ErrUnknownEngine = errors.New("unsupported store engine")
)
