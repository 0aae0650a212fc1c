package api

import "errors"

// Sentinel kinds for request decoding errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrMissingImage = errors.New("multipart field \"image\" is required")
)
