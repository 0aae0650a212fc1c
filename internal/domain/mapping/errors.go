package mapping

import (
	"errors"
)

// Sentinel kinds for mapping errors.
var (
	ErrEmptyResults = errors.New("empty results")
	ErrInvalidScore = errors.New("invalid score")
)

// MappingError reports vendor results that could not be mapped at all.
// It matches ErrEmptyResults with errors.Is and unwraps to the decode cause.
type MappingError struct {
	Err error
}

func (e *MappingError) Error() string {
	if e.Err != nil {
		return "mapping: " + ErrEmptyResults.Error() + ": " + e.Err.Error()
	}
	return "mapping: " + ErrEmptyResults.Error()
}

func (e *MappingError) Unwrap() error { return e.Err }

// Is reports whether target is ErrEmptyResults.
func (e *MappingError) Is(target error) bool { return target == ErrEmptyResults }
