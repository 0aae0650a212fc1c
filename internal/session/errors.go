package session

import (
	"errors"
)

// Sentinel kinds for session errors.
var (
	ErrPersist        = errors.New("session persist failed")
	ErrCorruptSession = errors.New("session file is corrupt or sealed with another secret")
)
