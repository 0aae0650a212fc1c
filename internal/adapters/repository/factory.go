package repository

import (
	"fmt"
	"strings"
)

// Engines accepted by NewByEngine.
const (
	EngineMemory = "memory"
	EngineSQLite = "sqlite"
)

// NewByEngine builds the history store named by engine. path is only used by
// the SQLite engine.
func NewByEngine(engine, path string, opts ...Option) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineMemory:
		return NewMemoryStore(opts...), nil
	case EngineSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEngine, engine)
	}
}
