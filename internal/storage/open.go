package storage

import (
	"fmt"

	"github.com/TheMichaelB/guestvault/internal/config"
	"github.com/TheMichaelB/guestvault/internal/events"
)

// Open builds the slot store selected by configuration. The returned
// close function releases backend resources and is never nil.
func Open(cfg *config.StorageConfig, logger *events.Logger) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case "file":
		store, err := NewFileStore(cfg.SlotDir, logger)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil

	case "sqlite":
		store, err := NewSQLiteStore(cfg.SQLitePath, logger)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil

	case "memory":
		return NewMemoryStore(), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
