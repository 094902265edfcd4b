package storage

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// Store persists opaque values under named slots.
type Store interface {
	// Read retrieves the value stored under key.
	Read(key string) ([]byte, error)

	// Write replaces the value stored under key.
	Write(key string, data []byte) error

	// Delete removes a slot. Deleting a missing slot is not an error.
	Delete(key string) error

	// Exists checks if a slot holds a value.
	Exists(key string) (bool, error)
}

// Wiper is implemented by stores that can overwrite a slot's storage in
// place. SecureDelete prefers it over rewriting through Write.
type Wiper interface {
	Wipe(key string) error
}

// Errors
var (
	ErrNotFound   = errors.New("slot not found")
	ErrInvalidKey = errors.New("invalid slot key")
)

// SecureDelete overwrites a slot with random bytes of the same length
// before deleting it. A missing slot is not an error.
func SecureDelete(store Store, key string) error {
	if w, ok := store.(Wiper); ok {
		if err := w.Wipe(key); err != nil {
			return fmt.Errorf("wipe slot %s: %w", key, err)
		}
		return nil
	}

	data, err := store.Read(key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read slot %s: %w", key, err)
	}

	size := len(data)
	if size == 0 {
		size = 32
	}
	noise := make([]byte, size)
	if _, err := rand.Read(noise); err != nil {
		return fmt.Errorf("generate overwrite bytes: %w", err)
	}

	if err := store.Write(key, noise); err != nil {
		return fmt.Errorf("overwrite slot %s: %w", key, err)
	}

	if err := store.Delete(key); err != nil {
		return fmt.Errorf("delete slot %s: %w", key, err)
	}

	return nil
}
