package storage

import (
	"sync"
)

// MemoryStore keeps slots in process memory. It backs tests and
// throwaway vaults.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[string][]byte

	// Injected failures
	readErr     error
	writeErr    error
	keyReadErrs map[string]error
	writes      map[string][][]byte
}

// NewMemoryStore creates an in-memory slot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		slots:       make(map[string][]byte),
		keyReadErrs: make(map[string]error),
		writes:      make(map[string][][]byte),
	}
}

// Write saves data to a slot.
func (m *MemoryStore) Write(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		return m.writeErr
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	m.slots[key] = stored

	history := make([]byte, len(data))
	copy(history, data)
	m.writes[key] = append(m.writes[key], history)
	return nil
}

// Read retrieves slot contents.
func (m *MemoryStore) Read(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.readErr != nil {
		return nil, m.readErr
	}
	if err := m.keyReadErrs[key]; err != nil {
		return nil, err
	}

	if data, ok := m.slots[key]; ok {
		result := make([]byte, len(data))
		copy(result, data)
		return result, nil
	}

	return nil, ErrNotFound
}

// Delete removes a slot.
func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.slots, key)
	return nil
}

// Exists checks if a slot exists.
func (m *MemoryStore) Exists(key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.slots[key]
	return exists, nil
}

// Helper methods for testing

// SetReadError makes every Read fail with err (nil clears it).
func (m *MemoryStore) SetReadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// SetSlotReadError makes Read of key fail with err (nil clears it).
func (m *MemoryStore) SetSlotReadError(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.keyReadErrs, key)
		return
	}
	m.keyReadErrs[key] = err
}

// SetWriteError makes every Write fail with err (nil clears it).
func (m *MemoryStore) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// Put stores raw bytes directly, bypassing injected failures.
func (m *MemoryStore) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[key] = data
}

// WriteHistory returns every value written to key, oldest first.
func (m *MemoryStore) WriteHistory(key string) [][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([][]byte(nil), m.writes[key]...)
}

// Len returns the number of stored slots.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.slots)
}
