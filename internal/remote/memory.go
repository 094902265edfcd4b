// Package remote holds account-side session stores.
package remote

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/TheMichaelB/guestvault/internal/models"
)

// MemoryStore keeps remote sessions in process. Failures can be injected
// per operation or per record name.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]models.RemoteSession // owner -> sessions
	owners   map[string]string                 // session id -> owner

	fetchErr         error
	sessionFailures  map[string]error
	exerciseFailures map[string]error
	sessionInserts   int
	exerciseInserts  int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:         make(map[string][]models.RemoteSession),
		owners:           make(map[string]string),
		sessionFailures:  make(map[string]error),
		exerciseFailures: make(map[string]error),
	}
}

// SelectSessionsWithExercises returns copies of the owner's sessions.
func (m *MemoryStore) SelectSessionsWithExercises(ctx context.Context, ownerID string) ([]models.RemoteSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.fetchErr != nil {
		return nil, m.fetchErr
	}

	out := make([]models.RemoteSession, 0, len(m.sessions[ownerID]))
	for _, s := range m.sessions[ownerID] {
		out = append(out, cloneSession(s))
	}
	return out, nil
}

// InsertSession stores rec and assigns it a new UUID.
func (m *MemoryStore) InsertSession(ctx context.Context, ownerID string, rec models.RemoteSession) (models.RemoteSession, error) {
	if err := ctx.Err(); err != nil {
		return models.RemoteSession{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.sessionFailures[rec.Name]; ok {
		return models.RemoteSession{}, err
	}

	rec = cloneSession(rec)
	rec.ID = uuid.NewString()
	rec.OwnerID = ownerID
	rec.Exercises = []models.RemoteExercise{}

	m.sessions[ownerID] = append(m.sessions[ownerID], rec)
	m.owners[rec.ID] = ownerID
	m.sessionInserts++

	return cloneSession(rec), nil
}

// InsertExercise attaches rec to the session sessionID.
func (m *MemoryStore) InsertExercise(ctx context.Context, sessionID string, rec models.RemoteExercise) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.exerciseFailures[rec.Name]; ok {
		return err
	}

	owner, ok := m.owners[sessionID]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionID, models.ErrSessionNotFound)
	}

	rec.ID = uuid.NewString()
	rec.SessionID = sessionID

	sessions := m.sessions[owner]
	for i := range sessions {
		if sessions[i].ID == sessionID {
			sessions[i].Exercises = append(sessions[i].Exercises, rec)
			break
		}
	}
	m.exerciseInserts++
	return nil
}

// Seed adds existing sessions for ownerID. Sessions without an ID get one.
func (m *MemoryStore) Seed(ownerID string, sessions ...models.RemoteSession) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range sessions {
		s = cloneSession(s)
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		s.OwnerID = ownerID
		if s.Exercises == nil {
			s.Exercises = []models.RemoteExercise{}
		}
		m.sessions[ownerID] = append(m.sessions[ownerID], s)
		m.owners[s.ID] = ownerID
	}
}

// Sessions returns a copy of everything stored for ownerID.
// Injected fetch failures do not apply.
func (m *MemoryStore) Sessions(ownerID string) []models.RemoteSession {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.RemoteSession, 0, len(m.sessions[ownerID]))
	for _, s := range m.sessions[ownerID] {
		out = append(out, cloneSession(s))
	}
	return out
}

// Helper methods for testing

// FailFetch makes SelectSessionsWithExercises return err (nil clears it).
func (m *MemoryStore) FailFetch(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchErr = err
}

// FailSessionInsert makes inserting a session named name return err.
func (m *MemoryStore) FailSessionInsert(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionFailures[name] = err
}

// FailExerciseInsert makes inserting an exercise named name return err.
func (m *MemoryStore) FailExerciseInsert(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exerciseFailures[name] = err
}

// InsertCounts returns the number of successful session and exercise inserts.
func (m *MemoryStore) InsertCounts() (sessions, exercises int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionInserts, m.exerciseInserts
}

func cloneSession(s models.RemoteSession) models.RemoteSession {
	c := s
	if s.Exercises != nil {
		c.Exercises = append([]models.RemoteExercise(nil), s.Exercises...)
	}
	return c
}
