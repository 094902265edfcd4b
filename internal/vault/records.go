package vault

import (
	"fmt"
	"sort"
	"time"

	"github.com/TheMichaelB/guestvault/internal/models"
)

// CreateSession adds a session and persists the vault.
func (s *Store) CreateSession(in models.SessionInput) (models.VaultSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireActiveLocked(); err != nil {
		return models.VaultSession{}, err
	}

	now := s.now()
	sess := models.NewSession(in, now)
	sess.ID = s.newID()
	if err := sess.ValidateInput(); err != nil {
		return models.VaultSession{}, err
	}

	next := s.snapshot.Clone()
	next.Sessions = append(next.Sessions, sess)
	if err := s.commitLocked(next, now); err != nil {
		return models.VaultSession{}, err
	}

	return sess.Clone(), nil
}

// UpdateSession applies patch to the session with the given ID.
func (s *Store) UpdateSession(id string, patch models.SessionPatch) (models.VaultSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireActiveLocked(); err != nil {
		return models.VaultSession{}, err
	}

	next := s.snapshot.Clone()
	i := next.SessionIndex(id)
	if i < 0 {
		return models.VaultSession{}, fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}

	now := s.now()
	sess := &next.Sessions[i]
	patch.Apply(sess)
	sess.UpdatedAt = now

	// Stored dates are only reformatted when the caller changes them.
	validate := sess.Validate
	if patch.Date != nil {
		validate = sess.ValidateInput
	}
	if err := validate(); err != nil {
		return models.VaultSession{}, err
	}

	if err := s.commitLocked(next, now); err != nil {
		return models.VaultSession{}, err
	}
	return next.Sessions[i].Clone(), nil
}

// DeleteSession removes a session and every exercise that references it.
func (s *Store) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireActiveLocked(); err != nil {
		return err
	}

	next := s.snapshot.Clone()
	i := next.SessionIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}
	next.Sessions = append(next.Sessions[:i], next.Sessions[i+1:]...)

	kept := next.Exercises[:0]
	for _, e := range next.Exercises {
		if e.SessionID != id {
			kept = append(kept, e)
		}
	}
	next.Exercises = kept

	return s.commitLocked(next, s.now())
}

// CreateExercise adds an exercise to an existing session.
func (s *Store) CreateExercise(in models.ExerciseInput) (models.VaultExercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireActiveLocked(); err != nil {
		return models.VaultExercise{}, err
	}
	if s.snapshot.SessionIndex(in.SessionID) < 0 {
		return models.VaultExercise{}, fmt.Errorf("%w: %s", models.ErrSessionNotFound, in.SessionID)
	}

	now := s.now()
	ex := models.NewExercise(in, now)
	ex.ID = s.newID()
	if err := ex.Validate(); err != nil {
		return models.VaultExercise{}, err
	}

	next := s.snapshot.Clone()
	next.Exercises = append(next.Exercises, ex)
	if err := s.commitLocked(next, now); err != nil {
		return models.VaultExercise{}, err
	}

	return ex.Clone(), nil
}

// UpdateExercise applies patch to an exercise. A patch may move the
// exercise to another existing session.
func (s *Store) UpdateExercise(id string, patch models.ExercisePatch) (models.VaultExercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireActiveLocked(); err != nil {
		return models.VaultExercise{}, err
	}

	next := s.snapshot.Clone()
	i := next.ExerciseIndex(id)
	if i < 0 {
		return models.VaultExercise{}, fmt.Errorf("%w: %s", models.ErrExerciseNotFound, id)
	}
	if patch.SessionID != nil && next.SessionIndex(*patch.SessionID) < 0 {
		return models.VaultExercise{}, fmt.Errorf("%w: %s", models.ErrSessionNotFound, *patch.SessionID)
	}

	now := s.now()
	ex := &next.Exercises[i]
	patch.Apply(ex)
	ex.UpdatedAt = now
	if err := ex.Validate(); err != nil {
		return models.VaultExercise{}, err
	}

	if err := s.commitLocked(next, now); err != nil {
		return models.VaultExercise{}, err
	}
	return next.Exercises[i].Clone(), nil
}

// DeleteExercise removes a single exercise.
func (s *Store) DeleteExercise(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireActiveLocked(); err != nil {
		return err
	}

	next := s.snapshot.Clone()
	i := next.ExerciseIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", models.ErrExerciseNotFound, id)
	}
	next.Exercises = append(next.Exercises[:i], next.Exercises[i+1:]...)

	return s.commitLocked(next, s.now())
}

// GetSession returns a session by ID.
func (s *Store) GetSession(id string) (models.VaultSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot == nil {
		return models.VaultSession{}, false
	}
	i := s.snapshot.SessionIndex(id)
	if i < 0 {
		return models.VaultSession{}, false
	}
	return s.snapshot.Sessions[i].Clone(), true
}

// GetSessions returns every session in insertion order.
func (s *Store) GetSessions() []models.VaultSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.VaultSession{}
	if s.snapshot == nil {
		return out
	}
	for i := range s.snapshot.Sessions {
		out = append(out, s.snapshot.Sessions[i].Clone())
	}
	return out
}

// GetExercises returns the exercises of a session ordered by OrderIndex.
func (s *Store) GetExercises(sessionID string) []models.VaultExercise {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.VaultExercise{}
	if s.snapshot == nil {
		return out
	}
	for i := range s.snapshot.Exercises {
		if s.snapshot.Exercises[i].SessionID == sessionID {
			out = append(out, s.snapshot.Exercises[i].Clone())
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].OrderIndex < out[b].OrderIndex
	})
	return out
}

// GetStats returns the derived statistics.
func (s *Store) GetStats() models.VaultStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot == nil {
		return models.ComputeStats(nil, nil)
	}
	return s.snapshot.Stats.Clone()
}

func (s *Store) requireActiveLocked() error {
	if !s.active || s.snapshot == nil {
		return models.ErrNotInGuestMode
	}
	return nil
}

// commitLocked persists next and swaps it in. On failure the current
// snapshot is kept.
func (s *Store) commitLocked(next *models.VaultSnapshot, now time.Time) error {
	next.UpdatedAt = now
	next.RecomputeStats()

	if err := s.persistLocked(next, now); err != nil {
		return err
	}
	s.snapshot = next
	return nil
}
