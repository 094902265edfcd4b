package models

import (
	"fmt"
	"time"
)

// SchemaVersion is the current snapshot layout.
const SchemaVersion = 1

// VaultSnapshot is the unit that gets encrypted and persisted as a whole.
type VaultSnapshot struct {
	Sessions      []VaultSession  `json:"sessions"`
	Exercises     []VaultExercise `json:"exercises"`
	Stats         VaultStats      `json:"stats"`
	SchemaVersion int             `json:"schema_version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// VaultMetadata is stored unencrypted next to the envelope.
type VaultMetadata struct {
	SchemaVersion int       `json:"schema_version"`
	LastAccessed  time.Time `json:"last_accessed"`
	ExpiresAt     time.Time `json:"expires_at"`
	RecordCount   int       `json:"record_count"`
}

// NewSnapshot returns an empty snapshot created at now.
func NewSnapshot(now time.Time) *VaultSnapshot {
	s := &VaultSnapshot{
		Sessions:      []VaultSession{},
		Exercises:     []VaultExercise{},
		SchemaVersion: SchemaVersion,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.RecomputeStats()
	return s
}

// RecomputeStats refreshes Stats from the current records.
func (s *VaultSnapshot) RecomputeStats() {
	s.Stats = ComputeStats(s.Sessions, s.Exercises)
}

// RecordCount returns the number of sessions plus exercises.
func (s *VaultSnapshot) RecordCount() int {
	return len(s.Sessions) + len(s.Exercises)
}

// IsEmpty reports whether the snapshot holds no records.
func (s *VaultSnapshot) IsEmpty() bool {
	return s == nil || s.RecordCount() == 0
}

// SessionIndex returns the position of a session or -1.
func (s *VaultSnapshot) SessionIndex(id string) int {
	for i := range s.Sessions {
		if s.Sessions[i].ID == id {
			return i
		}
	}
	return -1
}

// ExerciseIndex returns the position of an exercise or -1.
func (s *VaultSnapshot) ExerciseIndex(id string) int {
	for i := range s.Exercises {
		if s.Exercises[i].ID == id {
			return i
		}
	}
	return -1
}

// Validate checks the snapshot structure and every record in it, returning
// the first violation. Orphaned exercises are not structural errors.
func (s *VaultSnapshot) Validate() error {
	if s == nil {
		return fieldErr("snapshot", "snapshot", "is missing")
	}
	if s.SchemaVersion < 1 || s.SchemaVersion > SchemaVersion {
		return fieldErr("snapshot", "schema_version", fmt.Sprintf("unsupported version %d", s.SchemaVersion))
	}
	if s.CreatedAt.IsZero() {
		return fieldErr("snapshot", "created_at", "is required")
	}
	if s.Sessions == nil {
		return fieldErr("snapshot", "sessions", "is required")
	}
	if s.Exercises == nil {
		return fieldErr("snapshot", "exercises", "is required")
	}

	seen := make(map[string]bool, s.RecordCount())
	for i := range s.Sessions {
		if err := s.Sessions[i].Validate(); err != nil {
			return err
		}
		if seen[s.Sessions[i].ID] {
			return fieldErr("session "+s.Sessions[i].ID, "id", "is duplicated")
		}
		seen[s.Sessions[i].ID] = true
	}

	for i := range s.Exercises {
		if err := s.Exercises[i].Validate(); err != nil {
			return err
		}
		if seen[s.Exercises[i].ID] {
			return fieldErr("exercise "+s.Exercises[i].ID, "id", "is duplicated")
		}
		seen[s.Exercises[i].ID] = true
	}

	return nil
}

// Clone returns a deep copy.
func (s *VaultSnapshot) Clone() *VaultSnapshot {
	if s == nil {
		return nil
	}

	c := &VaultSnapshot{
		Sessions:      make([]VaultSession, len(s.Sessions)),
		Exercises:     make([]VaultExercise, len(s.Exercises)),
		Stats:         s.Stats.Clone(),
		SchemaVersion: s.SchemaVersion,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	for i := range s.Sessions {
		c.Sessions[i] = s.Sessions[i].Clone()
	}
	for i := range s.Exercises {
		c.Exercises[i] = s.Exercises[i].Clone()
	}
	return c
}

// Clone returns a copy that shares no pointers with s.
func (s *VaultSession) Clone() VaultSession {
	c := *s
	c.RPEScore = copyInt(s.RPEScore)
	c.PainLevel = copyInt(s.PainLevel)
	c.Notes = copyString(s.Notes)
	return c
}

// Clone returns a copy that shares no pointers with e.
func (e *VaultExercise) Clone() VaultExercise {
	c := *e
	c.Sets = copyInt(e.Sets)
	c.Reps = copyInt(e.Reps)
	c.WeightKg = copyFloat(e.WeightKg)
	c.DurationSeconds = copyInt(e.DurationSeconds)
	c.DistanceMeters = copyFloat(e.DistanceMeters)
	c.RPE = copyInt(e.RPE)
	c.Notes = copyString(e.Notes)
	return c
}

// Clone returns a deep copy.
func (s VaultStats) Clone() VaultStats {
	byType := make(map[ActivityType]int, len(s.SessionsByType))
	for k, v := range s.SessionsByType {
		byType[k] = v
	}
	s.SessionsByType = byType
	s.AverageRPE = copyFloat(s.AverageRPE)
	s.MostRecentSessionDate = copyString(s.MostRecentSessionDate)
	return s
}
