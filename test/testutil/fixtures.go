package testutil

import (
	"time"

	"github.com/TheMichaelB/guestvault/internal/models"
)

// BaseTime is the reference instant used by fixtures.
var BaseTime = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// FloatPtr returns a pointer to v.
func FloatPtr(v float64) *float64 { return &v }

// StrPtr returns a pointer to v.
func StrPtr(v string) *string { return &v }

// SessionInput returns a valid session input.
func SessionInput(name, date string, minutes int) models.SessionInput {
	return models.SessionInput{
		Name:            name,
		Date:            date,
		ActivityType:    models.ActivityStrength,
		Status:          models.StatusCompleted,
		DurationMinutes: minutes,
		RPEScore:        IntPtr(6),
	}
}

// ExerciseInput returns a valid exercise input for sessionID.
func ExerciseInput(sessionID, name string, order int) models.ExerciseInput {
	return models.ExerciseInput{
		SessionID:    sessionID,
		Name:         name,
		ActivityType: models.ActivityStrength,
		Sets:         IntPtr(3),
		Reps:         IntPtr(10),
		WeightKg:     FloatPtr(40),
		OrderIndex:   order,
	}
}

// Session builds a stored session directly.
func Session(id, name, date string, minutes int) models.VaultSession {
	return models.VaultSession{
		ID:              id,
		Name:            name,
		Date:            date,
		ActivityType:    models.ActivityStrength,
		Status:          models.StatusCompleted,
		DurationMinutes: minutes,
		CreatedAt:       BaseTime,
		UpdatedAt:       BaseTime,
	}
}

// Exercise builds a stored exercise directly.
func Exercise(id, sessionID, name string, order int) models.VaultExercise {
	return models.VaultExercise{
		ID:           id,
		SessionID:    sessionID,
		Name:         name,
		ActivityType: models.ActivityStrength,
		Sets:         IntPtr(3),
		OrderIndex:   order,
		CreatedAt:    BaseTime,
		UpdatedAt:    BaseTime,
	}
}

// RemoteSession builds a server-side session.
func RemoteSession(id, name, date string, minutes int) models.RemoteSession {
	return models.RemoteSession{
		ID:              id,
		Name:            name,
		Date:            date,
		ActivityType:    models.ActivityStrength,
		Status:          models.StatusCompleted,
		DurationMinutes: minutes,
		CreatedAt:       BaseTime,
		UpdatedAt:       BaseTime,
		Exercises:       []models.RemoteExercise{},
	}
}

// Snapshot assembles a snapshot with stats computed.
func Snapshot(sessions []models.VaultSession, exercises []models.VaultExercise) *models.VaultSnapshot {
	snap := models.NewSnapshot(BaseTime)
	snap.Sessions = append(snap.Sessions, sessions...)
	snap.Exercises = append(snap.Exercises, exercises...)
	snap.RecomputeStats()
	return snap
}
