package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

// VaultExercise belongs to a session through SessionID. The reference is
// not enforced by storage; orphans are reported by validation.
type VaultExercise struct {
	ID              string       `json:"id"`
	SessionID       string       `json:"session_id"`
	Name            string       `json:"name"`
	ActivityType    ActivityType `json:"activity_type"`
	Sets            *int         `json:"sets"`
	Reps            *int         `json:"reps"`
	WeightKg        *float64     `json:"weight_kg"`
	DurationSeconds *int         `json:"duration_seconds"`
	DistanceMeters  *float64     `json:"distance_meters"`
	RPE             *int         `json:"rpe"`
	Notes           *string      `json:"notes"`
	OrderIndex      int          `json:"order_index"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// ExerciseInput carries the caller-supplied fields of a new exercise.
type ExerciseInput struct {
	SessionID       string       `json:"session_id"`
	Name            string       `json:"name"`
	ActivityType    ActivityType `json:"activity_type"`
	Sets            *int         `json:"sets"`
	Reps            *int         `json:"reps"`
	WeightKg        *float64     `json:"weight_kg"`
	DurationSeconds *int         `json:"duration_seconds"`
	DistanceMeters  *float64     `json:"distance_meters"`
	RPE             *int         `json:"rpe"`
	Notes           *string      `json:"notes"`
	OrderIndex      int          `json:"order_index"`
}

// ExercisePatch holds a partial update. Nil fields are left unchanged.
// Setting SessionID moves the exercise to another session.
type ExercisePatch struct {
	SessionID       *string       `json:"session_id"`
	Name            *string       `json:"name"`
	ActivityType    *ActivityType `json:"activity_type"`
	Sets            *int          `json:"sets"`
	Reps            *int          `json:"reps"`
	WeightKg        *float64      `json:"weight_kg"`
	DurationSeconds *int          `json:"duration_seconds"`
	DistanceMeters  *float64      `json:"distance_meters"`
	RPE             *int          `json:"rpe"`
	Notes           *string       `json:"notes"`
	OrderIndex      *int          `json:"order_index"`
}

// NewExercise builds an exercise from input without assigning an ID.
func NewExercise(in ExerciseInput, now time.Time) VaultExercise {
	return VaultExercise{
		SessionID:       in.SessionID,
		Name:            strings.TrimSpace(in.Name),
		ActivityType:    in.ActivityType,
		Sets:            copyInt(in.Sets),
		Reps:            copyInt(in.Reps),
		WeightKg:        copyFloat(in.WeightKg),
		DurationSeconds: copyInt(in.DurationSeconds),
		DistanceMeters:  copyFloat(in.DistanceMeters),
		RPE:             copyInt(in.RPE),
		Notes:           copyString(in.Notes),
		OrderIndex:      in.OrderIndex,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Apply copies the set fields of p onto e.
func (p ExercisePatch) Apply(e *VaultExercise) {
	if p.SessionID != nil {
		e.SessionID = *p.SessionID
	}
	if p.Name != nil {
		e.Name = strings.TrimSpace(*p.Name)
	}
	if p.ActivityType != nil {
		e.ActivityType = *p.ActivityType
	}
	if p.Sets != nil {
		e.Sets = copyInt(p.Sets)
	}
	if p.Reps != nil {
		e.Reps = copyInt(p.Reps)
	}
	if p.WeightKg != nil {
		e.WeightKg = copyFloat(p.WeightKg)
	}
	if p.DurationSeconds != nil {
		e.DurationSeconds = copyInt(p.DurationSeconds)
	}
	if p.DistanceMeters != nil {
		e.DistanceMeters = copyFloat(p.DistanceMeters)
	}
	if p.RPE != nil {
		e.RPE = copyInt(p.RPE)
	}
	if p.Notes != nil {
		e.Notes = copyString(p.Notes)
	}
	if p.OrderIndex != nil {
		e.OrderIndex = *p.OrderIndex
	}
}

// Validate checks the structure of an exercise, stopping at the first
// violation.
func (e *VaultExercise) Validate() error {
	rec := "exercise " + e.ID

	if strings.TrimSpace(e.ID) == "" {
		return fieldErr("exercise", "id", "is required")
	}
	if strings.TrimSpace(e.SessionID) == "" {
		return fieldErr(rec, "session_id", "is required")
	}
	if strings.TrimSpace(e.Name) == "" {
		return fieldErr(rec, "name", "is required")
	}
	if utf8.RuneCountInString(e.Name) > MaxNameLength {
		return fieldErr(rec, "name", "is too long")
	}
	if !e.ActivityType.Valid() {
		return fieldErr(rec, "activity_type", "unknown value "+string(e.ActivityType))
	}
	if !nonNegativeInt(e.Sets) {
		return fieldErr(rec, "sets", "must not be negative")
	}
	if !nonNegativeInt(e.Reps) {
		return fieldErr(rec, "reps", "must not be negative")
	}
	if !nonNegativeFloat(e.WeightKg) {
		return fieldErr(rec, "weight_kg", "must not be negative")
	}
	if !nonNegativeInt(e.DurationSeconds) {
		return fieldErr(rec, "duration_seconds", "must not be negative")
	}
	if !nonNegativeFloat(e.DistanceMeters) {
		return fieldErr(rec, "distance_meters", "must not be negative")
	}
	if !scoreInRange(e.RPE) {
		return fieldErr(rec, "rpe", "must be between 1 and 10")
	}
	if e.Notes != nil && utf8.RuneCountInString(*e.Notes) > MaxExerciseNotes {
		return fieldErr(rec, "notes", "exceeds 1000 characters")
	}
	if e.OrderIndex < 0 {
		return fieldErr(rec, "order_index", "must not be negative")
	}
	if e.CreatedAt.IsZero() {
		return fieldErr(rec, "created_at", "is required")
	}
	if e.UpdatedAt.Before(e.CreatedAt) {
		return fieldErr(rec, "updated_at", "cannot be before created_at")
	}
	return nil
}

func nonNegativeInt(v *int) bool {
	return v == nil || *v >= 0
}

func nonNegativeFloat(v *float64) bool {
	return v == nil || *v >= 0
}
