package models

import (
	"fmt"
	"strings"
	"time"
)

// Strategy selects how conflicting sessions are resolved.
type Strategy string

const (
	StrategyKeepGuest   Strategy = "keep_guest"
	StrategyKeepServer  Strategy = "keep_server"
	StrategyMergeNewest Strategy = "merge_newest"
	StrategyMergeBoth   Strategy = "merge_both"
)

// Strategies lists every supported strategy.
var Strategies = []Strategy{StrategyKeepGuest, StrategyKeepServer, StrategyMergeNewest, StrategyMergeBoth}

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyKeepGuest, StrategyKeepServer, StrategyMergeNewest, StrategyMergeBoth:
		return true
	}
	return false
}

// ParseStrategy accepts a strategy name, ignoring case and surrounding space.
func ParseStrategy(s string) (Strategy, error) {
	st := Strategy(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStrategy, s)
	}
	return st, nil
}

// ConflictKind names the record type of a conflict.
type ConflictKind string

const (
	KindSession  ConflictKind = "session"
	KindExercise ConflictKind = "exercise"
)

// ConflictReason explains why two records were matched.
type ConflictReason string

const (
	ReasonDuplicateName   ConflictReason = "duplicate_name"
	ReasonOverlappingTime ConflictReason = "overlapping_time"
)

// MigrationConflict pairs a local session with a remote one it collides with.
// Conflicts are computed per attempt and never persisted.
type MigrationConflict struct {
	Kind       ConflictKind   `json:"kind"`
	LocalItem  VaultSession   `json:"local_item"`
	RemoteItem RemoteSession  `json:"remote_item"`
	Reason     ConflictReason `json:"reason"`
}

// MigrationResult summarizes one migration attempt.
type MigrationResult struct {
	Success           bool     `json:"success"`
	SessionsMigrated  int      `json:"sessions_migrated"`
	ExercisesMigrated int      `json:"exercises_migrated"`
	ConflictsResolved int      `json:"conflicts_resolved"`
	Errors            []string `json:"errors"`
	StrategyUsed      Strategy `json:"strategy_used"`
}

// MigrationPreview describes what a migration would write.
type MigrationPreview struct {
	SessionsToMigrate  []VaultSession      `json:"sessions_to_migrate"`
	ExercisesToMigrate []VaultExercise     `json:"exercises_to_migrate"`
	Conflicts          []MigrationConflict `json:"conflicts"`
	EstimatedTimeMs    int64               `json:"estimated_time_ms"`
	StrategyUsed       Strategy            `json:"strategy_used"`
}

// RemoteSession is a session as stored on the server for an account.
type RemoteSession struct {
	ID              string           `json:"id"`
	OwnerID         string           `json:"owner_id"`
	Name            string           `json:"name"`
	Date            string           `json:"date"`
	ActivityType    ActivityType     `json:"activity_type"`
	Status          SessionStatus    `json:"status"`
	DurationMinutes int              `json:"duration_minutes"`
	RPEScore        *int             `json:"rpe_score"`
	PainLevel       *int             `json:"pain_level"`
	Notes           *string          `json:"notes"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	Exercises       []RemoteExercise `json:"exercises"`
}

// RemoteExercise is an exercise as stored on the server.
type RemoteExercise struct {
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

// NewRemoteSession converts a local session into an insert record for
// ownerID. The server assigns the ID.
func NewRemoteSession(s VaultSession, ownerID string) RemoteSession {
	return RemoteSession{
		OwnerID:         ownerID,
		Name:            s.Name,
		Date:            s.Date,
		ActivityType:    s.ActivityType,
		Status:          s.Status,
		DurationMinutes: s.DurationMinutes,
		RPEScore:        copyInt(s.RPEScore),
		PainLevel:       copyInt(s.PainLevel),
		Notes:           copyString(s.Notes),
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

// NewRemoteExercise converts a local exercise into an insert record under
// the server session sessionID.
func NewRemoteExercise(e VaultExercise, sessionID string) RemoteExercise {
	return RemoteExercise{
		SessionID:       sessionID,
		Name:            e.Name,
		ActivityType:    e.ActivityType,
		Sets:            copyInt(e.Sets),
		Reps:            copyInt(e.Reps),
		WeightKg:        copyFloat(e.WeightKg),
		DurationSeconds: copyInt(e.DurationSeconds),
		DistanceMeters:  copyFloat(e.DistanceMeters),
		RPE:             copyInt(e.RPE),
		Notes:           copyString(e.Notes),
		OrderIndex:      e.OrderIndex,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}
