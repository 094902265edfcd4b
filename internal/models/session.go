package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

// ActivityType classifies a session or exercise.
type ActivityType string

const (
	ActivityCardio      ActivityType = "cardio"
	ActivityStrength    ActivityType = "strength"
	ActivityFlexibility ActivityType = "flexibility"
	ActivityOther       ActivityType = "other"
)

// ActivityTypes lists every activity type in display order.
var ActivityTypes = []ActivityType{ActivityCardio, ActivityStrength, ActivityFlexibility, ActivityOther}

// Valid reports whether a is a known activity type.
func (a ActivityType) Valid() bool {
	switch a {
	case ActivityCardio, ActivityStrength, ActivityFlexibility, ActivityOther:
		return true
	}
	return false
}

// SessionStatus tracks completion of a session.
type SessionStatus string

const (
	StatusDraft      SessionStatus = "draft"
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
)

// Valid reports whether s is a known status.
func (s SessionStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Limits
const (
	MaxDurationMinutes = 600
	MaxSessionNotes    = 2000
	MaxExerciseNotes   = 1000
	MaxNameLength      = 200
	MinScore           = 1
	MaxScore           = 10
	DateLayout         = "2006-01-02"
)

// VaultSession is a workout session held in the guest vault.
// Optional fields serialize as null when unset.
type VaultSession struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Date            string        `json:"date"`
	ActivityType    ActivityType  `json:"activity_type"`
	Status          SessionStatus `json:"status"`
	DurationMinutes int           `json:"duration_minutes"`
	RPEScore        *int          `json:"rpe_score"`
	PainLevel       *int          `json:"pain_level"`
	Notes           *string       `json:"notes"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// SessionInput carries the caller-supplied fields of a new session.
type SessionInput struct {
	Name            string        `json:"name"`
	Date            string        `json:"date"`
	ActivityType    ActivityType  `json:"activity_type"`
	Status          SessionStatus `json:"status"`
	DurationMinutes int           `json:"duration_minutes"`
	RPEScore        *int          `json:"rpe_score"`
	PainLevel       *int          `json:"pain_level"`
	Notes           *string       `json:"notes"`
}

// SessionPatch holds a partial update. Nil fields are left unchanged.
type SessionPatch struct {
	Name            *string        `json:"name"`
	Date            *string        `json:"date"`
	ActivityType    *ActivityType  `json:"activity_type"`
	Status          *SessionStatus `json:"status"`
	DurationMinutes *int           `json:"duration_minutes"`
	RPEScore        *int           `json:"rpe_score"`
	PainLevel       *int           `json:"pain_level"`
	Notes           *string        `json:"notes"`
}

// NewSession builds a session from input without assigning an ID.
// Status defaults to draft.
func NewSession(in SessionInput, now time.Time) VaultSession {
	status := in.Status
	if status == "" {
		status = StatusDraft
	}
	return VaultSession{
		Name:            strings.TrimSpace(in.Name),
		Date:            strings.TrimSpace(in.Date),
		ActivityType:    in.ActivityType,
		Status:          status,
		DurationMinutes: in.DurationMinutes,
		RPEScore:        copyInt(in.RPEScore),
		PainLevel:       copyInt(in.PainLevel),
		Notes:           copyString(in.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Apply copies the set fields of p onto s.
func (p SessionPatch) Apply(s *VaultSession) {
	if p.Name != nil {
		s.Name = strings.TrimSpace(*p.Name)
	}
	if p.Date != nil {
		s.Date = strings.TrimSpace(*p.Date)
	}
	if p.ActivityType != nil {
		s.ActivityType = *p.ActivityType
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.DurationMinutes != nil {
		s.DurationMinutes = *p.DurationMinutes
	}
	if p.RPEScore != nil {
		s.RPEScore = copyInt(p.RPEScore)
	}
	if p.PainLevel != nil {
		s.PainLevel = copyInt(p.PainLevel)
	}
	if p.Notes != nil {
		s.Notes = copyString(p.Notes)
	}
}

// Validate checks the structure of a stored session. It stops at the first
// violation. Date format is not checked here so that a snapshot holding a
// malformed date can still be loaded and reported.
func (s *VaultSession) Validate() error {
	rec := "session " + s.ID

	if strings.TrimSpace(s.ID) == "" {
		return fieldErr("session", "id", "is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return fieldErr(rec, "name", "is required")
	}
	if utf8.RuneCountInString(s.Name) > MaxNameLength {
		return fieldErr(rec, "name", "is too long")
	}
	if strings.TrimSpace(s.Date) == "" {
		return fieldErr(rec, "date", "is required")
	}
	if !s.ActivityType.Valid() {
		return fieldErr(rec, "activity_type", "unknown value "+string(s.ActivityType))
	}
	if !s.Status.Valid() {
		return fieldErr(rec, "status", "unknown value "+string(s.Status))
	}
	if s.DurationMinutes < 0 || s.DurationMinutes > MaxDurationMinutes {
		return fieldErr(rec, "duration_minutes", "must be between 0 and 600")
	}
	if !scoreInRange(s.RPEScore) {
		return fieldErr(rec, "rpe_score", "must be between 1 and 10")
	}
	if !scoreInRange(s.PainLevel) {
		return fieldErr(rec, "pain_level", "must be between 1 and 10")
	}
	if s.Notes != nil && utf8.RuneCountInString(*s.Notes) > MaxSessionNotes {
		return fieldErr(rec, "notes", "exceeds 2000 characters")
	}
	if s.CreatedAt.IsZero() {
		return fieldErr(rec, "created_at", "is required")
	}
	if s.UpdatedAt.Before(s.CreatedAt) {
		return fieldErr(rec, "updated_at", "cannot be before created_at")
	}
	return nil
}

// ValidateInput is Validate plus checks that only apply to new writes.
func (s *VaultSession) ValidateInput() error {
	if err := s.Validate(); err != nil {
		return err
	}
	if _, err := ParseDate(s.Date); err != nil {
		return fieldErr("session "+s.ID, "date", "must be YYYY-MM-DD")
	}
	return nil
}

// ParseDate parses a session date. Full RFC 3339 timestamps are accepted
// and truncated to their calendar day.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// SameDay reports whether two session dates fall on the same calendar day.
// Unparsable dates only match when the raw strings are identical.
func SameDay(a, b string) bool {
	ta, errA := ParseDate(a)
	tb, errB := ParseDate(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return ta.Equal(tb)
}

func scoreInRange(v *int) bool {
	return v == nil || (*v >= MinScore && *v <= MaxScore)
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
