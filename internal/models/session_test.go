package models_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/guestvault/internal/models"
)

var testNow = time.Date(2026, 5, 10, 8, 30, 0, 0, time.UTC)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func validSession() models.VaultSession {
	return models.VaultSession{
		ID:              "s1",
		Name:            "Morning run",
		Date:            "2026-05-10",
		ActivityType:    models.ActivityCardio,
		Status:          models.StatusCompleted,
		DurationMinutes: 45,
		RPEScore:        intPtr(6),
		CreatedAt:       testNow,
		UpdatedAt:       testNow,
	}
}

func validExercise() models.VaultExercise {
	return models.VaultExercise{
		ID:           "e1",
		SessionID:    "s1",
		Name:         "Intervals",
		ActivityType: models.ActivityCardio,
		Sets:         intPtr(4),
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	}
}

func TestVaultSession_Validate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*models.VaultSession)
		wantField string
	}{
		{"valid", func(s *models.VaultSession) {}, ""},
		{"missing id", func(s *models.VaultSession) { s.ID = "" }, "id"},
		{"blank name", func(s *models.VaultSession) { s.Name = "   " }, "name"},
		{"long name", func(s *models.VaultSession) { s.Name = strings.Repeat("n", 201) }, "name"},
		{"missing date", func(s *models.VaultSession) { s.Date = "" }, "date"},
		{"bad activity", func(s *models.VaultSession) { s.ActivityType = "yoga" }, "activity_type"},
		{"bad status", func(s *models.VaultSession) { s.Status = "done" }, "status"},
		{"negative duration", func(s *models.VaultSession) { s.DurationMinutes = -1 }, "duration_minutes"},
		{"max duration", func(s *models.VaultSession) { s.DurationMinutes = 600 }, ""},
		{"over duration", func(s *models.VaultSession) { s.DurationMinutes = 601 }, "duration_minutes"},
		{"rpe zero", func(s *models.VaultSession) { s.RPEScore = intPtr(0) }, "rpe_score"},
		{"rpe eleven", func(s *models.VaultSession) { s.RPEScore = intPtr(11) }, "rpe_score"},
		{"no rpe", func(s *models.VaultSession) { s.RPEScore = nil }, ""},
		{"pain level", func(s *models.VaultSession) { s.PainLevel = intPtr(12) }, "pain_level"},
		{"notes at limit", func(s *models.VaultSession) { s.Notes = strPtr(strings.Repeat("é", 2000)) }, ""},
		{"notes too long", func(s *models.VaultSession) { s.Notes = strPtr(strings.Repeat("x", 2001)) }, "notes"},
		{"zero created", func(s *models.VaultSession) { s.CreatedAt = time.Time{} }, "created_at"},
		{"updated before created", func(s *models.VaultSession) { s.UpdatedAt = testNow.Add(-time.Hour) }, "updated_at"},
		{"malformed date is structural ok", func(s *models.VaultSession) { s.Date = "yesterday" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSession()
			tt.modify(&s)

			err := s.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, models.ErrValidationFailed)
			var fe *models.FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.wantField, fe.Field)
		})
	}
}

func TestVaultSession_ValidateInput(t *testing.T) {
	s := validSession()
	assert.NoError(t, s.ValidateInput())

	s.Date = "2026-13-40"
	assert.ErrorIs(t, s.ValidateInput(), models.ErrValidationFailed)

	s.Date = "2026-05-10T18:00:00Z"
	assert.NoError(t, s.ValidateInput())
}

func TestNewSessionAndPatch(t *testing.T) {
	notes := "easy pace"
	s := models.NewSession(models.SessionInput{
		Name:            "  Evening ride ",
		Date:            "2026-05-11",
		ActivityType:    models.ActivityCardio,
		DurationMinutes: 60,
		Notes:           &notes,
	}, testNow)

	assert.Equal(t, "Evening ride", s.Name)
	assert.Equal(t, models.StatusDraft, s.Status)
	assert.Equal(t, testNow, s.CreatedAt)

	// input pointers are not shared
	notes = "changed"
	assert.Equal(t, "easy pace", *s.Notes)

	status := models.StatusCompleted
	models.SessionPatch{
		Name:     strPtr("Long ride"),
		Status:   &status,
		RPEScore: intPtr(8),
	}.Apply(&s)

	assert.Equal(t, "Long ride", s.Name)
	assert.Equal(t, models.StatusCompleted, s.Status)
	assert.Equal(t, 8, *s.RPEScore)
	assert.Equal(t, 60, s.DurationMinutes)
}

func TestSameDay(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"2026-05-10", "2026-05-10", true},
		{"2026-05-10", "2026-05-11", false},
		{"2026-05-10", "2026-05-10T07:00:00Z", true},
		{"garbage", "garbage", true},
		{"garbage", "2026-05-10", false},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, models.SameDay(tt.a, tt.b))
		})
	}
}

func TestVaultExercise_Validate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*models.VaultExercise)
		wantField string
	}{
		{"valid", func(e *models.VaultExercise) {}, ""},
		{"missing session", func(e *models.VaultExercise) { e.SessionID = "" }, "session_id"},
		{"blank name", func(e *models.VaultExercise) { e.Name = "" }, "name"},
		{"bad activity", func(e *models.VaultExercise) { e.ActivityType = "" }, "activity_type"},
		{"negative reps", func(e *models.VaultExercise) { e.Reps = intPtr(-2) }, "reps"},
		{"negative weight", func(e *models.VaultExercise) { e.WeightKg = floatPtr(-0.5) }, "weight_kg"},
		{"negative distance", func(e *models.VaultExercise) { e.DistanceMeters = floatPtr(-1) }, "distance_meters"},
		{"rpe out of range", func(e *models.VaultExercise) { e.RPE = intPtr(0) }, "rpe"},
		{"notes too long", func(e *models.VaultExercise) { e.Notes = strPtr(strings.Repeat("x", 1001)) }, "notes"},
		{"negative order", func(e *models.VaultExercise) { e.OrderIndex = -1 }, "order_index"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validExercise()
			tt.modify(&e)

			err := e.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var fe *models.FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.wantField, fe.Field)
		})
	}
}

func TestExercisePatch_MoveSession(t *testing.T) {
	e := validExercise()
	models.ExercisePatch{SessionID: strPtr("s2"), OrderIndex: intPtr(3)}.Apply(&e)

	assert.Equal(t, "s2", e.SessionID)
	assert.Equal(t, 3, e.OrderIndex)
	assert.Equal(t, "Intervals", e.Name)
}
