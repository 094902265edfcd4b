package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/guestvault/internal/models"
)

func TestNewSnapshot(t *testing.T) {
	snap := models.NewSnapshot(testNow)

	assert.Equal(t, models.SchemaVersion, snap.SchemaVersion)
	assert.NotNil(t, snap.Sessions)
	assert.NotNil(t, snap.Exercises)
	assert.True(t, snap.IsEmpty())
	assert.Equal(t, models.ComputeStats(nil, nil), snap.Stats)
	assert.NoError(t, snap.Validate())
}

func TestSnapshot_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*models.VaultSnapshot)
		wantErr bool
	}{
		{"valid", func(s *models.VaultSnapshot) {}, false},
		{"unknown schema", func(s *models.VaultSnapshot) { s.SchemaVersion = 99 }, true},
		{"zero schema", func(s *models.VaultSnapshot) { s.SchemaVersion = 0 }, true},
		{"nil sessions", func(s *models.VaultSnapshot) { s.Sessions = nil }, true},
		{"nil exercises", func(s *models.VaultSnapshot) { s.Exercises = nil }, true},
		{"bad session", func(s *models.VaultSnapshot) { s.Sessions[0].Status = "nope" }, true},
		{"bad exercise", func(s *models.VaultSnapshot) { s.Exercises[0].Name = "" }, true},
		{"duplicate ids", func(s *models.VaultSnapshot) { s.Exercises[0].ID = s.Sessions[0].ID }, true},
		{"orphan is allowed", func(s *models.VaultSnapshot) { s.Exercises[0].SessionID = "missing" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := models.NewSnapshot(testNow)
			snap.Sessions = append(snap.Sessions, validSession())
			snap.Exercises = append(snap.Exercises, validExercise())
			tt.modify(snap)

			err := snap.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrValidationFailed)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("nil snapshot", func(t *testing.T) {
		var snap *models.VaultSnapshot
		assert.ErrorIs(t, snap.Validate(), models.ErrValidationFailed)
	})
}

func TestSnapshot_Clone(t *testing.T) {
	snap := models.NewSnapshot(testNow)
	snap.Sessions = append(snap.Sessions, validSession())
	snap.Exercises = append(snap.Exercises, validExercise())
	snap.RecomputeStats()

	c := snap.Clone()
	require.Equal(t, snap, c)

	*c.Sessions[0].RPEScore = 1
	c.Sessions[0].Name = "changed"
	*c.Exercises[0].Sets = 99
	c.Stats.SessionsByType[models.ActivityOther] = 7

	assert.Equal(t, 6, *snap.Sessions[0].RPEScore)
	assert.Equal(t, "Morning run", snap.Sessions[0].Name)
	assert.Equal(t, 4, *snap.Exercises[0].Sets)
	assert.Equal(t, 0, snap.Stats.SessionsByType[models.ActivityOther])

	var nilSnap *models.VaultSnapshot
	assert.Nil(t, nilSnap.Clone())
}

func TestSnapshot_OptionalFieldsSerializeAsNull(t *testing.T) {
	s := validSession()
	s.RPEScore = nil

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))

	for _, key := range []string{"rpe_score", "pain_level", "notes"} {
		v, ok := raw[key]
		assert.True(t, ok, "key %s present", key)
		assert.Nil(t, v, "key %s is null", key)
	}
}

func TestSnapshot_JSONRoundTrip(t *testing.T) {
	snap := models.NewSnapshot(testNow)
	snap.Sessions = append(snap.Sessions, validSession())
	snap.Exercises = append(snap.Exercises, validExercise())
	snap.RecomputeStats()

	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var decoded models.VaultSnapshot
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.True(t, snap.CreatedAt.Equal(decoded.CreatedAt))
	decoded.CreatedAt = snap.CreatedAt
	decoded.UpdatedAt = snap.UpdatedAt
	for i := range decoded.Sessions {
		decoded.Sessions[i].CreatedAt = snap.Sessions[i].CreatedAt
		decoded.Sessions[i].UpdatedAt = snap.Sessions[i].UpdatedAt
	}
	for i := range decoded.Exercises {
		decoded.Exercises[i].CreatedAt = snap.Exercises[i].CreatedAt
		decoded.Exercises[i].UpdatedAt = snap.Exercises[i].UpdatedAt
	}
	assert.Equal(t, snap, &decoded)
}

func TestSnapshot_Lookup(t *testing.T) {
	snap := models.NewSnapshot(time.Now())
	snap.Sessions = append(snap.Sessions, validSession())
	snap.Exercises = append(snap.Exercises, validExercise())

	assert.Equal(t, 0, snap.SessionIndex("s1"))
	assert.Equal(t, -1, snap.SessionIndex("nope"))
	assert.Equal(t, 0, snap.ExerciseIndex("e1"))
	assert.Equal(t, 2, snap.RecordCount())
}
