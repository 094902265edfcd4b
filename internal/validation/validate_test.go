package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/guestvault/internal/models"
	"github.com/TheMichaelB/guestvault/test/testutil"
)

func codes(vs []Violation) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Code)
	}
	return out
}

func TestValidate(t *testing.T) {
	now := testutil.BaseTime
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name         string
		snap         *models.VaultSnapshot
		expiresAt    time.Time
		wantValid    bool
		wantErrors   []string
		wantWarnings []string
	}{
		{
			name: "clean vault",
			snap: testutil.Snapshot(
				[]models.VaultSession{testutil.Session("s1", "Run", "2026-05-09", 30)},
				[]models.VaultExercise{testutil.Exercise("e1", "s1", "Strides", 0)},
			),
			expiresAt:    future,
			wantValid:    true,
			wantErrors:   []string{},
			wantWarnings: []string{},
		},
		{
			name:         "empty vault warns",
			snap:         testutil.Snapshot(nil, nil),
			expiresAt:    future,
			wantValid:    true,
			wantErrors:   []string{},
			wantWarnings: []string{CodeNoSessions},
		},
		{
			name:         "nil snapshot is empty",
			snap:         nil,
			wantValid:    true,
			wantErrors:   []string{},
			wantWarnings: []string{CodeNoSessions},
		},
		{
			name: "expired exactly at boundary",
			snap: testutil.Snapshot(
				[]models.VaultSession{testutil.Session("s1", "Run", "2026-05-09", 30)},
				nil,
			),
			expiresAt:    now,
			wantValid:    false,
			wantErrors:   []string{CodeExpired},
			wantWarnings: []string{},
		},
		{
			name: "unparsable date",
			snap: testutil.Snapshot(
				[]models.VaultSession{
					testutil.Session("s1", "Run", "09/05/2026", 30),
					testutil.Session("s2", "Ride", "2026-05-09T07:00:00Z", 30),
				},
				nil,
			),
			expiresAt:    future,
			wantValid:    false,
			wantErrors:   []string{CodeInvalidDate},
			wantWarnings: []string{},
		},
		{
			name: "orphans are warnings, one per exercise",
			snap: testutil.Snapshot(
				[]models.VaultSession{testutil.Session("s1", "Run", "2026-05-09", 30)},
				[]models.VaultExercise{
					testutil.Exercise("e1", "gone", "Squat", 0),
					testutil.Exercise("e2", "gone", "Lunge", 1),
					testutil.Exercise("e3", "s1", "Strides", 0),
				},
			),
			expiresAt:    future,
			wantValid:    true,
			wantErrors:   []string{},
			wantWarnings: []string{CodeOrphanedExercise, CodeOrphanedExercise},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Validate(tt.snap, tt.expiresAt, now)

			assert.Equal(t, tt.wantValid, r.Valid)
			assert.Equal(t, tt.wantErrors, codes(r.Errors))
			assert.Equal(t, tt.wantWarnings, codes(r.Warnings))
			if tt.wantValid {
				assert.NoError(t, r.Err())
			} else {
				assert.ErrorIs(t, r.Err(), models.ErrValidationFailed)
			}
		})
	}
}

func TestValidateRecordIDs(t *testing.T) {
	snap := testutil.Snapshot(
		[]models.VaultSession{testutil.Session("s1", "Run", "not-a-date", 30)},
		[]models.VaultExercise{testutil.Exercise("e9", "missing", "Squat", 0)},
	)

	r := Validate(snap, time.Time{}, testutil.BaseTime)

	require.Len(t, r.Errors, 1)
	assert.Equal(t, "s1", r.Errors[0].RecordID)
	require.Len(t, r.Warnings, 1)
	assert.Equal(t, "e9", r.Warnings[0].RecordID)
	assert.Contains(t, r.Err().Error(), "not-a-date")
}

func TestValidateOneSecondBeforeExpiry(t *testing.T) {
	snap := testutil.Snapshot(
		[]models.VaultSession{testutil.Session("s1", "Run", "2026-05-09", 30)},
		nil,
	)
	r := Validate(snap, testutil.BaseTime.Add(time.Second), testutil.BaseTime)
	assert.True(t, r.Valid)
}
