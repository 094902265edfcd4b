package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/guestvault/internal/models"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func intPtr(v int) *int { return &v }

var (
	sessionCols = []string{"id", "owner_id", "name", "session_date", "activity_type", "status",
		"duration_minutes", "rpe_score", "pain_level", "notes", "created_at", "updated_at"}
	exerciseCols = []string{"id", "session_id", "name", "activity_type", "sets", "reps",
		"weight_kg", "duration_seconds", "distance_meters", "rpe", "notes",
		"order_index", "created_at", "updated_at"}
)

func TestSessionRepo_Select_Empty(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSessionRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(selectSessions)).
		WithArgs("owner-1").
		WillReturnRows(pgxmock.NewRows(sessionCols))

	got, err := r.SelectSessionsWithExercises(context.Background(), "owner-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_Select_WithExercises(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSessionRepo(db)

	ts := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(selectSessions)).
		WithArgs("owner-1").
		WillReturnRows(pgxmock.NewRows(sessionCols).
			AddRow("sess-a", "owner-1", "Leg day", day, "strength", "completed",
				60, intPtr(7), (*int)(nil), (*string)(nil), ts, ts).
			AddRow("sess-b", "owner-1", "Run", day, "cardio", "draft",
				30, (*int)(nil), (*int)(nil), (*string)(nil), ts, ts))

	mock.ExpectQuery(regexp.QuoteMeta(selectExercises)).
		WithArgs("owner-1").
		WillReturnRows(pgxmock.NewRows(exerciseCols).
			AddRow("ex-1", "sess-a", "Squat", "strength", intPtr(5), intPtr(5),
				(*float64)(nil), (*int)(nil), (*float64)(nil), (*int)(nil), (*string)(nil),
				0, ts, ts).
			AddRow("ex-2", "sess-a", "Lunge", "strength", intPtr(3), intPtr(10),
				(*float64)(nil), (*int)(nil), (*float64)(nil), (*int)(nil), (*string)(nil),
				1, ts, ts))

	got, err := r.SelectSessionsWithExercises(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, "2026-05-01", got[0].Date)
	require.Equal(t, models.ActivityStrength, got[0].ActivityType)
	require.Equal(t, 7, *got[0].RPEScore)
	require.Len(t, got[0].Exercises, 2)
	require.Equal(t, "Lunge", got[0].Exercises[1].Name)
	require.Empty(t, got[1].Exercises)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_Select_Error(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSessionRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(selectSessions)).
		WithArgs("owner-1").
		WillReturnError(errors.New("connection refused"))

	_, err := r.SelectSessionsWithExercises(context.Background(), "owner-1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "connection refused")
}

func TestSessionRepo_InsertSession_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSessionRepo(db)

	ts := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	rec := models.RemoteSession{
		Name:            "Leg day",
		Date:            "2026-05-01T08:00:00Z",
		ActivityType:    models.ActivityStrength,
		Status:          models.StatusCompleted,
		DurationMinutes: 60,
		RPEScore:        intPtr(7),
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}

	mock.ExpectQuery(regexp.QuoteMeta(insertSession)).
		WithArgs("owner-1", "Leg day", "2026-05-01", "strength", "completed",
			60, intPtr(7), (*int)(nil), (*string)(nil), ts, ts).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("0b9c2f36-8c1e-4f57-9a3e-3d1f0f2b7a11"))

	got, err := r.InsertSession(context.Background(), "owner-1", rec)
	require.NoError(t, err)
	require.Equal(t, "0b9c2f36-8c1e-4f57-9a3e-3d1f0f2b7a11", got.ID)
	require.Equal(t, "owner-1", got.OwnerID)
	require.Equal(t, "2026-05-01", got.Date)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_InsertSession_Error(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSessionRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(insertSession)).
		WillReturnError(errors.New("check constraint violated"))

	_, err := r.InsertSession(context.Background(), "owner-1", models.RemoteSession{Name: "x", Date: "2026-05-01"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "insert session")
}

func TestSessionRepo_InsertExercise(t *testing.T) {
	ts := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	rec := models.RemoteExercise{
		Name:         "Squat",
		ActivityType: models.ActivityStrength,
		Sets:         intPtr(5),
		OrderIndex:   2,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}

	t.Run("ok", func(t *testing.T) {
		db, mock := newDB(t)
		defer mock.Close()
		r := NewSessionRepo(db)

		mock.ExpectExec(regexp.QuoteMeta(insertExercise)).
			WithArgs("sess-a", "Squat", "strength", intPtr(5), (*int)(nil),
				(*float64)(nil), (*int)(nil), (*float64)(nil), (*int)(nil), (*string)(nil),
				2, ts, ts).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, r.InsertExercise(context.Background(), "sess-a", rec))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing parent", func(t *testing.T) {
		db, mock := newDB(t)
		defer mock.Close()
		r := NewSessionRepo(db)

		mock.ExpectExec(regexp.QuoteMeta(insertExercise)).
			WillReturnError(&pgconn.PgError{Code: "23503"})

		err := r.InsertExercise(context.Background(), "sess-missing", rec)
		require.ErrorIs(t, err, models.ErrSessionNotFound)
	})
}
