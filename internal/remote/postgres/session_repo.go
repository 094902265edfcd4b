package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/TheMichaelB/guestvault/internal/events"
	"github.com/TheMichaelB/guestvault/internal/models"
)

// SessionRepo reads and writes training sessions for account owners.
type SessionRepo struct{ db *DB }

// NewSessionRepo constructs a session repository.
func NewSessionRepo(db *DB) *SessionRepo { return &SessionRepo{db: db} }

const selectSessions = `
SELECT id::text, owner_id, name, session_date, activity_type, status,
       duration_minutes, rpe_score, pain_level, notes, created_at, updated_at
FROM training_sessions
WHERE owner_id=$1
ORDER BY session_date ASC, created_at ASC`

const selectExercises = `
SELECT e.id::text, e.session_id::text, e.name, e.activity_type, e.sets, e.reps,
       e.weight_kg, e.duration_seconds, e.distance_meters, e.rpe, e.notes,
       e.order_index, e.created_at, e.updated_at
FROM training_exercises e
JOIN training_sessions s ON s.id = e.session_id
WHERE s.owner_id=$1
ORDER BY e.session_id, e.order_index ASC`

const insertSession = `INSERT INTO training_sessions (owner_id, name, session_date, activity_type, status, duration_minutes, rpe_score, pain_level, notes, created_at, updated_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING id::text`

const insertExercise = `INSERT INTO training_exercises (session_id, name, activity_type, sets, reps, weight_kg, duration_seconds, distance_meters, rpe, notes, order_index, created_at, updated_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`

// SelectSessionsWithExercises returns every session owned by ownerID with
// its exercises attached.
func (r *SessionRepo) SelectSessionsWithExercises(ctx context.Context, ownerID string) ([]models.RemoteSession, error) {
	rows, err := r.db.Pool.Query(ctx, selectSessions, ownerID)
	if err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]models.RemoteSession, 0)
	index := make(map[string]int)
	for rows.Next() {
		var (
			s            models.RemoteSession
			date         time.Time
			activityType string
			status       string
		)
		if err = rows.Scan(&s.ID, &s.OwnerID, &s.Name, &date, &activityType, &status,
			&s.DurationMinutes, &s.RPEScore, &s.PainLevel, &s.Notes, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.Date = date.Format(models.DateLayout)
		s.ActivityType = models.ActivityType(activityType)
		s.Status = models.SessionStatus(status)
		s.Exercises = []models.RemoteExercise{}

		index[s.ID] = len(sessions)
		sessions = append(sessions, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	if len(sessions) == 0 {
		return sessions, nil
	}

	exRows, err := r.db.Pool.Query(ctx, selectExercises, ownerID)
	if err != nil {
		return nil, fmt.Errorf("select exercises: %w", err)
	}
	defer exRows.Close()

	for exRows.Next() {
		var (
			e            models.RemoteExercise
			activityType string
		)
		if err = exRows.Scan(&e.ID, &e.SessionID, &e.Name, &activityType, &e.Sets, &e.Reps,
			&e.WeightKg, &e.DurationSeconds, &e.DistanceMeters, &e.RPE, &e.Notes,
			&e.OrderIndex, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		e.ActivityType = models.ActivityType(activityType)

		if i, ok := index[e.SessionID]; ok {
			sessions[i].Exercises = append(sessions[i].Exercises, e)
		}
	}
	if err = exRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exercises: %w", err)
	}

	events.FromContext(ctx).WithField("sessions", len(sessions)).Debug("Fetched remote sessions")
	return sessions, nil
}

// InsertSession stores rec under ownerID and returns it with the
// server-assigned ID.
func (r *SessionRepo) InsertSession(ctx context.Context, ownerID string, rec models.RemoteSession) (models.RemoteSession, error) {
	date := rec.Date
	if d, err := models.ParseDate(rec.Date); err == nil {
		date = d.Format(models.DateLayout)
	}

	var id string
	err := r.db.Pool.QueryRow(ctx, insertSession,
		ownerID, rec.Name, date, string(rec.ActivityType), string(rec.Status),
		rec.DurationMinutes, rec.RPEScore, rec.PainLevel, rec.Notes,
		rec.CreatedAt, rec.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return models.RemoteSession{}, fmt.Errorf("insert session: %w", err)
	}

	rec.ID = id
	rec.OwnerID = ownerID
	rec.Date = date
	rec.Exercises = []models.RemoteExercise{}
	return rec, nil
}

// InsertExercise stores rec under the server session sessionID.
func (r *SessionRepo) InsertExercise(ctx context.Context, sessionID string, rec models.RemoteExercise) error {
	_, err := r.db.Pool.Exec(ctx, insertExercise,
		sessionID, rec.Name, string(rec.ActivityType), rec.Sets, rec.Reps,
		rec.WeightKg, rec.DurationSeconds, rec.DistanceMeters, rec.RPE, rec.Notes,
		rec.OrderIndex, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("insert exercise: %w", models.ErrSessionNotFound)
		}
		return fmt.Errorf("insert exercise: %w", err)
	}
	return nil
}
