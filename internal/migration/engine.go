package migration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/TheMichaelB/guestvault/internal/config"
	"github.com/TheMichaelB/guestvault/internal/events"
	"github.com/TheMichaelB/guestvault/internal/models"
	"github.com/TheMichaelB/guestvault/internal/validation"
)

// Phase is a step of a migration attempt.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseLoading          Phase = "loading_guest_data"
	PhaseFetching         Phase = "fetching_remote"
	PhaseDetecting        Phase = "detecting_conflicts"
	PhaseWritingSessions  Phase = "writing_sessions"
	PhaseWritingExercises Phase = "writing_exercises"
	PhaseWiping           Phase = "wiping_guest_data"
	PhaseDone             Phase = "done"
	PhaseFailed           Phase = "failed"
)

// Cost model defaults for EstimateTime.
const (
	DefaultSessionCost  = 200 * time.Millisecond
	DefaultExerciseCost = 100 * time.Millisecond
)

// Progress tracks a running migration.
type Progress struct {
	Phase              Phase
	TotalSessions      int
	ProcessedSessions  int
	TotalExercises     int
	ProcessedExercises int
	Errors             int
	StartTime          time.Time
}

// Engine runs guest-to-account migrations. One migration may run at a
// time; previews may run concurrently.
type Engine struct {
	remote RemoteStore
	vault  GuestVault
	logger *events.Logger
	now    func() time.Time

	suffix       string
	tolerance    time.Duration
	sessionCost  time.Duration
	exerciseCost time.Duration

	progress atomic.Value // *Progress

	mu      sync.Mutex
	running bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for progress timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a migration engine.
func NewEngine(remote RemoteStore, vault GuestVault, cfg *config.MigrationConfig, logger *events.Logger, opts ...Option) *Engine {
	e := &Engine{
		remote:       remote,
		vault:        vault,
		logger:       logger.WithField("component", "migration"),
		now:          time.Now,
		suffix:       DefaultSuffix,
		tolerance:    DefaultTolerance,
		sessionCost:  DefaultSessionCost,
		exerciseCost: DefaultExerciseCost,
	}
	if cfg != nil {
		if cfg.ImportedSuffix != "" {
			e.suffix = cfg.ImportedSuffix
		}
		if cfg.DurationTolerance >= 0 {
			e.tolerance = cfg.DurationTolerance
		}
		if cfg.SessionCost > 0 {
			e.sessionCost = cfg.SessionCost
		}
		if cfg.ExerciseCost > 0 {
			e.exerciseCost = cfg.ExerciseCost
		}
	}
	for _, opt := range opts {
		opt(e)
	}
	e.progress.Store(&Progress{Phase: PhaseIdle})
	return e
}

// GetProgress returns a copy of the current progress.
func (e *Engine) GetProgress() Progress {
	return *e.progress.Load().(*Progress)
}

func (e *Engine) updateProgress(fn func(p *Progress)) {
	next := e.GetProgress()
	fn(&next)
	e.progress.Store(&next)
}

// EstimateTime returns the expected migration time in milliseconds.
func (e *Engine) EstimateTime(sessions, exercises int) int64 {
	d := time.Duration(sessions)*e.sessionCost + time.Duration(exercises)*e.exerciseCost
	return d.Milliseconds()
}

// Migrate writes the guest vault to ownerID's account. Only an invalid
// strategy, guest data failing validation or a failed remote fetch is
// returned as an error; per-record failures are collected in the result. The guest vault is destroyed when
// at least one record was written.
func (e *Engine) Migrate(ctx context.Context, ownerID string, strategy models.Strategy) (*models.MigrationResult, error) {
	result := &models.MigrationResult{
		Errors:       []string{},
		StrategyUsed: strategy,
	}
	if !strategy.Valid() {
		return result, fmt.Errorf("%w: %q", models.ErrInvalidStrategy, strategy)
	}

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return result, models.ErrMigrationInProgress
	}
	e.running = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	ctx = events.WithOwnerID(ctx, ownerID)
	logger := e.loggerFor(ctx, ownerID, strategy)
	e.progress.Store(&Progress{Phase: PhaseLoading, StartTime: e.now()})
	logger.Info("Starting migration")

	snap := e.vault.Load()
	if snap == nil || len(snap.Sessions) == 0 {
		result.Success = true
		e.updateProgress(func(p *Progress) { p.Phase = PhaseDone })
		logger.Info("Guest vault empty, nothing to migrate")
		return result, nil
	}

	if report := e.validate(snap, logger); !report.Valid {
		for _, v := range report.Errors {
			merr := &models.MigrationError{
				Code:  models.ErrCodeValidation,
				Phase: string(PhaseLoading),
				Err:   fmt.Errorf("%w: %s", models.ErrValidationFailed, v.Message),
			}
			result.Errors = append(result.Errors, merr.Error())
		}
		e.updateProgress(func(p *Progress) {
			p.Phase = PhaseFailed
			p.Errors = len(result.Errors)
		})
		logger.Error("Guest data failed validation, nothing migrated")
		return result, report.Err()
	}

	e.updateProgress(func(p *Progress) { p.Phase = PhaseFetching })
	remote, err := e.remote.SelectSessionsWithExercises(ctx, ownerID)
	if err != nil {
		merr := &models.MigrationError{
			Code:  models.ErrCodeRemoteFetch,
			Phase: string(PhaseFetching),
			Err:   models.ErrRemoteFetchFailed,
		}
		result.Errors = append(result.Errors, merr.Error())
		e.updateProgress(func(p *Progress) {
			p.Phase = PhaseFailed
			p.Errors++
		})
		logger.WithError(err).Error("Remote fetch failed, guest data kept")
		return result, fmt.Errorf("%w: %w", models.ErrRemoteFetchFailed, err)
	}

	e.updateProgress(func(p *Progress) { p.Phase = PhaseDetecting })
	conflicts := DetectConflicts(snap.Sessions, remote, e.tolerance)
	plan := Resolve(snap.Sessions, conflicts, strategy, e.suffix)
	result.ConflictsResolved = plan.ConflictsResolved

	logger.WithFields(map[string]interface{}{
		"conflicts": len(conflicts),
		"planned":   len(plan.Sessions),
		"dropped":   len(plan.Dropped),
	}).Debug("Conflicts resolved")

	ids := e.writeSessions(ctx, ownerID, plan.Sessions, result, logger)
	e.writeExercises(ctx, snap.Exercises, ids, result, logger)

	if result.SessionsMigrated > 0 || result.ExercisesMigrated > 0 {
		e.updateProgress(func(p *Progress) { p.Phase = PhaseWiping })
		if err := e.vault.Clear(); err != nil {
			merr := &models.MigrationError{
				Code:  models.ErrCodeGuestMode,
				Phase: string(PhaseWiping),
				Err:   err,
			}
			result.Errors = append(result.Errors, merr.Error())
			logger.WithError(err).Error("Failed to wipe guest data after migration")
		}
	}

	result.Success = len(result.Errors) == 0
	e.updateProgress(func(p *Progress) {
		p.Phase = PhaseDone
		p.Errors = len(result.Errors)
	})

	logger.WithFields(map[string]interface{}{
		"sessions":  result.SessionsMigrated,
		"exercises": result.ExercisesMigrated,
		"conflicts": result.ConflictsResolved,
		"errors":    len(result.Errors),
		"duration":  e.now().Sub(e.GetProgress().StartTime),
	}).Info("Migration finished")

	return result, nil
}

// writeSessions inserts the planned sessions and returns the local to
// remote ID mapping of those that were written.
func (e *Engine) writeSessions(ctx context.Context, ownerID string, sessions []models.VaultSession, result *models.MigrationResult, logger *events.Logger) map[string]string {
	e.updateProgress(func(p *Progress) {
		p.Phase = PhaseWritingSessions
		p.TotalSessions = len(sessions)
	})

	ids := make(map[string]string, len(sessions))
	for _, s := range sessions {
		created, err := e.remote.InsertSession(ctx, ownerID, models.NewRemoteSession(s, ownerID))
		if err != nil {
			e.recordWriteError(result, models.KindSession, s.Name, err)
			logger.WithError(err).WithField("session_id", s.ID).Warn("Session insert failed")
		} else {
			ids[s.ID] = created.ID
			result.SessionsMigrated++
		}
		e.updateProgress(func(p *Progress) { p.ProcessedSessions++ })
	}
	return ids
}

// writeExercises inserts every exercise whose session was written. Others,
// including orphans, are skipped without an error.
func (e *Engine) writeExercises(ctx context.Context, exercises []models.VaultExercise, ids map[string]string, result *models.MigrationResult, logger *events.Logger) {
	pending := make([]models.VaultExercise, 0, len(exercises))
	for _, ex := range exercises {
		if _, ok := ids[ex.SessionID]; ok {
			pending = append(pending, ex)
		}
	}

	e.updateProgress(func(p *Progress) {
		p.Phase = PhaseWritingExercises
		p.TotalExercises = len(pending)
	})

	for _, ex := range pending {
		err := e.remote.InsertExercise(ctx, ids[ex.SessionID], models.NewRemoteExercise(ex, ids[ex.SessionID]))
		if err != nil {
			e.recordWriteError(result, models.KindExercise, ex.Name, err)
			logger.WithError(err).WithField("exercise_id", ex.ID).Warn("Exercise insert failed")
		} else {
			result.ExercisesMigrated++
		}
		e.updateProgress(func(p *Progress) { p.ProcessedExercises++ })
	}
}

func (e *Engine) recordWriteError(result *models.MigrationResult, kind models.ConflictKind, name string, err error) {
	merr := &models.MigrationError{
		Code:   models.ErrCodeRemoteWrite,
		Kind:   kind,
		Record: name,
		Err:    fmt.Errorf("%w: %w", models.ErrRemoteWriteFailed, err),
	}
	result.Errors = append(result.Errors, merr.Error())
	e.updateProgress(func(p *Progress) { p.Errors++ })
}

// validate checks the loaded snapshot before anything is fetched or
// written. Load has already destroyed an expired vault, so the expiry
// check is skipped here.
func (e *Engine) validate(snap *models.VaultSnapshot, logger *events.Logger) validation.Report {
	report := validation.Validate(snap, time.Time{}, e.now())
	for _, w := range report.Warnings {
		logger.WithFields(map[string]interface{}{
			"code":      w.Code,
			"record_id": w.RecordID,
		}).Warn("Guest data warning")
	}
	return report
}

func (e *Engine) loggerFor(ctx context.Context, ownerID string, strategy models.Strategy) *events.Logger {
	fields := map[string]interface{}{
		"owner_id": ownerID,
		"strategy": string(strategy),
	}
	if id := events.GetRequestID(ctx); id != "" {
		fields["request_id"] = id
	}
	return e.logger.WithFields(fields)
}

// Preview runs the read-only part of a migration: load, fetch, detect and
// resolve. It never writes and does not touch progress. Guest data that
// would block a migration fails the preview the same way.
func (e *Engine) Preview(ctx context.Context, ownerID string, strategy models.Strategy) (*models.MigrationPreview, error) {
	preview := &models.MigrationPreview{
		SessionsToMigrate:  []models.VaultSession{},
		ExercisesToMigrate: []models.VaultExercise{},
		Conflicts:          []models.MigrationConflict{},
		StrategyUsed:       strategy,
	}
	if !strategy.Valid() {
		return preview, fmt.Errorf("%w: %q", models.ErrInvalidStrategy, strategy)
	}

	snap := e.vault.Load()
	if snap == nil || len(snap.Sessions) == 0 {
		return preview, nil
	}

	if report := e.validate(snap, e.loggerFor(ctx, ownerID, strategy)); !report.Valid {
		return preview, report.Err()
	}

	ctx = events.WithOwnerID(ctx, ownerID)
	remote, err := e.remote.SelectSessionsWithExercises(ctx, ownerID)
	if err != nil {
		return preview, fmt.Errorf("%w: %w", models.ErrRemoteFetchFailed, err)
	}

	preview.Conflicts = DetectConflicts(snap.Sessions, remote, e.tolerance)
	plan := Resolve(snap.Sessions, preview.Conflicts, strategy, e.suffix)
	preview.SessionsToMigrate = plan.Sessions

	for _, ex := range snap.Exercises {
		if plan.Includes(ex.SessionID) {
			preview.ExercisesToMigrate = append(preview.ExercisesToMigrate, ex.Clone())
		}
	}

	preview.EstimatedTimeMs = e.EstimateTime(len(preview.SessionsToMigrate), len(preview.ExercisesToMigrate))
	return preview, nil
}

// IsFetchFailure reports whether err aborted a migration before any write.
func IsFetchFailure(err error) bool {
	return errors.Is(err, models.ErrRemoteFetchFailed)
}
