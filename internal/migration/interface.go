// Package migration moves guest vault contents into an account.
package migration

import (
	"context"

	"github.com/TheMichaelB/guestvault/internal/models"
)

// RemoteStore is the account-side session store. Each call is atomic.
type RemoteStore interface {
	// SelectSessionsWithExercises returns every session owned by ownerID.
	SelectSessionsWithExercises(ctx context.Context, ownerID string) ([]models.RemoteSession, error)

	// InsertSession stores rec and returns it with the server-assigned ID.
	InsertSession(ctx context.Context, ownerID string, rec models.RemoteSession) (models.RemoteSession, error)

	// InsertExercise stores rec under the server session sessionID.
	InsertExercise(ctx context.Context, sessionID string, rec models.RemoteExercise) error
}

// GuestVault is the local data being migrated.
type GuestVault interface {
	// Load returns the stored snapshot, or nil when there is none.
	Load() *models.VaultSnapshot

	// Clear destroys the stored vault and its keys.
	Clear() error
}
