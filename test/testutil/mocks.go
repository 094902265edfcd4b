package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/TheMichaelB/guestvault/internal/models"
)

// MockRemoteStore is a testify mock of the account-side session store.
type MockRemoteStore struct {
	mock.Mock
}

func (m *MockRemoteStore) SelectSessionsWithExercises(ctx context.Context, ownerID string) ([]models.RemoteSession, error) {
	args := m.Called(ctx, ownerID)
	if v := args.Get(0); v != nil {
		return v.([]models.RemoteSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRemoteStore) InsertSession(ctx context.Context, ownerID string, rec models.RemoteSession) (models.RemoteSession, error) {
	args := m.Called(ctx, ownerID, rec)
	return args.Get(0).(models.RemoteSession), args.Error(1)
}

func (m *MockRemoteStore) InsertExercise(ctx context.Context, sessionID string, rec models.RemoteExercise) error {
	args := m.Called(ctx, sessionID, rec)
	return args.Error(0)
}

// FakeGuestVault serves a fixed snapshot and records Clear calls.
type FakeGuestVault struct {
	Snap     *models.VaultSnapshot
	ClearErr error
	Cleared  int
}

// Load returns a copy of the snapshot, or nil once cleared.
func (f *FakeGuestVault) Load() *models.VaultSnapshot {
	return f.Snap.Clone()
}

// Clear drops the snapshot.
func (f *FakeGuestVault) Clear() error {
	f.Cleared++
	if f.ClearErr != nil {
		return f.ClearErr
	}
	f.Snap = nil
	return nil
}

// AssertMockExpectations asserts expectations on every mock.
func AssertMockExpectations(t mock.TestingT, mocks ...interface{ AssertExpectations(mock.TestingT) bool }) {
	for _, m := range mocks {
		m.AssertExpectations(t)
	}
}
