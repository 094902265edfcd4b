package vault_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/guestvault/internal/config"
	"github.com/TheMichaelB/guestvault/internal/crypto"
	"github.com/TheMichaelB/guestvault/internal/models"
	"github.com/TheMichaelB/guestvault/internal/storage"
	"github.com/TheMichaelB/guestvault/internal/vault"
	"github.com/TheMichaelB/guestvault/test/testutil"
)

const (
	slotKey   = "guest_vault"
	secretKey = crypto.DefaultSecretKey
	ttl       = 30 * 24 * time.Hour
)

type fixture struct {
	store *vault.Store
	slots storage.Store
	mem   *storage.MemoryStore
	clock *testutil.Clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := storage.NewMemoryStore()
	f := openFixture(t, mem, testutil.NewClock(testutil.BaseTime))
	f.mem = mem
	return f
}

// openFixture builds a fresh Store over existing slots, as a new process would.
func openFixture(t *testing.T, slots storage.Store, clock *testutil.Clock) *fixture {
	t.Helper()
	logger := testutil.NewTestLogger()
	c := crypto.NewCipher(slots, crypto.WithClock(clock.Now), crypto.WithLogger(logger))
	store := vault.NewStore(c, slots,
		&config.VaultConfig{TTL: ttl, SlotKey: slotKey},
		logger,
		vault.WithClock(clock.Now),
		vault.WithIDGenerator(testutil.IDSequence("rec")),
	)
	return &fixture{store: store, slots: slots, clock: clock}
}

func (f *fixture) exists(t *testing.T, key string) bool {
	t.Helper()
	ok, err := f.slots.Exists(key)
	require.NoError(t, err)
	return ok
}

func TestEnter(t *testing.T) {
	t.Run("creates empty vault", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.store.Enter())

		assert.True(t, f.store.IsActive())
		assert.Empty(t, f.store.GetSessions())
		assert.True(t, f.exists(t, slotKey))
		assert.True(t, f.exists(t, secretKey))

		meta, found, err := f.store.Metadata()
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, models.SchemaVersion, meta.SchemaVersion)
		assert.Equal(t, 0, meta.RecordCount)
		assert.Equal(t, testutil.BaseTime.Add(ttl), meta.ExpiresAt)

		st := f.store.State()
		assert.Equal(t, vault.PhaseActive, st.Phase)
		require.NotNil(t, st.LastSync)
		require.NotNil(t, st.ExpiresAt)
		assert.Nil(t, st.Error)
	})

	t.Run("loads existing vault", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.store.Enter())
		s, err := f.store.CreateSession(testutil.SessionInput("Leg day", "2026-05-10", 60))
		require.NoError(t, err)

		reopened := openFixture(t, f.slots, f.clock)
		require.NoError(t, reopened.store.Enter())

		got, ok := reopened.store.GetSession(s.ID)
		require.True(t, ok)
		assert.Equal(t, "Leg day", got.Name)
		assert.Equal(t, 1, reopened.store.GetStats().TotalSessions)
	})

	t.Run("enter twice is a no-op", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.store.Enter())
		_, err := f.store.CreateSession(testutil.SessionInput("Run", "2026-05-10", 30))
		require.NoError(t, err)

		require.NoError(t, f.store.Enter())
		assert.Len(t, f.store.GetSessions(), 1)
	})

	t.Run("storage failure", func(t *testing.T) {
		f := newFixture(t)
		f.mem.SetWriteError(errors.New("read-only filesystem"))

		assert.Error(t, f.store.Enter())
		assert.False(t, f.store.IsActive())
	})
}

func TestExitKeepsData(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Enter())
	_, err := f.store.CreateSession(testutil.SessionInput("Run", "2026-05-10", 30))
	require.NoError(t, err)

	f.store.Exit()
	assert.False(t, f.store.IsActive())
	assert.True(t, f.exists(t, slotKey))

	_, err = f.store.CreateSession(testutil.SessionInput("Swim", "2026-05-10", 30))
	assert.ErrorIs(t, err, models.ErrNotInGuestMode)

	require.NoError(t, f.store.Enter())
	assert.Len(t, f.store.GetSessions(), 1)
}

func TestNotInGuestMode(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.CreateSession(testutil.SessionInput("Run", "2026-05-10", 30))
	assert.ErrorIs(t, err, models.ErrNotInGuestMode)

	_, err = f.store.UpdateSession("x", models.SessionPatch{})
	assert.ErrorIs(t, err, models.ErrNotInGuestMode)

	assert.ErrorIs(t, f.store.DeleteSession("x"), models.ErrNotInGuestMode)

	_, err = f.store.CreateExercise(testutil.ExerciseInput("x", "Squat", 0))
	assert.ErrorIs(t, err, models.ErrNotInGuestMode)

	_, err = f.store.UpdateExercise("x", models.ExercisePatch{})
	assert.ErrorIs(t, err, models.ErrNotInGuestMode)

	assert.ErrorIs(t, f.store.DeleteExercise("x"), models.ErrNotInGuestMode)
	assert.ErrorIs(t, f.store.Save(), models.ErrNotInGuestMode)

	// reads never fail
	assert.Empty(t, f.store.GetSessions())
	assert.Empty(t, f.store.GetExercises("x"))
	_, ok := f.store.GetSession("x")
	assert.False(t, ok)
	assert.Equal(t, 0, f.store.GetStats().TotalSessions)
	assert.Equal(t, vault.PhaseUninitialized, f.store.State().Phase)
}

func TestSaveUpdatesLastSync(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Enter())

	f.clock.Advance(time.Hour)
	require.NoError(t, f.store.Save())

	st := f.store.State()
	require.NotNil(t, st.LastSync)
	assert.Equal(t, testutil.BaseTime.Add(time.Hour), *st.LastSync)

	meta, _, err := f.store.Metadata()
	require.NoError(t, err)
	assert.Equal(t, testutil.BaseTime.Add(time.Hour), meta.LastAccessed)
	// expiry follows vault creation, not the last save
	assert.Equal(t, testutil.BaseTime.Add(ttl), meta.ExpiresAt)
}

func TestSlotFormat(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Enter())
	_, err := f.store.CreateSession(models.SessionInput{
		Name:         "Physio follow-up",
		Date:         "2026-05-10",
		ActivityType: models.ActivityFlexibility,
		Notes:        testutil.StrPtr("left knee still sore"),
	})
	require.NoError(t, err)

	raw, err := f.slots.Read(slotKey)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Contains(t, doc, "encrypted_envelope")
	assert.Contains(t, doc, "metadata")

	assert.NotContains(t, string(raw), "Physio")
	assert.NotContains(t, string(raw), "knee")

	var meta models.VaultMetadata
	require.NoError(t, json.Unmarshal(doc["metadata"], &meta))
	assert.Equal(t, 1, meta.RecordCount)
}

func TestFileBackedRoundTrip(t *testing.T) {
	slots, err := storage.NewFileStore(t.TempDir(), testutil.NewTestLogger())
	require.NoError(t, err)
	clock := testutil.NewClock(testutil.BaseTime)

	f := openFixture(t, slots, clock)
	require.NoError(t, f.store.Enter())
	s, err := f.store.CreateSession(testutil.SessionInput("Rowing", "2026-05-09", 40))
	require.NoError(t, err)
	_, err = f.store.CreateExercise(testutil.ExerciseInput(s.ID, "Erg", 0))
	require.NoError(t, err)

	reopened := openFixture(t, slots, clock)
	snap := reopened.store.Load()
	require.NotNil(t, snap)
	assert.Len(t, snap.Sessions, 1)
	assert.Len(t, snap.Exercises, 1)
	assert.Equal(t, f.store.GetStats(), snap.Stats)
}
