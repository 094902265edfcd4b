// Package vault keeps guest-mode training data encrypted on the device.
package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/TheMichaelB/guestvault/internal/config"
	"github.com/TheMichaelB/guestvault/internal/crypto"
	"github.com/TheMichaelB/guestvault/internal/events"
	"github.com/TheMichaelB/guestvault/internal/models"
	"github.com/TheMichaelB/guestvault/internal/storage"
)

// Phase is the lifecycle position of the vault.
type Phase string

const (
	PhaseUninitialized Phase = "uninitialized"
	PhaseActive        Phase = "active"
	PhaseWiped         Phase = "wiped"
)

// DefaultSlotKey is the slot holding the envelope and its metadata.
const DefaultSlotKey = "guest_vault"

// ErrUnavailable means the stored vault exists but could not be read. The
// stored data is left untouched.
var ErrUnavailable = errors.New("guest vault unavailable")

// State is a point-in-time view of the store.
type State struct {
	Phase       Phase      `json:"phase"`
	Active      bool       `json:"active"`
	LastSync    *time.Time `json:"last_sync"`
	ExpiresAt   *time.Time `json:"expires_at"`
	Error       *string    `json:"error"`
	RecordCount int        `json:"record_count"`
}

// slotValue is the JSON document written to the vault slot.
type slotValue struct {
	EncryptedEnvelope *crypto.Envelope     `json:"encrypted_envelope"`
	Metadata          models.VaultMetadata `json:"metadata"`
}

// Store is the single guest vault on this device. Every mutation is
// persisted before it returns; a failed write leaves memory unchanged.
type Store struct {
	cipher  crypto.Provider
	slots   storage.Store
	logger  *events.Logger
	ttl     time.Duration
	slotKey string
	now     func() time.Time
	newID   func() string

	mu        sync.Mutex
	phase     Phase
	active    bool
	snapshot  *models.VaultSnapshot
	lastSync  time.Time
	expiresAt time.Time
	lastErr   string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides record ID generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// NewStore creates a vault over the given cipher and slot store.
func NewStore(cipher crypto.Provider, slots storage.Store, cfg *config.VaultConfig, logger *events.Logger, opts ...Option) *Store {
	s := &Store{
		cipher:  cipher,
		slots:   slots,
		logger:  logger.WithField("component", "vault"),
		ttl:     config.DefaultTTL,
		slotKey: DefaultSlotKey,
		now:     time.Now,
		newID:   uuid.NewString,
		phase:   PhaseUninitialized,
	}
	if cfg != nil {
		if cfg.TTL > 0 {
			s.ttl = cfg.TTL
		}
		if cfg.SlotKey != "" {
			s.slotKey = cfg.SlotKey
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enter activates guest mode, loading the stored vault or creating an
// empty one when nothing usable is stored.
func (s *Store) Enter() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return nil
	}

	if !s.cipher.IsSupported() {
		s.lastErr = crypto.ErrNotSupported.Error()
		return crypto.ErrNotSupported
	}

	snap, err := s.loadLocked()
	if err != nil {
		return err
	}
	if snap == nil {
		now := s.now()
		snap = models.NewSnapshot(now)
		if err := s.persistLocked(snap, now); err != nil {
			return err
		}
		s.logger.Info("Created guest vault")
	}

	s.snapshot = snap
	s.active = true
	s.phase = PhaseActive
	s.lastErr = ""
	return nil
}

// Exit leaves guest mode. Stored data is kept.
func (s *Store) Exit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
}

// IsActive reports whether guest mode is on.
func (s *Store) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Load reads and decrypts the stored vault. An expired, corrupted or
// invalid vault is destroyed and nil is returned; errors never surface.
// A vault that cannot be read right now is kept and nil is returned.
func (s *Store) Load() *models.VaultSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, _ := s.loadLocked()
	if snap == nil {
		return nil
	}
	s.snapshot = snap
	return snap.Clone()
}

// Save re-encrypts and persists the in-memory snapshot.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot == nil {
		return models.ErrNotInGuestMode
	}
	return s.persistLocked(s.snapshot, s.now())
}

// CheckTTL reports whether the vault has reached its expiry time.
// It performs no I/O.
func (s *Store) CheckTTL() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expiresAt.IsZero() {
		return false
	}
	return !s.now().Before(s.expiresAt)
}

// Clear securely deletes the stored vault, wipes the device secret and
// resets memory. Memory is reset even when a delete step fails.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.destroyLocked()
	s.snapshot = nil
	s.active = false
	s.lastSync = time.Time{}
	s.expiresAt = time.Time{}
	s.phase = PhaseWiped

	if err != nil {
		s.lastErr = err.Error()
		s.logger.WithError(err).Error("Vault wipe incomplete")
		return err
	}

	s.lastErr = ""
	s.logger.Info("Guest vault wiped")
	return nil
}

// Metadata reads the unencrypted metadata without decrypting the vault.
func (s *Store) Metadata() (models.VaultMetadata, bool, error) {
	raw, err := s.slots.Read(s.slotKey)
	if errors.Is(err, storage.ErrNotFound) {
		return models.VaultMetadata{}, false, nil
	}
	if err != nil {
		return models.VaultMetadata{}, false, fmt.Errorf("read vault: %w", err)
	}

	var v slotValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return models.VaultMetadata{}, false, fmt.Errorf("decode vault metadata: %w", err)
	}
	return v.Metadata, true, nil
}

// Snapshot returns a deep copy of the in-memory snapshot, or nil.
func (s *Store) Snapshot() *models.VaultSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Clone()
}

// LastError returns the most recent persistence or load problem.
func (s *Store) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// State returns the current store state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{Phase: s.phase, Active: s.active}
	if !s.lastSync.IsZero() {
		t := s.lastSync
		st.LastSync = &t
	}
	if !s.expiresAt.IsZero() {
		t := s.expiresAt
		st.ExpiresAt = &t
	}
	if s.lastErr != "" {
		e := s.lastErr
		st.Error = &e
	}
	if s.snapshot != nil {
		st.RecordCount = s.snapshot.RecordCount()
	}
	return st
}

// loadLocked returns the stored snapshot or nil. Unusable artifacts are
// destroyed. When the vault or its secret cannot be read the artifact is
// kept and ErrUnavailable is returned alongside the nil snapshot.
func (s *Store) loadLocked() (*models.VaultSnapshot, error) {
	now := s.now()

	raw, err := s.slots.Read(s.slotKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.unavailableLocked(err)
	}

	var v slotValue
	if err := json.Unmarshal(raw, &v); err != nil || v.EncryptedEnvelope == nil {
		s.discardLocked("malformed envelope")
		return nil, nil
	}

	if !v.Metadata.ExpiresAt.IsZero() && !now.Before(v.Metadata.ExpiresAt) {
		s.discardLocked("expired")
		return nil, nil
	}
	if crypto.IsExpired(v.EncryptedEnvelope, s.ttl, now) {
		s.discardLocked("expired")
		return nil, nil
	}

	snap := &models.VaultSnapshot{}
	if err := s.cipher.Decrypt(v.EncryptedEnvelope, snap); err != nil {
		if errors.Is(err, crypto.ErrSecretUnavailable) {
			return nil, s.unavailableLocked(err)
		}
		s.discardLocked("decryption failed")
		return nil, nil
	}

	if err := snap.Validate(); err != nil {
		s.discardLocked("invalid snapshot")
		return nil, nil
	}

	// Metadata is not authenticated; the snapshot creation time is.
	expiresAt := snap.CreatedAt.Add(s.ttl)
	if !now.Before(expiresAt) {
		s.discardLocked("expired")
		return nil, nil
	}

	snap.RecomputeStats()
	s.expiresAt = expiresAt

	v.Metadata = s.metadataFor(snap, now)
	if data, err := json.Marshal(v); err == nil {
		if err := s.slots.Write(s.slotKey, data); err != nil {
			s.logger.WithError(err).Warn("Failed to refresh vault metadata")
		}
	}

	s.logger.WithField("records", snap.RecordCount()).Debug("Loaded guest vault")
	return snap, nil
}

func (s *Store) unavailableLocked(err error) error {
	s.lastErr = fmt.Sprintf("read vault: %v", err)
	s.logger.WithError(err).Warn("Vault unreadable, keeping stored data")
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// discardLocked destroys the stored vault after a failed load.
func (s *Store) discardLocked(reason string) {
	s.logger.WithField("reason", reason).Warn("Discarding stored vault")

	if err := s.destroyLocked(); err != nil {
		s.logger.WithError(err).Error("Failed to discard stored vault")
	}

	s.snapshot = nil
	s.active = false
	s.expiresAt = time.Time{}
	s.lastErr = "stored vault discarded: " + reason
}

func (s *Store) destroyLocked() error {
	return multierr.Combine(
		storage.SecureDelete(s.slots, s.slotKey),
		s.cipher.WipeKeys(),
	)
}

// persistLocked encrypts snap and writes it with fresh metadata.
func (s *Store) persistLocked(snap *models.VaultSnapshot, now time.Time) error {
	env, err := s.cipher.Encrypt(snap)
	if err != nil {
		s.lastErr = err.Error()
		return fmt.Errorf("persist vault: %w", err)
	}

	data, err := json.Marshal(slotValue{
		EncryptedEnvelope: env,
		Metadata:          s.metadataFor(snap, now),
	})
	if err != nil {
		s.lastErr = err.Error()
		return fmt.Errorf("persist vault: %w", err)
	}

	if err := s.slots.Write(s.slotKey, data); err != nil {
		s.lastErr = err.Error()
		s.logger.WithError(err).Error("Failed to write vault")
		return fmt.Errorf("persist vault: %w", err)
	}

	s.lastSync = now
	s.expiresAt = snap.CreatedAt.Add(s.ttl)
	s.lastErr = ""

	s.logger.WithField("records", snap.RecordCount()).Debug("Vault persisted")
	return nil
}

func (s *Store) metadataFor(snap *models.VaultSnapshot, now time.Time) models.VaultMetadata {
	return models.VaultMetadata{
		SchemaVersion: snap.SchemaVersion,
		LastAccessed:  now,
		ExpiresAt:     snap.CreatedAt.Add(s.ttl),
		RecordCount:   snap.RecordCount(),
	}
}
