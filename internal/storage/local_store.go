package storage

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/TheMichaelB/guestvault/internal/events"
)

const slotExt = ".slot"

var validKey = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,127}$`)

// FileStore keeps one file per slot under a private directory.
type FileStore struct {
	baseDir string
	logger  *events.Logger
}

// NewFileStore creates a file-backed slot store.
func NewFileStore(baseDir string, logger *events.Logger) (*FileStore, error) {
	// Resolve absolute path
	absPath, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base directory: %w", err)
	}

	// Create base directory
	if err := os.MkdirAll(absPath, 0700); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}

	return &FileStore{
		baseDir: absPath,
		logger:  logger.WithField("component", "file_slot_store"),
	}, nil
}

// Write saves data to a slot atomically.
func (s *FileStore) Write(key string, data []byte) error {
	path, err := s.slotPath(key)
	if err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"slot": key,
		"size": len(data),
	}).Debug("Writing slot")

	// Write atomically using temp file
	tempPath := fmt.Sprintf("%s.tmp.%d", path, time.Now().UnixNano())

	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("write temp file: %w", err)
	}

	// Sync to disk
	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	file.Close()

	// Rename atomically
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

// Read retrieves slot contents.
func (s *FileStore) Read(key string) ([]byte, error) {
	path, err := s.slotPath(key)
	if err != nil {
		return nil, err
	}

	// Slots are never symlinks
	if stat, err := os.Lstat(path); err == nil && stat.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("symlinks not allowed: %s", key)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read slot: %w", err)
	}

	return data, nil
}

// Delete removes a slot.
func (s *FileStore) Delete(key string) error {
	path, err := s.slotPath(key)
	if err != nil {
		return err
	}

	s.logger.WithField("slot", key).Debug("Deleting slot")

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // Already deleted
		}
		return fmt.Errorf("delete slot: %w", err)
	}

	return nil
}

var _ Wiper = (*FileStore)(nil)

// Wipe overwrites the slot file in place with random bytes, syncs it and
// removes it. Writing through the existing inode reaches the blocks that
// held the data, which a rename-based Write would not.
func (s *FileStore) Wipe(key string) error {
	path, err := s.slotPath(key)
	if err != nil {
		return err
	}

	if stat, err := os.Lstat(path); err == nil && stat.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("symlinks not allowed: %s", key)
	}

	file, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open slot: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("stat slot: %w", err)
	}

	noise := make([]byte, stat.Size())
	if _, err := rand.Read(noise); err != nil {
		file.Close()
		return fmt.Errorf("generate overwrite bytes: %w", err)
	}
	if _, err := file.WriteAt(noise, 0); err != nil {
		file.Close()
		return fmt.Errorf("overwrite slot: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("sync slot: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close slot: %w", err)
	}

	s.logger.WithField("slot", key).Debug("Wiped slot")

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete slot: %w", err)
	}
	return nil
}

// Exists checks if a slot exists.
func (s *FileStore) Exists(key string) (bool, error) {
	path, err := s.slotPath(key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// BaseDir returns the directory holding slot files.
func (s *FileStore) BaseDir() string {
	return s.baseDir
}

// slotPath validates a key and maps it to a file under the base directory.
func (s *FileStore) slotPath(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.baseDir, key+slotExt), nil
}
