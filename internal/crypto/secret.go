package crypto

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/TheMichaelB/guestvault/internal/storage"
)

var _ Provider = (*Cipher)(nil)

// ErrNoSecret is returned when decryption is attempted before any secret exists.
var ErrNoSecret = errors.New("device secret not found")

// ErrSecretUnavailable is returned when the secret slot cannot be read.
// The stored secret may still be intact, so callers must not treat it as
// lost.
var ErrSecretUnavailable = errors.New("device secret unavailable")

var errMalformedSecret = errors.New("malformed device secret")

// DeviceSecret returns a copy of the device secret. The secret is generated
// on first use, stored base64 encoded and cached for the life of the Cipher.
// A malformed stored value is replaced with a new secret; a storage read
// failure is returned as ErrSecretUnavailable and nothing is written.
func (c *Cipher) DeviceSecret() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.secret != nil {
		return clone(c.secret), nil
	}

	secret, err := c.readSecret()
	switch {
	case err == nil:
		c.secret = secret
		return clone(secret), nil
	case errors.Is(err, storage.ErrNotFound):
		c.logger.Debug("Generating device secret")
	case errors.Is(err, errMalformedSecret):
		c.logger.Warn("Stored device secret malformed, regenerating")
	default:
		return nil, fmt.Errorf("%w: %w", ErrSecretUnavailable, err)
	}

	secret, err = c.randomBytes(SecretSize)
	if err != nil {
		return nil, fmt.Errorf("generate device secret: %w", err)
	}

	encoded := []byte(base64.StdEncoding.EncodeToString(secret))
	defer Zero(encoded)
	if err := c.store.Write(c.secretKey, encoded); err != nil {
		Zero(secret)
		return nil, fmt.Errorf("store device secret: %w", err)
	}

	c.secret = secret
	return clone(secret), nil
}

// existingSecret is DeviceSecret without generation.
func (c *Cipher) existingSecret() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.secret != nil {
		return clone(c.secret), nil
	}

	secret, err := c.readSecret()
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return nil, ErrNoSecret
		case errors.Is(err, errMalformedSecret):
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrSecretUnavailable, err)
	}

	c.secret = secret
	return clone(secret), nil
}

func (c *Cipher) readSecret() ([]byte, error) {
	raw, err := c.store.Read(c.secretKey)
	if err != nil {
		return nil, err
	}
	defer Zero(raw)

	secret := make([]byte, base64.StdEncoding.DecodedLen(len(raw)))
	n, err := base64.StdEncoding.Decode(secret, raw)
	if err != nil || n != SecretSize {
		Zero(secret)
		return nil, errMalformedSecret
	}
	return secret[:n], nil
}

// WipeKeys overwrites the stored secret with random bytes, deletes it and
// clears the cached copy. A missing secret is not an error.
func (c *Cipher) WipeKeys() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	Zero(c.secret)
	c.secret = nil

	if err := storage.SecureDelete(c.store, c.secretKey); err != nil {
		return fmt.Errorf("wipe device secret: %w", err)
	}

	c.logger.Info("Device secret wiped")
	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
