package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"

	"github.com/TheMichaelB/guestvault/internal/events"
	"github.com/TheMichaelB/guestvault/internal/storage"
)

const (
	// Key sizes
	KeySize    = 32 // AES-256
	NonceSize  = 12 // GCM standard
	TagSize    = 16 // GCM tag
	SaltSize   = 32
	SecretSize = 32 // 256-bit device secret

	// DefaultIterations is the PBKDF2 work factor and also its floor.
	DefaultIterations = 100000

	// DefaultSecretKey is the slot holding the device secret.
	DefaultSecretKey = "device_secret"
)

// Errors
var (
	ErrEncryptionFailed  = errors.New("encryption failed")
	ErrDecryptionFailed  = errors.New("decryption failed")
	ErrNotSupported      = errors.New("cryptographic primitives not supported")
	ErrInvalidKey        = errors.New("invalid key size")
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")
)

// Cipher encrypts vault snapshots with keys derived from a device secret.
type Cipher struct {
	store      storage.Store
	secretKey  string
	iterations int
	now        func() time.Time
	random     io.Reader
	logger     *events.Logger

	mu     sync.Mutex
	secret []byte
}

// Option configures a Cipher.
type Option func(*Cipher)

// WithIterations sets the PBKDF2 iteration count. Values below
// DefaultIterations are ignored.
func WithIterations(n int) Option {
	return func(c *Cipher) {
		if n >= DefaultIterations {
			c.iterations = n
		}
	}
}

// WithClock overrides the time source used for envelope timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Cipher) { c.now = now }
}

// WithRandom overrides the random source.
func WithRandom(r io.Reader) Option {
	return func(c *Cipher) { c.random = r }
}

// WithLogger sets the logger.
func WithLogger(logger *events.Logger) Option {
	return func(c *Cipher) { c.logger = logger.WithField("component", "cipher") }
}

// WithSecretKey sets the slot name for the device secret.
func WithSecretKey(key string) Option {
	return func(c *Cipher) {
		if key != "" {
			c.secretKey = key
		}
	}
}

// NewCipher creates a cipher whose device secret lives in store.
func NewCipher(store storage.Store, opts ...Option) *Cipher {
	c := &Cipher{
		store:      store,
		secretKey:  DefaultSecretKey,
		iterations: DefaultIterations,
		now:        time.Now,
		random:     rand.Reader,
		logger:     events.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DeriveKey derives a 256-bit key with PBKDF2-HMAC-SHA256.
func (c *Cipher) DeriveKey(secret, salt []byte) []byte {
	return pbkdf2.Key(secret, salt, c.iterations, KeySize, sha256.New)
}

// Encrypt serializes v and encrypts it under a freshly salted key.
func (c *Cipher) Encrypt(v interface{}) (*Envelope, error) {
	secret, err := c.DeviceSecret()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncryptionFailed, err)
	}
	defer Zero(secret)

	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: serialize: %w", ErrEncryptionFailed, err)
	}
	defer Zero(plaintext)

	// Salt and nonce are drawn independently on every call
	salt, err := c.randomBytes(SaltSize)
	if err != nil {
		return nil, fmt.Errorf("%w: generate salt: %w", ErrEncryptionFailed, err)
	}
	nonce, err := c.randomBytes(NonceSize)
	if err != nil {
		return nil, fmt.Errorf("%w: generate nonce: %w", ErrEncryptionFailed, err)
	}

	key := c.DeriveKey(secret, salt)
	defer Zero(key)

	createdAt := c.now().UTC()
	ciphertext, err := seal(key, nonce, plaintext, associatedData(createdAt))
	if err != nil {
		c.logger.WithError(err).Warn("Seal failed")
		return nil, fmt.Errorf("%w: %w", ErrEncryptionFailed, err)
	}

	c.logger.WithField("size", len(ciphertext)).Debug("Encrypted payload")

	return &Envelope{
		Ciphertext: ciphertext,
		Nonce:      nonce,
		Salt:       salt,
		CreatedAt:  createdAt,
	}, nil
}

// Decrypt authenticates env and decodes its plaintext into out.
// Any tampering or a missing device secret yields ErrDecryptionFailed.
// A secret slot that cannot be read yields ErrSecretUnavailable instead.
func (c *Cipher) Decrypt(env *Envelope, out interface{}) error {
	if env == nil || len(env.Nonce) != NonceSize || len(env.Salt) != SaltSize ||
		len(env.Ciphertext) < TagSize {
		return fmt.Errorf("%w: %w", ErrDecryptionFailed, ErrInvalidCiphertext)
	}

	secret, err := c.existingSecret()
	if errors.Is(err, ErrSecretUnavailable) {
		return err
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}
	defer Zero(secret)

	key := c.DeriveKey(secret, env.Salt)
	defer Zero(key)

	plaintext, err := open(key, env.Nonce, env.Ciphertext, associatedData(env.CreatedAt))
	if err != nil {
		c.logger.Debug("Envelope failed authentication")
		return fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}
	defer Zero(plaintext)

	if err := json.Unmarshal(plaintext, out); err != nil {
		return fmt.Errorf("%w: decode payload: %w", ErrDecryptionFailed, err)
	}

	return nil
}

// IsSupported probes AES-GCM construction and the random source.
func (c *Cipher) IsSupported() bool {
	block, err := aes.NewCipher(make([]byte, KeySize))
	if err != nil {
		return false
	}
	if _, err := cipher.NewGCM(block); err != nil {
		return false
	}
	_, err = c.randomBytes(1)
	return err == nil
}

func (c *Cipher) randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(c.random, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ValidateKeySize checks that key is usable for AES-256.
func ValidateKeySize(key []byte) error {
	if len(key) != KeySize {
		return fmt.Errorf("%w: got %d bytes", ErrInvalidKey, len(key))
	}
	return nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if err := ValidateKeySize(key); err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: create GCM: %w", ErrNotSupported, err)
	}

	return aead, nil
}

func seal(key, nonce, plaintext, aad []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, nonce, plaintext, aad), nil
}

func open(key, nonce, ciphertext, aad []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrInvalidCiphertext
	}
	return plaintext, nil
}
