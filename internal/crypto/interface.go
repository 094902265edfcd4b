package crypto

// Provider defines the interface for cryptographic operations on the vault.
type Provider interface {
	// DeriveKey derives an encryption key from the device secret and a salt.
	DeriveKey(secret, salt []byte) []byte

	// DeviceSecret returns the persisted device-bound secret, creating it on first use.
	DeviceSecret() ([]byte, error)

	// Encrypt serializes v and seals it into a fresh envelope.
	Encrypt(v interface{}) (*Envelope, error)

	// Decrypt opens env and decodes the plaintext into out.
	Decrypt(env *Envelope, out interface{}) error

	// WipeKeys destroys the stored device secret.
	WipeKeys() error

	// IsSupported reports whether the required primitives are usable.
	IsSupported() bool
}
