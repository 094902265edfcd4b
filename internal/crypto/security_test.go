package crypto_test

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/guestvault/internal/crypto"
	"github.com/TheMichaelB/guestvault/internal/events"
	"github.com/TheMichaelB/guestvault/internal/storage"
)

func TestSecurityRequirements(t *testing.T) {
	t.Run("key derivation uses sufficient iterations", func(t *testing.T) {
		assert.GreaterOrEqual(t, crypto.DefaultIterations, 100000)
	})

	t.Run("key size is 256 bits", func(t *testing.T) {
		assert.Equal(t, 32, crypto.KeySize)
		assert.Equal(t, 32, crypto.SecretSize)
	})

	t.Run("nonce is 96 bits", func(t *testing.T) {
		assert.Equal(t, 12, crypto.NonceSize)
	})
}

func TestNoSensitiveDataInLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)
	store := storage.NewMemoryStore()
	c := crypto.NewCipher(store, crypto.WithLogger(logger))

	note := "knee pain after squats"
	env, err := c.Encrypt(payload{Name: "Leg day", Notes: &note})
	require.NoError(t, err)

	env.Ciphertext[0] ^= 0xFF
	var out payload
	require.Error(t, c.Decrypt(env, &out))

	secret, err := c.DeviceSecret()
	require.NoError(t, err)

	logs := buf.String()
	assert.NotEmpty(t, logs)
	assert.NotContains(t, logs, note)
	assert.NotContains(t, logs, "Leg day")
	assert.NotContains(t, logs, base64.StdEncoding.EncodeToString(secret))
}

func TestZero(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	crypto.Zero(b)
	assert.Equal(t, []byte{0, 0, 0, 0}, b)

	// nil is a no-op
	crypto.Zero(nil)
}
