package crypto

import "time"

// Envelope is the output of a single encryption.
// Ciphertext carries the GCM tag appended.
type Envelope struct {
	Ciphertext []byte    `json:"ciphertext"`
	Nonce      []byte    `json:"nonce"`
	Salt       []byte    `json:"salt"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsExpired reports whether env is at least ttl old at now.
func IsExpired(env *Envelope, ttl time.Duration, now time.Time) bool {
	if env == nil {
		return true
	}
	return now.Sub(env.CreatedAt) >= ttl
}

// TTLDays converts a day count to a duration.
func TTLDays(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}

// associatedData binds the creation time to the ciphertext so it cannot be
// moved forward to extend the TTL.
func associatedData(createdAt time.Time) []byte {
	return []byte(createdAt.UTC().Format(time.RFC3339Nano))
}
