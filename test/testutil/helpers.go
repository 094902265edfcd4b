package testutil

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/TheMichaelB/guestvault/internal/config"
	"github.com/TheMichaelB/guestvault/internal/events"
)

// NewTestLogger creates a logger for testing.
func NewTestLogger() *events.Logger {
	var buf bytes.Buffer
	return events.NewTestLogger(events.DebugLevel, "json", &buf)
}

// NewCapturingLogger returns a logger whose output is kept in the buffer.
func NewCapturingLogger() (*events.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return events.NewTestLogger(events.DebugLevel, "json", buf), buf
}

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at t.
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// TestConfig returns a valid config rooted in a temporary directory with
// the in-memory backends selected.
func TestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.DefaultConfig()
	dir := t.TempDir()
	cfg.Storage.Backend = "memory"
	cfg.Storage.DataDir = dir
	cfg.Storage.SlotDir = filepath.Join(dir, "slots")
	cfg.Storage.SQLitePath = filepath.Join(dir, "vault.db")
	cfg.Remote.Driver = "memory"
	cfg.Remote.DSN = ""
	cfg.Log.Color = false
	return cfg
}

// IDSequence returns a generator yielding prefix-1, prefix-2, ...
func IDSequence(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}
