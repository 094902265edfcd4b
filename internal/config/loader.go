package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. GUESTVAULT_LOG_LEVEL.
const EnvPrefix = "GUESTVAULT"

// Loader handles configuration loading from multiple sources.
type Loader struct {
	configPath string
	envFile    string
	v          *viper.Viper
}

// NewLoader creates a config loader.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
		envFile:    ".env",
		v:          viper.New(),
	}
}

// WithEnvFile sets the dotenv file read before environment overrides.
// An empty path disables dotenv loading.
func (l *Loader) WithEnvFile(path string) *Loader {
	l.envFile = path
	return l
}

// ConfigPath returns the file the configuration was read from, if any.
func (l *Loader) ConfigPath() string {
	return l.configPath
}

// Load reads configuration from file and environment.
func (l *Loader) Load() (*Config, error) {
	if l.envFile != "" {
		// Existing environment variables win over the dotenv file.
		if err := godotenv.Load(l.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", l.envFile, err)
		}
	}

	setDefaults(l.v, DefaultConfig())

	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	// Load from file if exists
	if l.configPath == "" {
		for _, path := range l.defaultPaths() {
			if _, err := os.Stat(path); err == nil {
				l.configPath = path
				break
			}
		}
	}

	if l.configPath != "" {
		l.v.SetConfigFile(l.configPath)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", l.configPath, err)
		}
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	// Update dependent paths when only the data dir was overridden
	defaults := DefaultConfig()
	if cfg.Storage.DataDir != defaults.Storage.DataDir {
		if cfg.Storage.SlotDir == defaults.Storage.SlotDir {
			cfg.Storage.SlotDir = filepath.Join(cfg.Storage.DataDir, "slots")
		}
		if cfg.Storage.SQLitePath == defaults.Storage.SQLitePath {
			cfg.Storage.SQLitePath = filepath.Join(cfg.Storage.DataDir, "vault.db")
		}
	}

	// Validate final config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// defaultPaths returns default config file locations.
func (l *Loader) defaultPaths() []string {
	paths := []string{
		"guestvault.json",
		"guestvault.yaml",
		".guestvault.json",
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(homeDir, ".config", "guestvault", "config.json"),
			filepath.Join(homeDir, ".config", "guestvault", "config.yaml"),
		)
	}

	return paths
}

// setDefaults registers every key so environment overrides apply to them.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("vault.ttl", cfg.Vault.TTL)
	v.SetDefault("vault.slot_key", cfg.Vault.SlotKey)
	v.SetDefault("vault.secret_key", cfg.Vault.SecretKey)
	v.SetDefault("vault.iterations", cfg.Vault.Iterations)

	v.SetDefault("storage.backend", cfg.Storage.Backend)
	v.SetDefault("storage.data_dir", cfg.Storage.DataDir)
	v.SetDefault("storage.slot_dir", cfg.Storage.SlotDir)
	v.SetDefault("storage.sqlite_path", cfg.Storage.SQLitePath)

	v.SetDefault("migration.strategy", cfg.Migration.Strategy)
	v.SetDefault("migration.imported_suffix", cfg.Migration.ImportedSuffix)
	v.SetDefault("migration.duration_tolerance", cfg.Migration.DurationTolerance)
	v.SetDefault("migration.session_cost", cfg.Migration.SessionCost)
	v.SetDefault("migration.exercise_cost", cfg.Migration.ExerciseCost)

	v.SetDefault("remote.driver", cfg.Remote.Driver)
	v.SetDefault("remote.dsn", cfg.Remote.DSN)
	v.SetDefault("remote.timeout", cfg.Remote.Timeout)
	v.SetDefault("remote.migrate_on_start", cfg.Remote.MigrateOnStart)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("log.color", cfg.Log.Color)
}

// SaveExample writes an example config file.
func SaveExample(path string) error {
	cfg := DefaultConfig()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}
