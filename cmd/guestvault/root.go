package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/TheMichaelB/guestvault/internal/config"
	"github.com/TheMichaelB/guestvault/internal/crypto"
	"github.com/TheMichaelB/guestvault/internal/events"
	"github.com/TheMichaelB/guestvault/internal/storage"
	"github.com/TheMichaelB/guestvault/internal/vault"
)

var (
	cfgFile    string
	logLevel   string
	jsonOutput bool

	cfg        *config.Config
	logger     *events.Logger
	slots      storage.Store
	closeSlots func() error
	guest      *vault.Store
)

var rootCmd = &cobra.Command{
	Use:   "guestvault",
	Short: "Encrypted guest-mode training log with account migration",
	Long: `guestvault keeps workout sessions on this device, encrypted at rest,
until an account exists. Guest data expires after the configured TTL and
is destroyed once it has been migrated to an account.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return teardown()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"Config file (default: ./guestvault.json or ~/.config/guestvault/config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Print machine-readable JSON")
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.NewLoader(cfgFile).Load()
	if err != nil {
		return reportError("Configuration error: %v", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if jsonOutput {
		cfg.Log.Color = false
	}

	logger, err = events.NewLogger(&cfg.Log)
	if err != nil {
		return reportError("Logger error: %v", err)
	}
	events.SetDefault(logger)

	if err := cfg.EnsureDirectories(); err != nil {
		return reportError("Create data directories: %v", err)
	}

	slots, closeSlots, err = storage.Open(&cfg.Storage, logger)
	if err != nil {
		return reportError("Open local storage: %v", err)
	}

	cipher := crypto.NewCipher(slots,
		crypto.WithIterations(cfg.Vault.Iterations),
		crypto.WithSecretKey(cfg.Vault.SecretKey),
		crypto.WithLogger(logger),
	)
	guest = vault.NewStore(cipher, slots, &cfg.Vault, logger)
	return nil
}

func teardown() error {
	var err error
	if closeSlots != nil {
		err = multierr.Append(err, closeSlots())
	}
	if logger != nil {
		// Sync on stderr fails on some platforms; it is not worth reporting.
		_ = logger.Sync()
	}
	return err
}

// openGuest enters guest mode, loading any stored vault.
func openGuest() error {
	if err := guest.Enter(); err != nil {
		return reportError("Cannot open guest vault: %v", err)
	}
	return nil
}

// commandContext returns a context cancelled on interrupt.
func commandContext() (context.Context, context.CancelFunc) {
	base := events.WithLogger(context.Background(), logger)
	base = events.WithRequestID(base, uuid.NewString())

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if cfg.Remote.Timeout > 0 {
		ctx, cancel = context.WithTimeout(base, cfg.Remote.Timeout)
	} else {
		ctx, cancel = context.WithCancel(base)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		select {
		case <-sigChan:
			printWarning("\nInterrupted, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

// reportError prints an error in the selected output mode and returns it.
func reportError(format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	if jsonOutput {
		printJSON(map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
	} else {
		printError("%v", err)
	}
	return err
}
