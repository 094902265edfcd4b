package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/TheMichaelB/guestvault/internal/migration"
	"github.com/TheMichaelB/guestvault/internal/models"
	"github.com/TheMichaelB/guestvault/internal/remote"
	"github.com/TheMichaelB/guestvault/internal/remote/postgres"
)

var (
	migrateOwner    string
	migrateStrategy string
	migrateYes      bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Move guest data into an account",
	Long: `Copy every guest session and exercise to the account store, resolving
conflicts with existing sessions by the chosen strategy. Guest data is
wiped once at least one record has been written.`,
	Example: `  guestvault migrate --owner 6b1f... --strategy merge_both
  guestvault migrate preview --owner 6b1f...`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show what a migration would write without changing anything",
	Args:  cobra.NoArgs,
	RunE:  runPreview,
}

func init() {
	migrateCmd.PersistentFlags().StringVarP(&migrateOwner, "owner", "o", "", "Account ID that will own the migrated sessions")
	migrateCmd.PersistentFlags().StringVarP(&migrateStrategy, "strategy", "s", "",
		"Conflict strategy: keep_guest, keep_server, merge_newest, merge_both (default from config)")
	_ = migrateCmd.MarkPersistentFlagRequired("owner")
	migrateCmd.Flags().BoolVarP(&migrateYes, "yes", "y", false, "Do not ask for confirmation")

	migrateCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(migrateCmd)
}

func selectedStrategy() (models.Strategy, error) {
	name := migrateStrategy
	if name == "" {
		name = cfg.Migration.Strategy
	}
	return models.ParseStrategy(name)
}

// openRemote connects to the configured account store.
func openRemote(ctx context.Context) (migration.RemoteStore, func(), error) {
	switch cfg.Remote.Driver {
	case "memory":
		logger.Warn("Using in-memory remote store; migrated data will not persist")
		return remote.NewMemoryStore(), func() {}, nil

	case "postgres":
		if cfg.Remote.MigrateOnStart {
			if err := postgres.MigrateUp(ctx, cfg.Remote.DSN); err != nil {
				return nil, nil, fmt.Errorf("apply schema: %w", err)
			}
		}
		db, err := postgres.New(ctx, cfg.Remote.DSN)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewSessionRepo(db), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown remote driver: %s", cfg.Remote.Driver)
	}
}

func newEngine(ctx context.Context) (*migration.Engine, func(), error) {
	rs, closeRemote, err := openRemote(ctx)
	if err != nil {
		return nil, nil, err
	}
	return migration.NewEngine(rs, guest, &cfg.Migration, logger), closeRemote, nil
}

func runPreview(cmd *cobra.Command, args []string) error {
	strategy, err := selectedStrategy()
	if err != nil {
		return reportError("%v", err)
	}
	if err := openGuest(); err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	engine, closeRemote, err := newEngine(ctx)
	if err != nil {
		return reportError("Connect to account store: %v", err)
	}
	defer closeRemote()

	preview, err := engine.Preview(ctx, migrateOwner, strategy)
	if err != nil {
		if migration.IsFetchFailure(err) {
			return reportError("Could not read existing account sessions: %v", err)
		}
		return reportError("Preview failed: %v", err)
	}

	if jsonOutput {
		printJSON(preview)
		return nil
	}

	printField("Strategy", preview.StrategyUsed)
	printField("Sessions", len(preview.SessionsToMigrate))
	printField("Exercises", len(preview.ExercisesToMigrate))
	printField("Conflicts", len(preview.Conflicts))
	printField("Estimated time", fmt.Sprintf("%dms", preview.EstimatedTimeMs))

	if len(preview.Conflicts) > 0 {
		fmt.Println()
		w := newTable()
		fmt.Fprintln(w, "GUEST SESSION\tDATE\tACCOUNT SESSION\tREASON")
		for _, c := range preview.Conflicts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.LocalItem.Name, c.LocalItem.Date, c.RemoteItem.Name, c.Reason)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	strategy, err := selectedStrategy()
	if err != nil {
		return reportError("%v", err)
	}
	if err := openGuest(); err != nil {
		return err
	}

	if !migrateYes {
		ok, err := confirm(fmt.Sprintf("Migrate %d guest records to account %s and wipe them locally?",
			guest.State().RecordCount, migrateOwner))
		if err != nil {
			return reportError("%v", err)
		}
		if !ok {
			printInfo("Aborted")
			return nil
		}
	}

	ctx, cancel := commandContext()
	defer cancel()

	engine, closeRemote, err := newEngine(ctx)
	if err != nil {
		return reportError("Connect to account store: %v", err)
	}
	defer closeRemote()

	if !jsonOutput {
		printInfo("Migrating guest data (%s)...", strategy)
	}

	result, err := engine.Migrate(ctx, migrateOwner, strategy)
	if jsonOutput {
		if result != nil {
			printJSON(result)
		}
		if err == nil && !result.Success {
			err = errors.New("migration finished with errors")
		}
		return err
	}

	if err != nil {
		if migration.IsFetchFailure(err) {
			printError("Could not read existing account sessions; guest data was not changed")
		}
		return reportError("Migration failed: %v", err)
	}

	printField("Sessions", result.SessionsMigrated)
	printField("Exercises", result.ExercisesMigrated)
	printField("Conflicts", result.ConflictsResolved)
	for _, msg := range result.Errors {
		printWarning("  %s", msg)
	}
	if !result.Success {
		return reportError("Migration finished with %d errors", len(result.Errors))
	}
	printSuccess("Migration complete")
	return nil
}

// confirm asks a yes/no question on the terminal. It refuses to guess when
// stdin is not interactive.
func confirm(prompt string) (bool, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return false, errors.New("confirmation required: rerun with --yes")
	}

	fmt.Fprintf(os.Stderr, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
