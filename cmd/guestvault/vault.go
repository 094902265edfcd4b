package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/guestvault/internal/models"
	"github.com/TheMichaelB/guestvault/internal/validation"
)

var enterCmd = &cobra.Command{
	Use:   "enter",
	Short: "Enter guest mode, creating the vault if needed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openGuest(); err != nil {
			return err
		}

		st := guest.State()
		if jsonOutput {
			printJSON(st)
			return nil
		}
		printSuccess("Guest mode active (%d records)", st.RecordCount)
		if st.ExpiresAt != nil {
			printInfo("Guest data expires %s", st.ExpiresAt.Local().Format(time.RFC1123))
		}
		return nil
	},
}

var exitCmd = &cobra.Command{
	Use:   "exit",
	Short: "Leave guest mode; stored data is kept",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		guest.Exit()
		if jsonOutput {
			printJSON(guest.State())
			return nil
		}
		printInfo("Guest mode inactive. Data stays encrypted on this device until it expires.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show vault metadata without decrypting it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		meta, found, err := guest.Metadata()
		if err != nil {
			return reportError("Read vault metadata: %v", err)
		}

		now := time.Now()
		expired := found && !meta.ExpiresAt.IsZero() && !now.Before(meta.ExpiresAt)

		if jsonOutput {
			out := map[string]interface{}{"exists": found}
			if found {
				out["metadata"] = meta
				out["expired"] = expired
			}
			printJSON(out)
			return nil
		}

		if !found {
			printInfo("No guest vault on this device")
			return nil
		}
		printField("Schema version", meta.SchemaVersion)
		printField("Records", meta.RecordCount)
		printField("Last accessed", meta.LastAccessed.Local().Format(time.RFC1123))
		printField("Expires", meta.ExpiresAt.Local().Format(time.RFC1123))
		if expired {
			printWarning("Guest data has expired and will be destroyed on next access")
		} else {
			printField("Time left", meta.ExpiresAt.Sub(now).Round(time.Minute))
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show training statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openGuest(); err != nil {
			return err
		}

		stats := guest.GetStats()
		if jsonOutput {
			printJSON(stats)
			return nil
		}
		printField("Sessions", stats.TotalSessions)
		printField("Exercises", stats.TotalExercises)
		printField("Total minutes", stats.TotalDurationMinutes)
		printField("Average RPE", orDash(stats.AverageRPE))
		printField("Most recent", orDash(stats.MostRecentSessionDate))
		for _, t := range models.ActivityTypes {
			printField("  "+string(t), stats.SessionsByType[t])
		}
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check guest data before migrating it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openGuest(); err != nil {
			return err
		}

		var expiresAt time.Time
		if st := guest.State(); st.ExpiresAt != nil {
			expiresAt = *st.ExpiresAt
		}
		report := validation.Validate(guest.Snapshot(), expiresAt, time.Now())

		if jsonOutput {
			printJSON(report)
			return report.Err()
		}
		for _, v := range report.Errors {
			printError("%s", v)
		}
		for _, v := range report.Warnings {
			printWarning("Warning: %s", v)
		}
		if !report.Valid {
			return report.Err()
		}
		printSuccess("Guest data is ready to migrate")
		return nil
	},
}

var wipeYes bool

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Permanently destroy guest data and its key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !wipeYes {
			ok, err := confirm("Permanently delete all guest data on this device?")
			if err != nil {
				return reportError("%v", err)
			}
			if !ok {
				printInfo("Aborted")
				return nil
			}
		}

		if err := guest.Clear(); err != nil {
			return reportError("Wipe incomplete: %v", err)
		}
		if jsonOutput {
			printJSON(map[string]interface{}{"success": true})
			return nil
		}
		printSuccess("Guest data destroyed")
		return nil
	},
}

func init() {
	wipeCmd.Flags().BoolVarP(&wipeYes, "yes", "y", false, "Do not ask for confirmation")

	rootCmd.AddCommand(enterCmd, exitCmd, statusCmd, statsCmd, validateCmd, wipeCmd)
}
