package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/TheMichaelB/guestvault/internal/models"
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	Aliases: []string{"sessions"},
	Short:   "Manage guest workout sessions",
}

type sessionFlags struct {
	name     string
	date     string
	activity string
	status   string
	duration int
	rpe      int
	pain     int
	notes    string
}

func (f *sessionFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.name, "name", "n", "", "Session name")
	fs.StringVarP(&f.date, "date", "d", "", "Session date (YYYY-MM-DD)")
	fs.StringVarP(&f.activity, "type", "t", string(models.ActivityOther), "Activity type: cardio, strength, flexibility, other")
	fs.StringVar(&f.status, "status", string(models.StatusDraft), "Status: draft, in_progress, completed")
	fs.IntVar(&f.duration, "duration", 0, "Duration in minutes (0-600)")
	fs.IntVar(&f.rpe, "rpe", 0, "Rate of perceived exertion (1-10)")
	fs.IntVar(&f.pain, "pain", 0, "Pain level (1-10)")
	fs.StringVar(&f.notes, "notes", "", "Free-form notes")
}

var (
	sessionAdd    sessionFlags
	sessionUpdate sessionFlags
)

var sessionAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Record a session",
	Example: `  guestvault session add --name "Leg day" --date 2026-05-10 --type strength --duration 60 --rpe 7`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openGuest(); err != nil {
			return err
		}

		fs := cmd.Flags()
		in := models.SessionInput{
			Name:            sessionAdd.name,
			Date:            sessionAdd.date,
			ActivityType:    models.ActivityType(sessionAdd.activity),
			Status:          models.SessionStatus(sessionAdd.status),
			DurationMinutes: sessionAdd.duration,
		}
		if fs.Changed("rpe") {
			in.RPEScore = &sessionAdd.rpe
		}
		if fs.Changed("pain") {
			in.PainLevel = &sessionAdd.pain
		}
		if fs.Changed("notes") {
			in.Notes = &sessionAdd.notes
		}

		s, err := guest.CreateSession(in)
		if err != nil {
			return reportError("Add session: %v", err)
		}
		if jsonOutput {
			printJSON(s)
			return nil
		}
		printSuccess("Added session %s", s.ID)
		return nil
	},
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openGuest(); err != nil {
			return err
		}

		sessions := guest.GetSessions()
		if jsonOutput {
			printJSON(sessions)
			return nil
		}
		if len(sessions) == 0 {
			printInfo("No sessions recorded")
			return nil
		}

		w := newTable()
		fmt.Fprintln(w, "ID\tDATE\tNAME\tTYPE\tSTATUS\tMIN\tRPE")
		for _, s := range sessions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%v\n",
				s.ID, s.Date, s.Name, s.ActivityType, s.Status, s.DurationMinutes, orDash(s.RPEScore))
		}
		return w.Flush()
	},
}

var sessionUpdateCmd = &cobra.Command{
	Use:   "update <session-id>",
	Short: "Change fields of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openGuest(); err != nil {
			return err
		}

		fs := cmd.Flags()
		var patch models.SessionPatch
		if fs.Changed("name") {
			patch.Name = &sessionUpdate.name
		}
		if fs.Changed("date") {
			patch.Date = &sessionUpdate.date
		}
		if fs.Changed("type") {
			t := models.ActivityType(sessionUpdate.activity)
			patch.ActivityType = &t
		}
		if fs.Changed("status") {
			st := models.SessionStatus(sessionUpdate.status)
			patch.Status = &st
		}
		if fs.Changed("duration") {
			patch.DurationMinutes = &sessionUpdate.duration
		}
		if fs.Changed("rpe") {
			patch.RPEScore = &sessionUpdate.rpe
		}
		if fs.Changed("pain") {
			patch.PainLevel = &sessionUpdate.pain
		}
		if fs.Changed("notes") {
			patch.Notes = &sessionUpdate.notes
		}

		s, err := guest.UpdateSession(args[0], patch)
		if err != nil {
			return reportError("Update session: %v", err)
		}
		if jsonOutput {
			printJSON(s)
			return nil
		}
		printSuccess("Updated session %s", s.ID)
		return nil
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session and its exercises",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openGuest(); err != nil {
			return err
		}
		if err := guest.DeleteSession(args[0]); err != nil {
			return reportError("Delete session: %v", err)
		}
		if jsonOutput {
			printJSON(map[string]interface{}{"success": true, "id": args[0]})
			return nil
		}
		printSuccess("Deleted session %s", args[0])
		return nil
	},
}

func init() {
	sessionAdd.register(sessionAddCmd.Flags())
	_ = sessionAddCmd.MarkFlagRequired("name")
	_ = sessionAddCmd.MarkFlagRequired("date")

	sessionUpdate.register(sessionUpdateCmd.Flags())

	sessionCmd.AddCommand(sessionAddCmd, sessionListCmd, sessionUpdateCmd, sessionDeleteCmd)
	rootCmd.AddCommand(sessionCmd)
}
