package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/TheMichaelB/guestvault/internal/models"
)

var exerciseCmd = &cobra.Command{
	Use:     "exercise",
	Aliases: []string{"exercises"},
	Short:   "Manage exercises within a session",
}

type exerciseFlags struct {
	session  string
	name     string
	activity string
	sets     int
	reps     int
	weight   float64
	seconds  int
	distance float64
	rpe      int
	notes    string
	order    int
}

func (f *exerciseFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.session, "session", "s", "", "Parent session ID")
	fs.StringVarP(&f.name, "name", "n", "", "Exercise name")
	fs.StringVarP(&f.activity, "type", "t", string(models.ActivityOther), "Activity type: cardio, strength, flexibility, other")
	fs.IntVar(&f.sets, "sets", 0, "Number of sets")
	fs.IntVar(&f.reps, "reps", 0, "Repetitions per set")
	fs.Float64Var(&f.weight, "weight", 0, "Weight in kg")
	fs.IntVar(&f.seconds, "seconds", 0, "Duration in seconds")
	fs.Float64Var(&f.distance, "distance", 0, "Distance in meters")
	fs.IntVar(&f.rpe, "rpe", 0, "Rate of perceived exertion (1-10)")
	fs.StringVar(&f.notes, "notes", "", "Free-form notes")
	fs.IntVar(&f.order, "order", 0, "Position within the session")
}

var (
	exerciseAdd    exerciseFlags
	exerciseUpdate exerciseFlags
)

var exerciseAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Add an exercise to a session",
	Example: `  guestvault exercise add --session <id> --name Squat --sets 5 --reps 5 --weight 100`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openGuest(); err != nil {
			return err
		}

		fs := cmd.Flags()
		in := models.ExerciseInput{
			SessionID:    exerciseAdd.session,
			Name:         exerciseAdd.name,
			ActivityType: models.ActivityType(exerciseAdd.activity),
			OrderIndex:   exerciseAdd.order,
		}
		if fs.Changed("sets") {
			in.Sets = &exerciseAdd.sets
		}
		if fs.Changed("reps") {
			in.Reps = &exerciseAdd.reps
		}
		if fs.Changed("weight") {
			in.WeightKg = &exerciseAdd.weight
		}
		if fs.Changed("seconds") {
			in.DurationSeconds = &exerciseAdd.seconds
		}
		if fs.Changed("distance") {
			in.DistanceMeters = &exerciseAdd.distance
		}
		if fs.Changed("rpe") {
			in.RPE = &exerciseAdd.rpe
		}
		if fs.Changed("notes") {
			in.Notes = &exerciseAdd.notes
		}

		e, err := guest.CreateExercise(in)
		if err != nil {
			return reportError("Add exercise: %v", err)
		}
		if jsonOutput {
			printJSON(e)
			return nil
		}
		printSuccess("Added exercise %s", e.ID)
		return nil
	},
}

var exerciseListCmd = &cobra.Command{
	Use:   "list <session-id>",
	Short: "List the exercises of a session in order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openGuest(); err != nil {
			return err
		}

		exercises := guest.GetExercises(args[0])
		if jsonOutput {
			printJSON(exercises)
			return nil
		}
		if len(exercises) == 0 {
			printInfo("No exercises in session %s", args[0])
			return nil
		}

		w := newTable()
		fmt.Fprintln(w, "#\tID\tNAME\tSETS\tREPS\tKG\tRPE")
		for _, e := range exercises {
			fmt.Fprintf(w, "%d\t%s\t%s\t%v\t%v\t%v\t%v\n",
				e.OrderIndex, e.ID, e.Name, orDash(e.Sets), orDash(e.Reps), orDash(e.WeightKg), orDash(e.RPE))
		}
		return w.Flush()
	},
}

var exerciseUpdateCmd = &cobra.Command{
	Use:   "update <exercise-id>",
	Short: "Change fields of an exercise or move it to another session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openGuest(); err != nil {
			return err
		}

		fs := cmd.Flags()
		var patch models.ExercisePatch
		if fs.Changed("session") {
			patch.SessionID = &exerciseUpdate.session
		}
		if fs.Changed("name") {
			patch.Name = &exerciseUpdate.name
		}
		if fs.Changed("type") {
			t := models.ActivityType(exerciseUpdate.activity)
			patch.ActivityType = &t
		}
		if fs.Changed("sets") {
			patch.Sets = &exerciseUpdate.sets
		}
		if fs.Changed("reps") {
			patch.Reps = &exerciseUpdate.reps
		}
		if fs.Changed("weight") {
			patch.WeightKg = &exerciseUpdate.weight
		}
		if fs.Changed("seconds") {
			patch.DurationSeconds = &exerciseUpdate.seconds
		}
		if fs.Changed("distance") {
			patch.DistanceMeters = &exerciseUpdate.distance
		}
		if fs.Changed("rpe") {
			patch.RPE = &exerciseUpdate.rpe
		}
		if fs.Changed("notes") {
			patch.Notes = &exerciseUpdate.notes
		}
		if fs.Changed("order") {
			patch.OrderIndex = &exerciseUpdate.order
		}

		e, err := guest.UpdateExercise(args[0], patch)
		if err != nil {
			return reportError("Update exercise: %v", err)
		}
		if jsonOutput {
			printJSON(e)
			return nil
		}
		printSuccess("Updated exercise %s", e.ID)
		return nil
	},
}

var exerciseDeleteCmd = &cobra.Command{
	Use:   "delete <exercise-id>",
	Short: "Delete an exercise",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openGuest(); err != nil {
			return err
		}
		if err := guest.DeleteExercise(args[0]); err != nil {
			return reportError("Delete exercise: %v", err)
		}
		if jsonOutput {
			printJSON(map[string]interface{}{"success": true, "id": args[0]})
			return nil
		}
		printSuccess("Deleted exercise %s", args[0])
		return nil
	},
}

func init() {
	exerciseAdd.register(exerciseAddCmd.Flags())
	_ = exerciseAddCmd.MarkFlagRequired("session")
	_ = exerciseAddCmd.MarkFlagRequired("name")

	exerciseUpdate.register(exerciseUpdateCmd.Flags())

	exerciseCmd.AddCommand(exerciseAddCmd, exerciseListCmd, exerciseUpdateCmd, exerciseDeleteCmd)
	rootCmd.AddCommand(exerciseCmd)
}
