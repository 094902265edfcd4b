package migration

import (
	"time"

	"golang.org/x/text/cases"

	"github.com/TheMichaelB/guestvault/internal/models"
)

// DefaultTolerance is the duration difference under which two sessions on
// the same day are treated as the same workout.
const DefaultTolerance = 5 * time.Minute

var fold = cases.Fold()

// DetectConflicts compares every local session with every remote session.
// Pairs on the same day conflict when their names match ignoring case, or
// otherwise when their durations differ by at most tolerance. A local
// session may appear in several conflicts.
func DetectConflicts(local []models.VaultSession, remote []models.RemoteSession, tolerance time.Duration) []models.MigrationConflict {
	conflicts := []models.MigrationConflict{}
	if len(local) == 0 || len(remote) == 0 {
		return conflicts
	}

	remoteNames := make([]string, len(remote))
	for i := range remote {
		remoteNames[i] = fold.String(remote[i].Name)
	}

	for _, l := range local {
		name := fold.String(l.Name)
		for i, r := range remote {
			if !models.SameDay(l.Date, r.Date) {
				continue
			}

			var reason models.ConflictReason
			switch {
			case name == remoteNames[i]:
				reason = models.ReasonDuplicateName
			case withinTolerance(l.DurationMinutes, r.DurationMinutes, tolerance):
				reason = models.ReasonOverlappingTime
			default:
				continue
			}

			conflicts = append(conflicts, models.MigrationConflict{
				Kind:       models.KindSession,
				LocalItem:  l.Clone(),
				RemoteItem: r,
				Reason:     reason,
			})
		}
	}

	return conflicts
}

func withinTolerance(a, b int, tolerance time.Duration) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return time.Duration(d)*time.Minute <= tolerance
}
