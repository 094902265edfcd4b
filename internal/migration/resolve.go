package migration

import (
	"github.com/TheMichaelB/guestvault/internal/models"
)

// DefaultSuffix is appended to a local session kept alongside its remote twin.
const DefaultSuffix = " (imported)"

// Decision is the outcome of a single conflict for its local session.
type Decision string

const (
	DecisionKeep   Decision = "keep"
	DecisionDrop   Decision = "drop"
	DecisionRename Decision = "rename"
)

// Decide applies strategy to one conflict. Under merge_newest the local
// session wins only when it was updated strictly later.
func Decide(c models.MigrationConflict, strategy models.Strategy) Decision {
	switch strategy {
	case models.StrategyKeepGuest:
		return DecisionKeep
	case models.StrategyKeepServer:
		return DecisionDrop
	case models.StrategyMergeNewest:
		if c.LocalItem.UpdatedAt.After(c.RemoteItem.UpdatedAt) {
			return DecisionKeep
		}
		return DecisionDrop
	case models.StrategyMergeBoth:
		return DecisionRename
	}
	return DecisionDrop
}

// Plan is the ordered set of sessions to write.
type Plan struct {
	Sessions          []models.VaultSession
	Dropped           []models.VaultSession
	ConflictsResolved int
}

// Includes reports whether the local session id is scheduled for writing.
func (p Plan) Includes(id string) bool {
	for i := range p.Sessions {
		if p.Sessions[i].ID == id {
			return true
		}
	}
	return false
}

// Resolve builds the migration plan for sessions. Sessions without
// conflicts are always kept. A session with several conflicts is dropped
// if any of them drops it, renamed once if any renames it, and kept
// otherwise. Every conflict counts as resolved.
func Resolve(sessions []models.VaultSession, conflicts []models.MigrationConflict, strategy models.Strategy, suffix string) Plan {
	decisions := make(map[string]Decision, len(conflicts))
	for _, c := range conflicts {
		d := Decide(c, strategy)
		switch prev := decisions[c.LocalItem.ID]; {
		case prev == DecisionDrop:
		case d == DecisionDrop, d == DecisionRename:
			decisions[c.LocalItem.ID] = d
		case prev == "":
			decisions[c.LocalItem.ID] = d
		}
	}

	plan := Plan{
		Sessions:          []models.VaultSession{},
		Dropped:           []models.VaultSession{},
		ConflictsResolved: len(conflicts),
	}
	for i := range sessions {
		s := sessions[i].Clone()
		switch decisions[s.ID] {
		case DecisionDrop:
			plan.Dropped = append(plan.Dropped, s)
			continue
		case DecisionRename:
			s.Name += suffix
		}
		plan.Sessions = append(plan.Sessions, s)
	}

	return plan
}
