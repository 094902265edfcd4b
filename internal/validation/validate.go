// Package validation inspects guest vault contents before they leave the
// device. Errors block a migration; warnings are informational.
package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/TheMichaelB/guestvault/internal/models"
)

// Violation codes.
const (
	CodeExpired          = "ttl_expired"
	CodeInvalidDate      = "invalid_date"
	CodeOrphanedExercise = "orphaned_exercise"
	CodeNoSessions       = "no_sessions"
)

// Violation is a single finding.
type Violation struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	RecordID string `json:"record_id,omitempty"`
}

func (v Violation) String() string {
	if v.RecordID == "" {
		return v.Message
	}
	return fmt.Sprintf("%s (%s)", v.Message, v.RecordID)
}

// Report is the outcome of Validate.
type Report struct {
	Valid    bool        `json:"valid"`
	Errors   []Violation `json:"errors"`
	Warnings []Violation `json:"warnings"`
}

// Err returns nil for a valid report, otherwise an error wrapping
// models.ErrValidationFailed that lists every blocking violation.
func (r Report) Err() error {
	if r.Valid {
		return nil
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, v := range r.Errors {
		msgs = append(msgs, v.String())
	}
	return fmt.Errorf("%w: %s", models.ErrValidationFailed, strings.Join(msgs, "; "))
}

// Validate checks snap against expiresAt at now. A zero expiresAt skips the
// expiry check. A nil snapshot is treated as empty.
func Validate(snap *models.VaultSnapshot, expiresAt, now time.Time) Report {
	r := Report{Errors: []Violation{}, Warnings: []Violation{}}

	if !expiresAt.IsZero() && !now.Before(expiresAt) {
		r.Errors = append(r.Errors, Violation{
			Code:    CodeExpired,
			Message: "guest data expired at " + expiresAt.UTC().Format(time.RFC3339),
		})
	}

	if snap == nil || len(snap.Sessions) == 0 {
		r.Warnings = append(r.Warnings, Violation{
			Code:    CodeNoSessions,
			Message: "vault has no sessions",
		})
	}

	sessions := make(map[string]struct{})
	if snap != nil {
		for _, s := range snap.Sessions {
			sessions[s.ID] = struct{}{}
			if _, err := models.ParseDate(s.Date); err != nil {
				r.Errors = append(r.Errors, Violation{
					Code:     CodeInvalidDate,
					Message:  fmt.Sprintf("session %q has unparsable date %q", s.Name, s.Date),
					RecordID: s.ID,
				})
			}
		}

		for _, e := range snap.Exercises {
			if _, ok := sessions[e.SessionID]; !ok {
				r.Warnings = append(r.Warnings, Violation{
					Code:     CodeOrphanedExercise,
					Message:  fmt.Sprintf("exercise %q references missing session %s", e.Name, e.SessionID),
					RecordID: e.ID,
				})
			}
		}
	}

	r.Valid = len(r.Errors) == 0
	return r
}
