package models

// VaultStats is derived from the snapshot contents and never edited directly.
type VaultStats struct {
	TotalSessions         int                  `json:"total_sessions"`
	TotalDurationMinutes  int                  `json:"total_duration_minutes"`
	SessionsByType        map[ActivityType]int `json:"sessions_by_type"`
	AverageRPE            *float64             `json:"average_rpe"`
	MostRecentSessionDate *string              `json:"most_recent_session_date"`
	TotalExercises        int                  `json:"total_exercises"`
}

// ComputeStats aggregates sessions and exercises. It has no side effects.
func ComputeStats(sessions []VaultSession, exercises []VaultExercise) VaultStats {
	stats := VaultStats{
		TotalSessions:  len(sessions),
		TotalExercises: len(exercises),
		SessionsByType: make(map[ActivityType]int, len(ActivityTypes)),
	}
	for _, t := range ActivityTypes {
		stats.SessionsByType[t] = 0
	}

	rpeSum, rpeCount := 0, 0
	var latest string

	for _, s := range sessions {
		stats.TotalDurationMinutes += s.DurationMinutes
		stats.SessionsByType[s.ActivityType]++

		if s.RPEScore != nil {
			rpeSum += *s.RPEScore
			rpeCount++
		}

		// Only well-formed dates take part; the layout sorts lexically.
		if d, err := ParseDate(s.Date); err == nil {
			if day := d.Format(DateLayout); day > latest {
				latest = day
			}
		}
	}

	if rpeCount > 0 {
		avg := float64(rpeSum) / float64(rpeCount)
		stats.AverageRPE = &avg
	}
	if latest != "" {
		stats.MostRecentSessionDate = &latest
	}

	return stats
}
