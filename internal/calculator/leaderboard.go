package calculator

import (
	"fmt"
	"sort"
	"time"

	"github.com/mmynk/stepsquad/internal/models"
)

// ComputeWindow returns the inclusive date range a leaderboard aggregates over.
//
//	daily:   today only
//	weekly:  rolling 7 days ending today (not a calendar week)
//	monthly: first of the current month through today (month to date)
//
// The range is expressed in today's location; the clock part of today is ignored.
func ComputeWindow(period models.PeriodType, today time.Time) (models.DateRange, error) {
	y, m, d := today.Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, today.Location())

	switch period {
	case models.PeriodDaily:
		return models.DateRange{Start: end, End: end}, nil
	case models.PeriodWeekly:
		return models.DateRange{Start: end.AddDate(0, 0, -6), End: end}, nil
	case models.PeriodMonthly:
		return models.DateRange{Start: time.Date(y, m, 1, 0, 0, 0, 0, today.Location()), End: end}, nil
	default:
		return models.DateRange{}, fmt.Errorf("unknown period type %q", period)
	}
}

// Rank orders totals by steps descending and assigns 1-based positions.
// Equal step totals are ordered by ascending user ID so the result is
// reproducible regardless of input order. The input slice is not modified.
func Rank(totals []models.StepTotal) []models.LeaderboardEntry {
	sorted := make([]models.StepTotal, len(totals))
	copy(sorted, totals)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].TotalSteps != sorted[j].TotalSteps {
			return sorted[i].TotalSteps > sorted[j].TotalSteps
		}
		return sorted[i].UserID < sorted[j].UserID
	})

	entries := make([]models.LeaderboardEntry, len(sorted))
	for i, t := range sorted {
		entries[i] = models.LeaderboardEntry{
			Rank:                i + 1,
			UserID:              t.UserID,
			DisplayName:         t.DisplayName,
			TotalSteps:          t.TotalSteps,
			TotalDistanceMeters: t.TotalDistanceMeters,
		}
	}
	return entries
}
