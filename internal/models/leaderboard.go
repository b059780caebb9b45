package models

import "time"

// DateLayout is the calendar-date format used for step dates and windows.
const DateLayout = "2006-01-02"

// DateRange is an inclusive range of calendar dates. Start and End are
// midnight of their day in the location the range was computed for.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Days returns the number of calendar days from Start to End.
func (r DateRange) Days() int {
	return int(civil(r.End).Sub(civil(r.Start)).Hours() / 24)
}

// civil drops the clock and location so DST shifts do not skew day arithmetic.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Contains reports whether day falls inside the range (by calendar date).
func (r DateRange) Contains(day time.Time) bool {
	d := day.Format(DateLayout)
	return d >= r.Start.Format(DateLayout) && d <= r.End.Format(DateLayout)
}

// StepEntry is one user's step count for one date.
type StepEntry struct {
	UserID         string
	Date           time.Time
	Steps          int64
	DistanceMeters float64
}

// StepTotal is a user's aggregated activity over a DateRange.
type StepTotal struct {
	UserID              string
	DisplayName         string
	TotalSteps          int64
	TotalDistanceMeters float64
}

// LeaderboardEntry is one ranked row of a leaderboard.
type LeaderboardEntry struct {
	// Rank is 1-based.
	Rank                int
	UserID              string
	DisplayName         string
	TotalSteps          int64
	TotalDistanceMeters float64
}
