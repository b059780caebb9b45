package sqlite

import (
	"context"
	"fmt"

	"github.com/mmynk/stepsquad/internal/models"
)

// RecordSteps stores the step count of one user for one date, replacing any previous value.
func (s *Store) RecordSteps(ctx context.Context, entry models.StepEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO step_entries (user_id, step_date, steps, distance_meters)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, step_date) DO UPDATE SET
			steps = excluded.steps,
			distance_meters = excluded.distance_meters`,
		entry.UserID, entry.Date.Format(models.DateLayout), entry.Steps, entry.DistanceMeters,
	)
	if err != nil {
		return fmt.Errorf("failed to record steps: %w", err)
	}
	return nil
}

// GetStepTotals sums steps per current member of groupID over the inclusive window.
func (s *Store) GetStepTotals(ctx context.Context, groupID string, window models.DateRange) ([]models.StepTotal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.user_id,
		        COALESCE(u.display_name, m.user_id),
		        COALESCE(SUM(e.steps), 0),
		        COALESCE(SUM(e.distance_meters), 0)
		 FROM group_memberships m
		 LEFT JOIN users u ON u.id = m.user_id
		 LEFT JOIN step_entries e ON e.user_id = m.user_id AND e.step_date BETWEEN ? AND ?
		 WHERE m.group_id = ?
		 GROUP BY m.user_id, u.display_name`,
		window.Start.Format(models.DateLayout), window.End.Format(models.DateLayout), groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get step totals: %w", err)
	}
	defer rows.Close()

	var totals []models.StepTotal
	for rows.Next() {
		var t models.StepTotal
		if err := rows.Scan(&t.UserID, &t.DisplayName, &t.TotalSteps, &t.TotalDistanceMeters); err != nil {
			return nil, fmt.Errorf("failed to scan step total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate step totals: %w", err)
	}

	return totals, nil
}
