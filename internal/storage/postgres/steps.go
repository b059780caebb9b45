package postgres

import (
	"context"
	"fmt"

	"github.com/mmynk/stepsquad/internal/models"
)

// RecordSteps stores the step count of one user for one date, replacing any previous value.
// pgx binds entry.Date as a DATE using its calendar day in its own location.
func (s *Store) RecordSteps(ctx context.Context, entry models.StepEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO step_entries (user_id, step_date, steps, distance_meters)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, step_date) DO UPDATE SET
			steps = EXCLUDED.steps,
			distance_meters = EXCLUDED.distance_meters`,
		entry.UserID, entry.Date, entry.Steps, entry.DistanceMeters,
	)
	if err != nil {
		return fmt.Errorf("failed to record steps: %w", err)
	}
	return nil
}

// GetStepTotals sums steps per current member of groupID over the inclusive window.
func (s *Store) GetStepTotals(ctx context.Context, groupID string, window models.DateRange) ([]models.StepTotal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT m.user_id,
		        COALESCE(u.display_name, m.user_id),
		        COALESCE(SUM(e.steps), 0)::bigint,
		        COALESCE(SUM(e.distance_meters), 0)::double precision
		 FROM group_memberships m
		 LEFT JOIN users u ON u.id = m.user_id
		 LEFT JOIN step_entries e ON e.user_id = m.user_id AND e.step_date BETWEEN $1 AND $2
		 WHERE m.group_id = $3
		 GROUP BY m.user_id, u.display_name`,
		window.Start, window.End, groupID,
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
