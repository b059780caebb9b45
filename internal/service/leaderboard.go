package service

import (
	"context"
	"fmt"

	"github.com/mmynk/stepsquad/internal/calculator"
	"github.com/mmynk/stepsquad/internal/rbac"
)

// GetLeaderboard ranks the group's members by steps over the window of the
// group's period type, ending today in the service's time zone.
func (s *GroupService) GetLeaderboard(ctx context.Context, userID, groupID string) (*LeaderboardView, error) {
	if err := requireIDs(userID, groupID); err != nil {
		return nil, err
	}

	group, _, err := s.loadAuthorized(ctx, groupID, userID, rbac.ActionView)
	if err != nil {
		return nil, err
	}

	window, err := calculator.ComputeWindow(group.PeriodType, s.now().In(s.loc))
	if err != nil {
		return nil, fmt.Errorf("failed to compute leaderboard window: %w", err)
	}

	totals, err := s.store.GetStepTotals(ctx, groupID, window)
	if err != nil {
		s.logger.Error("Failed to get step totals", "group_id", groupID, "error", err)
		return nil, fmt.Errorf("failed to get step totals: %w", err)
	}

	s.logger.Debug("Leaderboard computed",
		"group_id", groupID,
		"period", group.PeriodType,
		"start", window.Start,
		"end", window.End,
		"entries", len(totals),
	)

	return &LeaderboardView{
		GroupID:     groupID,
		PeriodStart: window.Start,
		PeriodEnd:   window.End,
		Entries:     calculator.Rank(totals),
	}, nil
}
