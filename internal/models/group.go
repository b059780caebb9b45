package models

import (
	"fmt"
	"time"
)

// PeriodType is the competition period of a group. It decides the date
// window the leaderboard aggregates over.
type PeriodType string

const (
	PeriodDaily   PeriodType = "daily"
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
)

// ParsePeriodType accepts the lower-case wire names of a period type.
func ParsePeriodType(s string) (PeriodType, error) {
	switch p := PeriodType(s); p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return p, nil
	default:
		return "", fmt.Errorf("unknown period type %q", s)
	}
}

// Group is a step competition that users join.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name (2-50 characters after trimming).
	Name string

	// Description is optional free text (at most 500 characters).
	Description string

	// CreatedByID is the user who created the group and holds its owner membership.
	CreatedByID string

	// IsPublic groups can be found by search and joined without a code.
	IsPublic bool

	// JoinCode is the 8-character access code of a private group.
	// It is nil exactly when IsPublic is true.
	JoinCode *string

	// PeriodType selects the leaderboard window.
	PeriodType PeriodType

	// CreatedAt is when the group was created.
	CreatedAt time.Time

	// MemberCount is filled in by storage on every read. Never set it locally.
	MemberCount int
}

// HasJoinCode reports whether the group carries an access code.
func (g *Group) HasJoinCode() bool {
	return g.JoinCode != nil && *g.JoinCode != ""
}

// UserGroup pairs a group with the role a particular user holds in it.
type UserGroup struct {
	Group *Group
	Role  Role
}
