package service

import (
	"time"

	"github.com/mmynk/stepsquad/internal/joincode"
	"github.com/mmynk/stepsquad/internal/models"
)

// GroupView is a group as seen by one viewer.
// JoinCode is nil unless the viewer is the owner or an admin.
type GroupView struct {
	ID          string
	Name        string
	Description string
	IsPublic    bool
	JoinCode    *string
	PeriodType  models.PeriodType
	MemberCount int
	// Role is the viewer's role, empty for non-members.
	Role      models.Role
	CreatedAt time.Time
}

// MemberView is a membership joined with the member's profile.
type MemberView struct {
	UserID      string
	DisplayName string
	AvatarURL   string
	Role        models.Role
	JoinedAt    time.Time
}

// LeaderboardView is the ranked leaderboard of a group for its current window.
type LeaderboardView struct {
	GroupID     string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Entries     []models.LeaderboardEntry
}

// CreateGroupInput holds the fields of a new group.
// An empty PeriodType defaults to weekly.
type CreateGroupInput struct {
	Name        string
	Description string
	IsPublic    bool
	PeriodType  models.PeriodType
}

// UpdateGroupInput replaces the editable fields of a group.
type UpdateGroupInput struct {
	Name        string
	Description string
	IsPublic    bool
}

// JoinGroupInput carries the code needed to join a private group.
type JoinGroupInput struct {
	JoinCode string
}

// InviteMemberInput names the user to add.
type InviteMemberInput struct {
	TargetUserID string
}

// MemberFilter narrows GetMembers. Zero values match everything.
type MemberFilter struct {
	// Role keeps only members holding exactly this role.
	Role models.Role
	// Query keeps members whose display name contains it, ignoring case.
	Query string
}

// newGroupView shapes group for a viewer holding role, hiding the join code
// from anyone below admin.
func newGroupView(group *models.Group, role models.Role) *GroupView {
	view := &GroupView{
		ID:          group.ID,
		Name:        group.Name,
		Description: group.Description,
		IsPublic:    group.IsPublic,
		PeriodType:  group.PeriodType,
		MemberCount: group.MemberCount,
		Role:        role,
		CreatedAt:   group.CreatedAt,
	}
	if joincode.Visible(role) && group.HasJoinCode() {
		code := *group.JoinCode
		view.JoinCode = &code
	}
	return view
}
