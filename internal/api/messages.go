package api

import (
	"time"

	"github.com/mmynk/stepsquad/internal/models"
	"github.com/mmynk/stepsquad/internal/service"
)

// Group is a group as returned to one viewer. JoinCode is omitted unless the
// viewer is the owner or an admin.
type Group struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	IsPublic    bool    `json:"isPublic"`
	JoinCode    *string `json:"joinCode,omitempty"`
	PeriodType  string  `json:"periodType"`
	MemberCount int     `json:"memberCount"`
	Role        string  `json:"role,omitempty"`
	CreatedAt   string  `json:"createdAt"`
}

type GroupMember struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	Role        string `json:"role"`
	JoinedAt    string `json:"joinedAt"`
}

type LeaderboardEntry struct {
	Rank                int     `json:"rank"`
	UserID              string  `json:"userId"`
	DisplayName         string  `json:"displayName"`
	TotalSteps          int64   `json:"totalSteps"`
	TotalDistanceMeters float64 `json:"totalDistanceMeters"`
}

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsPublic    bool   `json:"isPublic"`
	PeriodType  string `json:"periodType,omitempty"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"groupId"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type ListMyGroupsRequest struct{}

type ListMyGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type UpdateGroupRequest struct {
	GroupID     string `json:"groupId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsPublic    bool   `json:"isPublic"`
}

type UpdateGroupResponse struct {
	Group *Group `json:"group"`
}

type DeleteGroupRequest struct {
	GroupID string `json:"groupId"`
}

type DeleteGroupResponse struct{}

type JoinGroupRequest struct {
	GroupID  string `json:"groupId"`
	JoinCode string `json:"joinCode,omitempty"`
}

type JoinGroupResponse struct {
	Group *Group `json:"group"`
}

type LeaveGroupRequest struct {
	GroupID string `json:"groupId"`
}

type LeaveGroupResponse struct{}

type InviteMemberRequest struct {
	GroupID string `json:"groupId"`
	UserID  string `json:"userId"`
}

type InviteMemberResponse struct {
	Member *GroupMember `json:"member"`
}

type RemoveMemberRequest struct {
	GroupID string `json:"groupId"`
	UserID  string `json:"userId"`
}

type RemoveMemberResponse struct{}

type SetMemberRoleRequest struct {
	GroupID string `json:"groupId"`
	UserID  string `json:"userId"`
	Role    string `json:"role"`
}

type SetMemberRoleResponse struct {
	Member *GroupMember `json:"member"`
}

type GetMembersRequest struct {
	GroupID string `json:"groupId"`
	Role    string `json:"role,omitempty"`
	Query   string `json:"query,omitempty"`
}

type GetMembersResponse struct {
	Members []*GroupMember `json:"members"`
}

type GetLeaderboardRequest struct {
	GroupID string `json:"groupId"`
}

type GetLeaderboardResponse struct {
	GroupID     string              `json:"groupId"`
	PeriodStart string              `json:"periodStart"`
	PeriodEnd   string              `json:"periodEnd"`
	Entries     []*LeaderboardEntry `json:"entries"`
}

type RegenerateJoinCodeRequest struct {
	GroupID string `json:"groupId"`
}

type RegenerateJoinCodeResponse struct {
	Group *Group `json:"group"`
}

type SearchPublicGroupsRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type SearchPublicGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

func toGroup(v *service.GroupView) *Group {
	return &Group{
		ID:          v.ID,
		Name:        v.Name,
		Description: v.Description,
		IsPublic:    v.IsPublic,
		JoinCode:    v.JoinCode,
		PeriodType:  string(v.PeriodType),
		MemberCount: v.MemberCount,
		Role:        string(v.Role),
		CreatedAt:   v.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toGroups(views []*service.GroupView) []*Group {
	groups := make([]*Group, len(views))
	for i, v := range views {
		groups[i] = toGroup(v)
	}
	return groups
}

func toMember(v *service.MemberView) *GroupMember {
	return &GroupMember{
		UserID:      v.UserID,
		DisplayName: v.DisplayName,
		AvatarURL:   v.AvatarURL,
		Role:        string(v.Role),
		JoinedAt:    v.JoinedAt.UTC().Format(time.RFC3339),
	}
}

func toLeaderboard(v *service.LeaderboardView) *GetLeaderboardResponse {
	entries := make([]*LeaderboardEntry, len(v.Entries))
	for i, e := range v.Entries {
		entries[i] = &LeaderboardEntry{
			Rank:                e.Rank,
			UserID:              e.UserID,
			DisplayName:         e.DisplayName,
			TotalSteps:          e.TotalSteps,
			TotalDistanceMeters: e.TotalDistanceMeters,
		}
	}
	return &GetLeaderboardResponse{
		GroupID:     v.GroupID,
		PeriodStart: v.PeriodStart.Format(models.DateLayout),
		PeriodEnd:   v.PeriodEnd.Format(models.DateLayout),
		Entries:     entries,
	}
}
