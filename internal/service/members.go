package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mmynk/stepsquad/internal/apperr"
	"github.com/mmynk/stepsquad/internal/joincode"
	"github.com/mmynk/stepsquad/internal/metrics"
	"github.com/mmynk/stepsquad/internal/models"
	"github.com/mmynk/stepsquad/internal/rbac"
	"github.com/mmynk/stepsquad/internal/storage"
)

// JoinGroup adds the caller as a member. Private groups require their join code.
func (s *GroupService) JoinGroup(ctx context.Context, userID, groupID string, in JoinGroupInput) (*GroupView, error) {
	if err := requireIDs(userID, groupID); err != nil {
		return nil, err
	}
	code := strings.TrimSpace(in.JoinCode)

	unlock, err := s.lockGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	group, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	existing, err := s.findMembership(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("You are already a member of this group.")
	}
	if !group.IsPublic {
		if code == "" {
			return nil, apperr.Validation("A join code is required to join a private group.")
		}
		if !joincode.Validate(group, code) {
			s.logger.Warn("Invalid join code", "group_id", groupID, "user_id", userID)
			return nil, apperr.Forbidden("Invalid join code.")
		}
	}

	if _, err := s.addMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	// Re-read for the member count maintained by storage.
	group, err = s.loadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Member joined", "group_id", groupID, "user_id", userID)
	s.metrics.GroupEvent(metrics.EventJoined)
	return newGroupView(group, models.RoleMember), nil
}

// LeaveGroup removes the caller's membership. The owner may only leave a group
// with no other members, and doing so deletes the group.
func (s *GroupService) LeaveGroup(ctx context.Context, userID, groupID string) error {
	if err := requireIDs(userID, groupID); err != nil {
		return err
	}

	unlock, err := s.lockGroup(ctx, groupID)
	if err != nil {
		return err
	}
	defer unlock()

	group, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return err
	}
	member, err := s.findMembership(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return apperr.Conflict("You are not a member of this group.")
	}
	if err := rbac.AuthorizeLeave(member.Role, group.MemberCount-1); err != nil {
		return err
	}

	if member.Role == models.RoleOwner {
		// A group never exists without its owner.
		if err := s.store.DeleteGroup(ctx, groupID); err != nil {
			return s.storageFailure("delete group", groupID, err)
		}
		s.logger.Info("Owner left, group deleted", "group_id", groupID, "user_id", userID)
		s.metrics.GroupEvent(metrics.EventDeleted)
		return nil
	}

	if err := s.store.RemoveMember(ctx, groupID, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.Conflict("You are not a member of this group.")
		}
		return s.storageFailure("remove member", groupID, err)
	}

	s.logger.Info("Member left", "group_id", groupID, "user_id", userID)
	s.metrics.GroupEvent(metrics.EventLeft)
	return nil
}

// InviteMember adds an existing user to the group as a member. Admin or owner only.
func (s *GroupService) InviteMember(ctx context.Context, userID, groupID string, in InviteMemberInput) (*MemberView, error) {
	if err := requireIDs(userID, groupID); err != nil {
		return nil, err
	}
	targetID := strings.TrimSpace(in.TargetUserID)
	if err := requireID(targetID, "Target user ID"); err != nil {
		return nil, err
	}

	unlock, err := s.lockGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, _, err := s.loadAuthorized(ctx, groupID, userID, rbac.ActionInvite); err != nil {
		return nil, err
	}

	target, err := s.users.GetUser(ctx, targetID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound("User not found.")
	}
	if err != nil {
		s.logger.Error("Failed to look up user", "user_id", targetID, "error", err)
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	existing, err := s.findMembership(ctx, groupID, targetID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("User is already a member of this group.")
	}

	added, err := s.addMember(ctx, groupID, targetID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Member invited", "group_id", groupID, "user_id", userID, "target_user_id", targetID)
	s.metrics.GroupEvent(metrics.EventInvited)
	return &MemberView{
		UserID:      targetID,
		DisplayName: target.DisplayName,
		AvatarURL:   target.AvatarURL,
		Role:        added.Role,
		JoinedAt:    added.JoinedAt,
	}, nil
}

// RemoveMember removes another member. The owner can never be removed and
// admins cannot remove admins.
func (s *GroupService) RemoveMember(ctx context.Context, userID, groupID, targetUserID string) error {
	if err := requireIDs(userID, groupID); err != nil {
		return err
	}
	if err := requireID(targetUserID, "Target user ID"); err != nil {
		return err
	}

	unlock, err := s.lockGroup(ctx, groupID)
	if err != nil {
		return err
	}
	defer unlock()

	_, caller, err := s.loadAuthorized(ctx, groupID, userID, rbac.ActionRemove)
	if err != nil {
		return err
	}
	target, err := s.findMembership(ctx, groupID, targetUserID)
	if err != nil {
		return err
	}
	if target == nil {
		return apperr.NotFound("Member not found.")
	}
	if err := rbac.AuthorizeRemoval(caller.Role, target.Role); err != nil {
		return err
	}

	if err := s.store.RemoveMember(ctx, groupID, targetUserID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound("Member not found.")
		}
		return s.storageFailure("remove member", groupID, err)
	}

	s.logger.Info("Member removed", "group_id", groupID, "user_id", userID, "target_user_id", targetUserID)
	s.metrics.GroupEvent(metrics.EventRemoved)
	return nil
}

// GetMembers lists the group's members: the owner first, then admins, then members.
// Within a role, earlier joiners come first.
func (s *GroupService) GetMembers(ctx context.Context, userID, groupID string, filter MemberFilter) ([]*MemberView, error) {
	if err := requireIDs(userID, groupID); err != nil {
		return nil, err
	}
	if filter.Role != "" {
		if _, err := models.ParseRole(string(filter.Role)); err != nil {
			return nil, apperr.Validation("Role filter must be owner, admin or member.")
		}
	}
	query := strings.ToLower(strings.TrimSpace(filter.Query))

	if _, _, err := s.loadAuthorized(ctx, groupID, userID, rbac.ActionView); err != nil {
		return nil, err
	}

	memberships, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		s.logger.Error("Failed to list members", "group_id", groupID, "error", err)
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	ids := make([]string, len(memberships))
	for i, m := range memberships {
		ids[i] = m.UserID
	}
	users, err := s.users.GetUsers(ctx, ids)
	if err != nil {
		s.logger.Error("Failed to look up users", "group_id", groupID, "error", err)
		return nil, fmt.Errorf("failed to look up users: %w", err)
	}

	views := make([]*MemberView, 0, len(memberships))
	for _, m := range memberships {
		view := &MemberView{
			UserID:      m.UserID,
			DisplayName: m.UserID,
			Role:        m.Role,
			JoinedAt:    m.JoinedAt,
		}
		if u, ok := users[m.UserID]; ok {
			view.DisplayName = u.DisplayName
			view.AvatarURL = u.AvatarURL
		}

		if filter.Role != "" && view.Role != filter.Role {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(view.DisplayName), query) {
			continue
		}
		views = append(views, view)
	}

	sort.SliceStable(views, func(i, j int) bool {
		if views[i].Role.Level() != views[j].Role.Level() {
			return views[i].Role.Level() > views[j].Role.Level()
		}
		return views[i].JoinedAt.Before(views[j].JoinedAt)
	})

	return views, nil
}

// addMember inserts a member-role membership.
func (s *GroupService) addMember(ctx context.Context, groupID, userID string) (*models.Membership, error) {
	m := &models.Membership{
		GroupID: groupID,
		UserID:  userID,
		Role:    models.RoleMember,
	}
	err := s.store.AddMember(ctx, m)
	if errors.Is(err, storage.ErrAlreadyMember) {
		return nil, apperr.Conflict("User is already a member of this group.")
	}
	if err != nil {
		return nil, s.storageFailure("add member", groupID, err)
	}
	return m, nil
}

// SetMemberRole promotes a member to admin or demotes an admin to member.
// Owner only; the owner's own role never changes.
func (s *GroupService) SetMemberRole(ctx context.Context, userID, groupID, targetUserID string, role models.Role) (*MemberView, error) {
	if err := requireIDs(userID, groupID); err != nil {
		return nil, err
	}
	if err := requireID(targetUserID, "Target user ID"); err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && role != models.RoleMember {
		return nil, apperr.Validation("Role must be admin or member.")
	}

	unlock, err := s.lockGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, _, err := s.loadAuthorized(ctx, groupID, userID, rbac.ActionChangeRole); err != nil {
		return nil, err
	}
	target, err := s.findMembership(ctx, groupID, targetUserID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, apperr.NotFound("Member not found.")
	}
	if target.Role == models.RoleOwner {
		return nil, apperr.Forbidden("The group owner's role cannot be changed.")
	}

	if target.Role != role {
		if err := s.store.UpdateMemberRole(ctx, groupID, targetUserID, role); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, apperr.NotFound("Member not found.")
			}
			return nil, s.storageFailure("update member role", groupID, err)
		}
		s.logger.Info("Member role changed", "group_id", groupID, "target_user_id", targetUserID, "role", role)
		s.metrics.GroupEvent(metrics.EventRoleChanged)
	}

	view := &MemberView{
		UserID:      targetUserID,
		DisplayName: targetUserID,
		Role:        role,
		JoinedAt:    target.JoinedAt,
	}
	if u, err := s.users.GetUser(ctx, targetUserID); err == nil {
		view.DisplayName = u.DisplayName
		view.AvatarURL = u.AvatarURL
	}
	return view, nil
}
