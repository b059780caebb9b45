// Package rbac decides which group role may perform which action.
// It is pure: nothing here touches storage.
package rbac

import (
	"github.com/mmynk/stepsquad/internal/apperr"
	"github.com/mmynk/stepsquad/internal/models"
)

type Action string

const (
	ActionView           Action = "view"
	ActionUpdate         Action = "update"
	ActionInvite         Action = "invite"
	ActionRemove         Action = "remove"
	ActionRegenerateCode Action = "regenerate_code"
	ActionDelete         Action = "delete"
	ActionChangeRole     Action = "change_role"
)

// minimumRole is the permission matrix: the lowest role allowed to perform each action.
var minimumRole = map[Action]models.Role{
	ActionView:           models.RoleMember,
	ActionUpdate:         models.RoleAdmin,
	ActionInvite:         models.RoleAdmin,
	ActionRemove:         models.RoleAdmin,
	ActionRegenerateCode: models.RoleAdmin,
	ActionDelete:         models.RoleOwner,
	ActionChangeRole:     models.RoleOwner,
}

// Can reports whether role may perform action.
func Can(role models.Role, action Action) bool {
	min, ok := minimumRole[action]
	if !ok {
		return false
	}
	return role.AtLeast(min)
}

// Authorize returns an authorization error unless role may perform action.
func Authorize(role models.Role, action Action) error {
	if Can(role, action) {
		return nil
	}
	switch minimumRole[action] {
	case models.RoleOwner:
		return apperr.Forbidden("Only the group owner can %s this group.", verb(action))
	case models.RoleAdmin:
		return apperr.Forbidden("Only group owners and admins can %s.", verb(action))
	default:
		return apperr.Forbidden("You are not a member of this group.")
	}
}

// AuthorizeRemoval checks whether caller may remove a member holding target.
// The owner can never be removed, and a target must rank strictly below the caller.
func AuthorizeRemoval(caller, target models.Role) error {
	if err := Authorize(caller, ActionRemove); err != nil {
		return err
	}
	if target == models.RoleOwner {
		return apperr.Forbidden("Cannot remove the group owner.")
	}
	if !caller.Above(target) {
		if caller == models.RoleAdmin && target == models.RoleAdmin {
			return apperr.Forbidden("Admins cannot remove other admins.")
		}
		return apperr.Forbidden("Cannot remove a member with an equal or higher role.")
	}
	return nil
}

// AuthorizeLeave checks whether a member holding role may leave a group that
// has otherMembers members besides them. The owner may only leave an otherwise empty group.
func AuthorizeLeave(role models.Role, otherMembers int) error {
	if role == models.RoleOwner && otherMembers > 0 {
		return apperr.Conflict("Group owner cannot leave while other members remain. Delete the group instead.")
	}
	return nil
}

func verb(action Action) string {
	switch action {
	case ActionUpdate:
		return "update the group"
	case ActionInvite:
		return "invite members"
	case ActionRemove:
		return "remove members"
	case ActionRegenerateCode:
		return "regenerate the join code"
	case ActionDelete:
		return "delete"
	case ActionChangeRole:
		return "change member roles in"
	default:
		return string(action)
	}
}
