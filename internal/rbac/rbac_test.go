package rbac

import (
	"testing"

	"github.com/mmynk/stepsquad/internal/apperr"
	"github.com/mmynk/stepsquad/internal/models"
)

func TestCan(t *testing.T) {
	cases := []struct {
		name   string
		role   models.Role
		action Action
		allow  bool
	}{
		{name: "member view", role: models.RoleMember, action: ActionView, allow: true},
		{name: "member update", role: models.RoleMember, action: ActionUpdate, allow: false},
		{name: "member invite", role: models.RoleMember, action: ActionInvite, allow: false},
		{name: "admin invite", role: models.RoleAdmin, action: ActionInvite, allow: true},
		{name: "admin regenerate", role: models.RoleAdmin, action: ActionRegenerateCode, allow: true},
		{name: "admin delete", role: models.RoleAdmin, action: ActionDelete, allow: false},
		{name: "owner delete", role: models.RoleOwner, action: ActionDelete, allow: true},
		{name: "admin change role", role: models.RoleAdmin, action: ActionChangeRole, allow: false},
		{name: "owner change role", role: models.RoleOwner, action: ActionChangeRole, allow: true},
		{name: "owner view", role: models.RoleOwner, action: ActionView, allow: true},
		{name: "no role view", role: "", action: ActionView, allow: false},
		{name: "unknown action", role: models.RoleOwner, action: "launch", allow: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Can(tc.role, tc.action); got != tc.allow {
				t.Fatalf("Can(%q, %q) = %v, want %v", tc.role, tc.action, got, tc.allow)
			}
			err := Authorize(tc.role, tc.action)
			if tc.allow && err != nil {
				t.Fatalf("Authorize(%q, %q) = %v, want nil", tc.role, tc.action, err)
			}
			if !tc.allow && !apperr.IsKind(err, apperr.KindAuthorization) {
				t.Fatalf("Authorize(%q, %q) = %v, want authorization error", tc.role, tc.action, err)
			}
		})
	}
}

func TestAuthorizeRemoval(t *testing.T) {
	cases := []struct {
		name   string
		caller models.Role
		target models.Role
		allow  bool
	}{
		{name: "owner removes member", caller: models.RoleOwner, target: models.RoleMember, allow: true},
		{name: "owner removes admin", caller: models.RoleOwner, target: models.RoleAdmin, allow: true},
		{name: "owner removes owner", caller: models.RoleOwner, target: models.RoleOwner, allow: false},
		{name: "admin removes member", caller: models.RoleAdmin, target: models.RoleMember, allow: true},
		{name: "admin removes admin", caller: models.RoleAdmin, target: models.RoleAdmin, allow: false},
		{name: "admin removes owner", caller: models.RoleAdmin, target: models.RoleOwner, allow: false},
		{name: "member removes member", caller: models.RoleMember, target: models.RoleMember, allow: false},
		{name: "member removes owner", caller: models.RoleMember, target: models.RoleOwner, allow: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := AuthorizeRemoval(tc.caller, tc.target)
			if tc.allow && err != nil {
				t.Fatalf("AuthorizeRemoval(%q, %q) = %v, want nil", tc.caller, tc.target, err)
			}
			if !tc.allow && !apperr.IsKind(err, apperr.KindAuthorization) {
				t.Fatalf("AuthorizeRemoval(%q, %q) = %v, want authorization error", tc.caller, tc.target, err)
			}
		})
	}
}

func TestAuthorizeRemovalOwnerMessage(t *testing.T) {
	err := AuthorizeRemoval(models.RoleOwner, models.RoleOwner)
	if !apperr.IsKind(err, apperr.KindAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if msg := err.(*apperr.Error).Message; msg != "Cannot remove the group owner." {
		t.Errorf("message = %q", msg)
	}
}

func TestAuthorizeLeave(t *testing.T) {
	if err := AuthorizeLeave(models.RoleOwner, 0); err != nil {
		t.Errorf("sole owner leave: %v", err)
	}
	if err := AuthorizeLeave(models.RoleOwner, 2); !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("owner with members: got %v, want conflict", err)
	}
	if err := AuthorizeLeave(models.RoleAdmin, 3); err != nil {
		t.Errorf("admin leave: %v", err)
	}
	if err := AuthorizeLeave(models.RoleMember, 3); err != nil {
		t.Errorf("member leave: %v", err)
	}
}
