// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/stepsquad/internal/models"
)

var (
	// ErrNotFound indicates a group, membership or user was not located.
	ErrNotFound = errors.New("storage: not found")

	// ErrAlreadyMember indicates a membership for (group, user) already exists.
	ErrAlreadyMember = errors.New("storage: already a member")

	// ErrJoinCodeTaken indicates another group already uses the join code.
	ErrJoinCodeTaken = errors.New("storage: join code already in use")
)

// GroupStore persists groups. Every returned group has MemberCount filled in.
type GroupStore interface {
	// CreateGroup persists group and its owner membership as a single unit:
	// either both exist afterwards or neither does.
	// group.ID, group.CreatedAt and owner.ID are populated when empty.
	CreateGroup(ctx context.Context, group *models.Group, owner *models.Membership) error

	// GetGroup returns ErrNotFound if the group does not exist.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// UpdateGroup writes name, description, visibility and join code.
	// Returns ErrNotFound if the group does not exist.
	UpdateGroup(ctx context.Context, group *models.Group) error

	// DeleteGroup removes the group and, by cascade, all of its memberships.
	// Returns ErrNotFound if the group does not exist.
	DeleteGroup(ctx context.Context, groupID string) error

	// SearchPublicGroups matches query as a case-insensitive substring of
	// public group names and descriptions, returning at most limit groups.
	SearchPublicGroups(ctx context.Context, query string, limit int) ([]*models.Group, error)
}

// MembershipStore persists group memberships.
type MembershipStore interface {
	// GetMembership returns ErrNotFound if userID is not a member of groupID.
	GetMembership(ctx context.Context, groupID, userID string) (*models.Membership, error)

	// ListMembers returns every membership of the group.
	ListMembers(ctx context.Context, groupID string) ([]*models.Membership, error)

	// AddMember returns ErrAlreadyMember if the membership exists.
	AddMember(ctx context.Context, membership *models.Membership) error

	// UpdateMemberRole changes the role of an existing membership.
	// Returns ErrNotFound if there is no such membership.
	UpdateMemberRole(ctx context.Context, groupID, userID string, role models.Role) error

	// RemoveMember returns ErrNotFound if there was no such membership.
	RemoveMember(ctx context.Context, groupID, userID string) error

	// ListUserGroups returns every group the user belongs to with the user's role.
	ListUserGroups(ctx context.Context, userID string) ([]*models.UserGroup, error)
}

// LeaderboardStore aggregates step data.
type LeaderboardStore interface {
	// GetStepTotals sums steps and distance per current member of the group
	// over the inclusive window. Members without entries get zero totals.
	GetStepTotals(ctx context.Context, groupID string, window models.DateRange) ([]models.StepTotal, error)
}

// UserDirectory resolves users.
type UserDirectory interface {
	// GetUser returns ErrNotFound if the user does not exist.
	GetUser(ctx context.Context, userID string) (*models.User, error)

	// GetUsers returns the users that exist, keyed by ID. Unknown IDs are omitted.
	GetUsers(ctx context.Context, userIDs []string) (map[string]*models.User, error)
}

// Store is the full storage surface the group service needs.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	GroupStore
	MembershipStore
	LeaderboardStore

	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
