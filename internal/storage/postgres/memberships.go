package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmynk/stepsquad/internal/models"
	"github.com/mmynk/stepsquad/internal/storage"
)

const membershipColumns = "id, group_id, user_id, role, joined_at"

func scanMembership(row pgx.Row) (*models.Membership, error) {
	m := &models.Membership{}
	var role string
	if err := row.Scan(&m.ID, &m.GroupID, &m.UserID, &role, &m.JoinedAt); err != nil {
		return nil, err
	}
	m.Role = models.Role(role)
	m.JoinedAt = m.JoinedAt.UTC()
	return m, nil
}

// GetMembership retrieves the membership of userID in groupID.
func (s *Store) GetMembership(ctx context.Context, groupID, userID string) (*models.Membership, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+membershipColumns+" FROM group_memberships WHERE group_id = $1 AND user_id = $2",
		groupID, userID,
	)
	m, err := scanMembership(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("membership %s/%s: %w", groupID, userID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

// ListMembers retrieves all memberships of a group in join order.
func (s *Store) ListMembers(ctx context.Context, groupID string) ([]*models.Membership, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+membershipColumns+" FROM group_memberships WHERE group_id = $1 ORDER BY joined_at, id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*models.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return members, nil
}

// AddMember inserts a membership.
func (s *Store) AddMember(ctx context.Context, membership *models.Membership) error {
	if membership.ID == "" {
		membership.ID = uuid.New().String()
	}
	if membership.JoinedAt.IsZero() {
		membership.JoinedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		"INSERT INTO group_memberships ("+membershipColumns+") VALUES ($1, $2, $3, $4, $5)",
		membership.ID, membership.GroupID, membership.UserID, string(membership.Role), membership.JoinedAt,
	)
	switch {
	case isViolation(err, codeUniqueViolation, constraintMembership):
		return storage.ErrAlreadyMember
	case isViolation(err, codeForeignKeyViolation, ""):
		return fmt.Errorf("group %s: %w", membership.GroupID, storage.ErrNotFound)
	case err != nil:
		return fmt.Errorf("failed to insert membership: %w", err)
	}
	return nil
}

// UpdateMemberRole changes the role of userID in groupID.
func (s *Store) UpdateMemberRole(ctx context.Context, groupID, userID string, role models.Role) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE group_memberships SET role = $1 WHERE group_id = $2 AND user_id = $3",
		string(role), groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("membership %s/%s: %w", groupID, userID, storage.ErrNotFound)
	}
	return nil
}

// RemoveMember deletes the membership of userID in groupID.
func (s *Store) RemoveMember(ctx context.Context, groupID, userID string) error {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM group_memberships WHERE group_id = $1 AND user_id = $2",
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("membership %s/%s: %w", groupID, userID, storage.ErrNotFound)
	}
	return nil
}

// ListUserGroups retrieves every group userID belongs to along with their role.
func (s *Store) ListUserGroups(ctx context.Context, userID string) ([]*models.UserGroup, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+groupColumns+`, m.role
		 FROM group_memberships m
		 JOIN groups g ON g.id = m.group_id
		 WHERE m.user_id = $1
		 ORDER BY m.joined_at, g.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list user groups: %w", err)
	}
	defer rows.Close()

	var result []*models.UserGroup
	for rows.Next() {
		var role string
		group, err := scanGroup(rows, &role)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user group: %w", err)
		}
		result = append(result, &models.UserGroup{Group: group, Role: models.Role(role)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user groups: %w", err)
	}

	return result, nil
}
