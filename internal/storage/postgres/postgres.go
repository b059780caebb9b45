// Package postgres provides a PostgreSQL-backed implementation of the storage interfaces.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mmynk/stepsquad/internal/models"
	"github.com/mmynk/stepsquad/internal/storage"
)

// Ensure Store implements the storage interfaces.
var (
	_ storage.Store         = (*Store)(nil)
	_ storage.UserDirectory = (*Store)(nil)
)

const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"

	constraintJoinCode   = "groups_join_code_key"
	constraintMembership = "group_memberships_group_user_key"
)

// Store implements storage.Store and storage.UserDirectory on a pgx pool.
// The schema is managed by Migrator; New does not migrate.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to the database at dsn and verifies the connection.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const groupColumns = `g.id, g.name, g.description, g.created_by_id, g.is_public, g.join_code, g.period_type, g.created_at,
	(SELECT COUNT(*) FROM group_memberships c WHERE c.group_id = g.id)`

func scanGroup(row pgx.Row, extra ...any) (*models.Group, error) {
	group := &models.Group{}
	var period string
	dest := []any{&group.ID, &group.Name, &group.Description, &group.CreatedByID, &group.IsPublic,
		&group.JoinCode, &period, &group.CreatedAt, &group.MemberCount}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	group.PeriodType = models.PeriodType(period)
	group.CreatedAt = group.CreatedAt.UTC()
	return group, nil
}

// CreateGroup persists a new group together with its owner membership in one transaction.
func (s *Store) CreateGroup(ctx context.Context, group *models.Group, owner *models.Membership) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt.IsZero() {
		group.CreatedAt = time.Now().UTC()
	}
	if owner.ID == "" {
		owner.ID = uuid.New().String()
	}
	owner.GroupID = group.ID
	if owner.JoinedAt.IsZero() {
		owner.JoinedAt = group.CreatedAt
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO groups (id, name, description, created_by_id, is_public, join_code, period_type, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		group.ID, group.Name, group.Description, group.CreatedByID, group.IsPublic,
		nullableCode(group.JoinCode), string(group.PeriodType), group.CreatedAt,
	)
	if isViolation(err, codeUniqueViolation, constraintJoinCode) {
		return storage.ErrJoinCodeTaken
	}
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO group_memberships (id, group_id, user_id, role, joined_at) VALUES ($1, $2, $3, $4, $5)",
		owner.ID, owner.GroupID, owner.UserID, string(owner.Role), owner.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert owner membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return s.reload(ctx, group)
}

// GetGroup retrieves a group by ID.
func (s *Store) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+groupColumns+" FROM groups g WHERE g.id = $1", groupID)
	group, err := scanGroup(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

// UpdateGroup writes the mutable fields of a group and refreshes it from the database.
func (s *Store) UpdateGroup(ctx context.Context, group *models.Group) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE groups SET name = $1, description = $2, is_public = $3, join_code = $4 WHERE id = $5",
		group.Name, group.Description, group.IsPublic, nullableCode(group.JoinCode), group.ID,
	)
	if isViolation(err, codeUniqueViolation, constraintJoinCode) {
		return storage.ErrJoinCodeTaken
	}
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("group %s: %w", group.ID, storage.ErrNotFound)
	}

	return s.reload(ctx, group)
}

// DeleteGroup removes a group. Memberships go with it via ON DELETE CASCADE.
func (s *Store) DeleteGroup(ctx context.Context, groupID string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM groups WHERE id = $1", groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return nil
}

// SearchPublicGroups finds public groups whose name or description contains query.
func (s *Store) SearchPublicGroups(ctx context.Context, query string, limit int) ([]*models.Group, error) {
	pattern := "%" + escapeLike(query) + "%"
	rows, err := s.pool.Query(ctx,
		"SELECT "+groupColumns+` FROM groups g
		 WHERE g.is_public AND (g.name ILIKE $1 OR g.description ILIKE $1)
		 ORDER BY g.name, g.id
		 LIMIT $2`,
		pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	return groups, nil
}

func (s *Store) reload(ctx context.Context, group *models.Group) error {
	fresh, err := s.GetGroup(ctx, group.ID)
	if err != nil {
		return err
	}
	*group = *fresh
	return nil
}

func nullableCode(code *string) *string {
	if code == nil || *code == "" {
		return nil
	}
	return code
}

// escapeLike escapes LIKE wildcards so the query matches literally.
// Backslash is the default LIKE escape character in PostgreSQL.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// isViolation reports whether err is a PostgreSQL error with the given code.
// An empty constraint matches any constraint.
func isViolation(err error, code, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == code && (constraint == "" || pgErr.ConstraintName == constraint)
}
