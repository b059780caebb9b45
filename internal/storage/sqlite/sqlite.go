// Package sqlite provides a SQLite-backed implementation of the storage interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	msqlite "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mmynk/stepsquad/internal/models"
	"github.com/mmynk/stepsquad/internal/storage"
)

// Ensure Store implements the storage interfaces.
var (
	_ storage.Store         = (*Store)(nil)
	_ storage.UserDirectory = (*Store)(nil)
)

// Store implements storage.Store and storage.UserDirectory using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a Store with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection serializes writers; SQLite allows only one at a time anyway.
	db.SetMaxOpenConns(1)

	if err := runMigrations(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const groupColumns = `g.id, g.name, g.description, g.created_by_id, g.is_public, g.join_code, g.period_type, g.created_at,
	(SELECT COUNT(*) FROM group_memberships c WHERE c.group_id = g.id)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner) (*models.Group, error) {
	group := &models.Group{}
	var (
		joinCode  sql.NullString
		period    string
		createdAt int64
	)
	if err := row.Scan(&group.ID, &group.Name, &group.Description, &group.CreatedByID, &group.IsPublic,
		&joinCode, &period, &createdAt, &group.MemberCount); err != nil {
		return nil, err
	}
	if joinCode.Valid {
		code := joinCode.String
		group.JoinCode = &code
	}
	group.PeriodType = models.PeriodType(period)
	group.CreatedAt = time.UnixMilli(createdAt).UTC()
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO groups (id, name, description, created_by_id, is_public, join_code, period_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		group.ID, group.Name, group.Description, group.CreatedByID, group.IsPublic,
		nullableCode(group.JoinCode), string(group.PeriodType), group.CreatedAt.UnixMilli(),
	)
	if isUniqueViolation(err, "join_code") {
		return storage.ErrJoinCodeTaken
	}
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO group_memberships (id, group_id, user_id, role, joined_at) VALUES (?, ?, ?, ?, ?)",
		owner.ID, owner.GroupID, owner.UserID, string(owner.Role), owner.JoinedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return s.reload(ctx, group)
}

// GetGroup retrieves a group by ID.
func (s *Store) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+groupColumns+" FROM groups g WHERE g.id = ?", groupID)
	group, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

// UpdateGroup writes the mutable fields of a group and refreshes it from the database.
func (s *Store) UpdateGroup(ctx context.Context, group *models.Group) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE groups SET name = ?, description = ?, is_public = ?, join_code = ? WHERE id = ?",
		group.Name, group.Description, group.IsPublic, nullableCode(group.JoinCode), group.ID,
	)
	if isUniqueViolation(err, "join_code") {
		return storage.ErrJoinCodeTaken
	}
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	} else if n == 0 {
		return fmt.Errorf("group %s: %w", group.ID, storage.ErrNotFound)
	}

	return s.reload(ctx, group)
}

// DeleteGroup removes a group. Memberships go with it via ON DELETE CASCADE.
func (s *Store) DeleteGroup(ctx context.Context, groupID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	} else if n == 0 {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return nil
}

// SearchPublicGroups finds public groups whose name or description contains query.
func (s *Store) SearchPublicGroups(ctx context.Context, query string, limit int) ([]*models.Group, error) {
	pattern := "%" + escapeLike(query) + "%"
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+groupColumns+` FROM groups g
		 WHERE g.is_public = 1 AND (g.name LIKE ? ESCAPE '\' OR g.description LIKE ? ESCAPE '\')
		 ORDER BY g.name, g.id
		 LIMIT ?`,
		pattern, pattern, limit,
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

// reload refreshes group in place, including the derived member count.
func (s *Store) reload(ctx context.Context, group *models.Group) error {
	fresh, err := s.GetGroup(ctx, group.ID)
	if err != nil {
		return err
	}
	*group = *fresh
	return nil
}

func nullableCode(code *string) any {
	if code == nil || *code == "" {
		return nil
	}
	return *code
}

// escapeLike escapes LIKE wildcards so the query matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure mentioning column.
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	if sqliteErr.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return false
	}
	msg := sqliteErr.Error()
	return strings.Contains(msg, "UNIQUE") && strings.Contains(msg, column)
}
