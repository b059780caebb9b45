package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmynk/stepsquad/internal/models"
	"github.com/mmynk/stepsquad/internal/storage"
)

// CreateUser inserts a user, or refreshes the display name and avatar of an existing one.
// The identity subsystem owns accounts; this keeps the local directory in step with it.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, display_name, avatar_url, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			avatar_url = excluded.avatar_url
	`

	var avatar any
	if user.AvatarURL != "" {
		avatar = user.AvatarURL
	}

	_, err := s.db.ExecContext(ctx, query, user.ID, user.DisplayName, avatar, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT id, display_name, avatar_url FROM users WHERE id = ?`

	user := &models.User{}
	var avatar sql.NullString
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&user.ID, &user.DisplayName, &avatar)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	user.AvatarURL = avatar.String

	return user, nil
}

// GetUsers retrieves multiple users by their IDs.
// Users that don't exist are omitted from the result.
func (s *Store) GetUsers(ctx context.Context, userIDs []string) (map[string]*models.User, error) {
	users := make(map[string]*models.User, len(userIDs))
	if len(userIDs) == 0 {
		return users, nil
	}

	query := `SELECT id, display_name, avatar_url FROM users WHERE id IN (` + placeholders(len(userIDs)) + `)`

	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user := &models.User{}
		var avatar sql.NullString
		if err := rows.Scan(&user.ID, &user.DisplayName, &avatar); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.AvatarURL = avatar.String
		users[user.ID] = user
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// placeholders returns n comma-separated "?" for building IN clauses.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
