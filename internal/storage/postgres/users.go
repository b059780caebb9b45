package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmynk/stepsquad/internal/models"
	"github.com/mmynk/stepsquad/internal/storage"
)

// CreateUser inserts a user, or refreshes the display name and avatar of an existing one.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	var avatar *string
	if user.AvatarURL != "" {
		avatar = &user.AvatarURL
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, display_name, avatar_url)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			avatar_url = EXCLUDED.avatar_url`,
		user.ID, user.DisplayName, avatar,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user := &models.User{}
	var avatar *string
	err := s.pool.QueryRow(ctx, "SELECT id, display_name, avatar_url FROM users WHERE id = $1", userID).
		Scan(&user.ID, &user.DisplayName, &avatar)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	if avatar != nil {
		user.AvatarURL = *avatar
	}
	return user, nil
}

// GetUsers retrieves multiple users by their IDs.
// Users that don't exist are omitted from the result.
func (s *Store) GetUsers(ctx context.Context, userIDs []string) (map[string]*models.User, error) {
	users := make(map[string]*models.User, len(userIDs))
	if len(userIDs) == 0 {
		return users, nil
	}

	rows, err := s.pool.Query(ctx,
		"SELECT id, display_name, avatar_url FROM users WHERE id = ANY($1)", userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user := &models.User{}
		var avatar *string
		if err := rows.Scan(&user.ID, &user.DisplayName, &avatar); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		if avatar != nil {
			user.AvatarURL = *avatar
		}
		users[user.ID] = user
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}
