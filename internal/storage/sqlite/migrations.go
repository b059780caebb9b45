package sqlite

import (
	"context"
	"database/sql"
)

// schema sets up the database. It runs on startup and is idempotent.
// groups must be created before group_memberships because of the foreign key.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    display_name TEXT NOT NULL,
    avatar_url TEXT,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS groups (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_by_id TEXT NOT NULL,
    is_public INTEGER NOT NULL,
    join_code TEXT UNIQUE,
    period_type TEXT NOT NULL CHECK (period_type IN ('daily', 'weekly', 'monthly')),
    created_at INTEGER NOT NULL,
    CHECK ((is_public = 1 AND join_code IS NULL) OR (is_public = 0 AND join_code IS NOT NULL))
);

CREATE TABLE IF NOT EXISTS group_memberships (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    role TEXT NOT NULL CHECK (role IN ('owner', 'admin', 'member')),
    joined_at INTEGER NOT NULL,
    UNIQUE (group_id, user_id),
    FOREIGN KEY (group_id) REFERENCES groups(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS step_entries (
    user_id TEXT NOT NULL,
    step_date TEXT NOT NULL,
    steps INTEGER NOT NULL,
    distance_meters REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (user_id, step_date)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_group_memberships_owner ON group_memberships(group_id) WHERE role = 'owner';
CREATE INDEX IF NOT EXISTS idx_group_memberships_user_id ON group_memberships(user_id);
CREATE INDEX IF NOT EXISTS idx_groups_public_name ON groups(is_public, name);
`

// runMigrations executes the schema setup.
func runMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
