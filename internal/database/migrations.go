package database

import (
	"context"
	"fmt"
	"log/slog"
)

// migrations are applied in order on startup. Each statement is idempotent
// so restarting the server against an existing database is safe.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		phone TEXT NOT NULL UNIQUE,
		email TEXT UNIQUE,
		name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS groups (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		purpose TEXT NOT NULL DEFAULT '',
		admin_id UUID NOT NULL REFERENCES users(id),
		min_contribution BIGINT NOT NULL,
		contribution_multiple BIGINT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'UGX',
		meeting_schedule TEXT NOT NULL DEFAULT '',
		total_balance BIGINT NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT true,
		allow_flexible_contributions BOOLEAN NOT NULL DEFAULT true,
		auto_approve_members BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS group_members (
		group_id UUID NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id),
		role TEXT NOT NULL DEFAULT 'member',
		joined_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (group_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS invitations (
		id UUID PRIMARY KEY,
		group_id UUID NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		code TEXT NOT NULL UNIQUE,
		invited_phone TEXT NOT NULL,
		invited_name TEXT NOT NULL,
		invited_by UUID NOT NULL REFERENCES users(id),
		method TEXT NOT NULL DEFAULT 'sms',
		status TEXT NOT NULL DEFAULT 'pending',
		message_id TEXT,
		last_error TEXT,
		sent_at TIMESTAMPTZ,
		accepted_by UUID REFERENCES users(id),
		accepted_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_invitations_group_status ON invitations (group_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_invitations_phone_status ON invitations (invited_phone, status)`,
	`CREATE TABLE IF NOT EXISTS join_requests (
		id UUID PRIMARY KEY,
		group_id UUID NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id),
		invitation_id UUID REFERENCES invitations(id) ON DELETE SET NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		admin_notes TEXT,
		requested_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		processed_at TIMESTAMPTZ,
		processed_by UUID REFERENCES users(id)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_join_requests_pending
		ON join_requests (group_id, user_id) WHERE status = 'pending'`,
	`CREATE TABLE IF NOT EXISTS contributions (
		id UUID PRIMARY KEY,
		group_id UUID NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id),
		amount BIGINT NOT NULL CHECK (amount > 0),
		provider TEXT NOT NULL,
		phone_number TEXT NOT NULL,
		transaction_id TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		completed_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_contributions_group ON contributions (group_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_contributions_user ON contributions (user_id, created_at DESC)`,
}

// Migrate applies the schema against the connected database.
func Migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	slog.Info("Database schema up to date", "statements", len(migrations))
	return nil
}
