package db

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5"

	"github.com/agentpress/agentpress/internal/auth"
	"github.com/agentpress/agentpress/internal/errors"
)

// InsertAdmin creates an admin user.
func (s *Store) InsertAdmin(ctx context.Context, email, passwordHash string) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO admin_users (email, password_hash) VALUES ($1, $2)", email, passwordHash)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetAdminByEmail returns the admin with the given email, or (nil, nil)
// when none exists.
func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*auth.Admin, error) {
	var a auth.Admin
	err := s.pool.QueryRow(ctx,
		"SELECT id, email, password_hash FROM admin_users WHERE email = $1", email,
	).Scan(&a.ID, &a.Email, &a.PasswordHash)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &a, nil
}

// UpdateAdminPassword replaces an admin's password hash.
func (s *Store) UpdateAdminPassword(ctx context.Context, email, passwordHash string) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE admin_users SET password_hash = $1, updated_at = NOW() WHERE email = $2",
		passwordHash, email)
	if err != nil {
		return errors.NewInternal(err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NewNotFound(email)
	}
	return nil
}
