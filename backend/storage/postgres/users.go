// Copyright (C) 2025 vanish.chat <dev@vanish.chat>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/vanishchat/vanish/backend/errors"
	"github.com/vanishchat/vanish/backend/models"
)

func (s *Store) CreateUser(ctx context.Context, username string, publicKey []byte) (*models.User, error) {
	if username == "" {
		return nil, apperrors.InvalidArg("username is required")
	}

	user := &models.User{
		UserID:    uuid.New().String(),
		Username:  username,
		PublicKey: publicKey,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, username, public_key, created_at)
		VALUES ($1, $2, $3, $4)`,
		user.UserID, user.Username, user.PublicKey, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.AlreadyExists("username already taken")
		}
		return nil, err
	}

	return user, nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, username, public_key, created_at
		FROM users WHERE user_id = $1`, userID).Scan(
		&user.UserID, &user.Username, &user.PublicKey, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("user not found")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// RenameUser changes the display name. Renaming is the only profile
// mutation; deletion does not exist.
func (s *Store) RenameUser(ctx context.Context, userID, username string) error {
	if username == "" {
		return apperrors.InvalidArg("username is required")
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET username = $2 WHERE user_id = $1`,
		userID, username)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("username already taken")
		}
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.NotFound("user not found")
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, username, public_key, created_at
		FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUsers(rows)
}

// SearchUsers matches usernames by case-insensitive prefix. The searching
// user is excluded, as is anyone with a block edge in either direction.
func (s *Store) SearchUsers(ctx context.Context, query, forUserID string) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.user_id, u.username, u.public_key, u.created_at
		FROM users u
		WHERE u.username ILIKE $1 || '%'
		  AND u.user_id <> $2
		  AND NOT EXISTS (
			SELECT 1 FROM blocks b
			WHERE (b.blocker_id = $2 AND b.blocked_id = u.user_id)
			   OR (b.blocker_id = u.user_id AND b.blocked_id = $2)
		  )
		ORDER BY u.username`,
		query, forUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUsers(rows)
}

func scanUsers(rows *sql.Rows) ([]models.User, error) {
	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.UserID, &user.Username, &user.PublicKey, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
