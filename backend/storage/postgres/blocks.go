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
	"time"

	apperrors "github.com/vanishchat/vanish/backend/errors"
	"github.com/vanishchat/vanish/backend/models"
)

func (s *Store) CreateBlock(ctx context.Context, blockerID, blockedID string) error {
	if blockerID == blockedID {
		return apperrors.InvalidArg("cannot block yourself")
	}

	if _, err := s.GetUser(ctx, blockedID); err != nil {
		return err
	}

	// Re-blocking an already blocked user is a no-op.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blocks (blocker_id, blocked_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (blocker_id, blocked_id) DO NOTHING`,
		blockerID, blockedID, time.Now().UTC())
	return err
}

func (s *Store) DeleteBlock(ctx context.Context, blockerID, blockedID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM blocks WHERE blocker_id = $1 AND blocked_id = $2`,
		blockerID, blockedID)
	return err
}

func (s *Store) ListBlocks(ctx context.Context, blockerID string) ([]models.Block, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT blocker_id, blocked_id, created_at
		FROM blocks WHERE blocker_id = $1
		ORDER BY created_at DESC`, blockerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []models.Block
	for rows.Next() {
		var block models.Block
		if err := rows.Scan(&block.BlockerID, &block.BlockedID, &block.CreatedAt); err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	return blocks, rows.Err()
}

// IsBlockedEither checks for a block edge in either direction between
// two users. The resolver refuses chat creation when one exists.
func (s *Store) IsBlockedEither(ctx context.Context, userX, userY string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM blocks
			WHERE (blocker_id = $1 AND blocked_id = $2)
			   OR (blocker_id = $2 AND blocked_id = $1)
		)`, userX, userY).Scan(&exists)
	return exists, err
}
