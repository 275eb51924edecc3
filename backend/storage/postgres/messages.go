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

	"github.com/google/uuid"

	apperrors "github.com/vanishchat/vanish/backend/errors"
	"github.com/vanishchat/vanish/backend/models"
)

// AppendMessage persists a message with its expiry deadline fixed at
// creation time. The deadline is immutable from here on.
func (s *Store) AppendMessage(ctx context.Context, chatID, senderID, recipientID string, content []byte, messageType string, ttlSeconds int64) (*models.Message, error) {
	if ttlSeconds <= 0 {
		return nil, apperrors.InvalidTTL("ttl must be positive")
	}
	if messageType == "" {
		messageType = models.MessageTypeText
	}

	now := time.Now().UTC()
	msg := &models.Message{
		MessageID:   uuid.New().String(),
		ChatID:      chatID,
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		MessageType: messageType,
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Duration(ttlSeconds) * time.Second),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (message_id, chat_id, sender_id, recipient_id,
			content, message_type, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		msg.MessageID, msg.ChatID, msg.SenderID, msg.RecipientID,
		msg.Content, msg.MessageType, msg.CreatedAt, msg.ExpiresAt)
	if err != nil {
		return nil, err
	}

	return msg, nil
}

// ListActiveMessages returns a chat's non-expired messages oldest first.
// The expiry filter runs here at read time: a message past its deadline
// is invisible even before the sweeper has purged it.
func (s *Store) ListActiveMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT message_id, chat_id, sender_id, recipient_id, content,
		       message_type, created_at, expires_at, delivered, read_at
		FROM messages
		WHERE chat_id = $1 AND expires_at > $2
		ORDER BY created_at ASC`,
		chatID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(&msg.MessageID, &msg.ChatID, &msg.SenderID,
			&msg.RecipientID, &msg.Content, &msg.MessageType,
			&msg.CreatedAt, &msg.ExpiresAt, &msg.Delivered, &msg.ReadAt)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

func (s *Store) MarkMessageDelivered(ctx context.Context, messageID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE messages SET delivered = TRUE WHERE message_id = $1`,
		messageID)
	return err
}

// PurgeExpired deletes every message past its deadline, across all
// chats, and reports how many went. Deleting is duplicate-safe: a row
// already purged by a concurrent pass simply is not there to delete.
// Chat rows, unread counters and block relations are never touched.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM messages WHERE expires_at <= $1`,
		time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ClearChat wipes a chat's messages immediately, independent of expiry.
// The chat row survives.
func (s *Store) ClearChat(ctx context.Context, chatID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM messages WHERE chat_id = $1`, chatID)
	return err
}
