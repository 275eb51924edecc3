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

// ResolveOrCreateChat finds the unique chat for the unordered pair
// {userX, userY}, creating it if none exists. The pair is normalized
// before touching the database, so both orderings hit the same row and
// the chats_pair_unique constraint guarantees a single winner under
// concurrent creation; the loser retries as a lookup.
func (s *Store) ResolveOrCreateChat(ctx context.Context, userX, userY string) (*models.Chat, error) {
	if userX == userY {
		return nil, apperrors.InvalidArg("cannot open a chat with yourself")
	}

	if _, err := s.GetUser(ctx, userX); err != nil {
		return nil, err
	}
	if _, err := s.GetUser(ctx, userY); err != nil {
		return nil, err
	}

	blocked, err := s.IsBlockedEither(ctx, userX, userY)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, apperrors.Blocked("chat not permitted between these users")
	}

	userA, userB := models.NormalizePair(userX, userY)

	chat, err := s.getChatByPair(ctx, userA, userB)
	if err == nil {
		return chat, nil
	}
	if !apperrors.Is(err, apperrors.CodeNotFound) {
		return nil, err
	}

	created := &models.Chat{
		ChatID:    uuid.New().String(),
		UserA:     userA,
		UserB:     userB,
		CreatedAt: time.Now().UTC(),
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO chats (chat_id, user_a, user_b, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_a, user_b) DO NOTHING`,
		created.ChatID, created.UserA, created.UserB, created.CreatedAt)
	if err != nil {
		return nil, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 1 {
		return created, nil
	}

	// Lost the race: another request inserted the pair first.
	return s.getChatByPair(ctx, userA, userB)
}

func (s *Store) getChatByPair(ctx context.Context, userA, userB string) (*models.Chat, error) {
	return s.scanChat(s.db.QueryRowContext(ctx, `
		SELECT chat_id, user_a, user_b, unread_a, unread_b,
		       hidden_for_a, hidden_for_b, created_at
		FROM chats WHERE user_a = $1 AND user_b = $2`,
		userA, userB))
}

func (s *Store) GetChat(ctx context.Context, chatID string) (*models.Chat, error) {
	return s.scanChat(s.db.QueryRowContext(ctx, `
		SELECT chat_id, user_a, user_b, unread_a, unread_b,
		       hidden_for_a, hidden_for_b, created_at
		FROM chats WHERE chat_id = $1`, chatID))
}

func (s *Store) scanChat(row *sql.Row) (*models.Chat, error) {
	var chat models.Chat
	err := row.Scan(&chat.ChatID, &chat.UserA, &chat.UserB,
		&chat.UnreadA, &chat.UnreadB,
		&chat.HiddenForA, &chat.HiddenForB, &chat.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("chat not found")
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// ListChatsForUser returns the user's visible chats, each annotated with
// the other participant, the most recent non-expired message, and the
// caller's unread slot, ordered by last activity.
func (s *Store) ListChatsForUser(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.chat_id,
		       CASE WHEN c.user_a = $1 THEN c.user_b ELSE c.user_a END,
		       CASE WHEN c.user_a = $1 THEN ub.username ELSE ua.username END,
		       CASE WHEN c.user_a = $1 THEN c.unread_a ELSE c.unread_b END,
		       c.created_at,
		       m.message_id, m.sender_id, m.recipient_id, m.content,
		       m.message_type, m.created_at, m.expires_at, m.delivered, m.read_at
		FROM chats c
		JOIN users ua ON ua.user_id = c.user_a
		JOIN users ub ON ub.user_id = c.user_b
		LEFT JOIN LATERAL (
			SELECT message_id, sender_id, recipient_id, content,
			       message_type, created_at, expires_at, delivered, read_at
			FROM messages
			WHERE chat_id = c.chat_id AND expires_at > $2
			ORDER BY created_at DESC
			LIMIT 1
		) m ON TRUE
		WHERE (c.user_a = $1 AND NOT c.hidden_for_a)
		   OR (c.user_b = $1 AND NOT c.hidden_for_b)
		ORDER BY COALESCE(m.created_at, c.created_at) DESC`,
		userID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []models.ChatSummary
	for rows.Next() {
		var sum models.ChatSummary
		var msgID, senderID, recipientID, msgType sql.NullString
		var content []byte
		var msgCreated, msgExpires, readAt sql.NullTime
		var delivered sql.NullBool

		err := rows.Scan(&sum.ChatID, &sum.PeerID, &sum.PeerName,
			&sum.UnreadCount, &sum.CreatedAt,
			&msgID, &senderID, &recipientID, &content,
			&msgType, &msgCreated, &msgExpires, &delivered, &readAt)
		if err != nil {
			return nil, err
		}

		if msgID.Valid {
			msg := &models.Message{
				MessageID:   msgID.String,
				ChatID:      sum.ChatID,
				SenderID:    senderID.String,
				RecipientID: recipientID.String,
				Content:     content,
				MessageType: msgType.String,
				CreatedAt:   msgCreated.Time,
				ExpiresAt:   msgExpires.Time,
				Delivered:   delivered.Bool,
			}
			if readAt.Valid {
				msg.ReadAt = &readAt.Time
			}
			sum.LastMessage = msg
		}

		summaries = append(summaries, sum)
	}

	return summaries, rows.Err()
}

// IncrementUnread bumps the unread counter of whichever slot recipientID
// occupies, in one UPDATE so concurrent deliveries never clobber each
// other's counts.
func (s *Store) IncrementUnread(ctx context.Context, chatID, recipientID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE chats
		SET unread_a = unread_a + CASE WHEN user_a = $2 THEN 1 ELSE 0 END,
		    unread_b = unread_b + CASE WHEN user_b = $2 THEN 1 ELSE 0 END
		WHERE chat_id = $1 AND (user_a = $2 OR user_b = $2)`,
		chatID, recipientID)
	if err != nil {
		return err
	}
	return requireParticipantRow(res)
}

// MarkChatRead zeroes only userID's slot. Marking an already-read chat
// is a no-op, not an error.
func (s *Store) MarkChatRead(ctx context.Context, chatID, userID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE chats
		SET unread_a = CASE WHEN user_a = $2 THEN 0 ELSE unread_a END,
		    unread_b = CASE WHEN user_b = $2 THEN 0 ELSE unread_b END
		WHERE chat_id = $1 AND (user_a = $2 OR user_b = $2)`,
		chatID, userID)
	if err != nil {
		return err
	}
	return requireParticipantRow(res)
}

func (s *Store) UnreadFor(ctx context.Context, chatID, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT CASE WHEN user_a = $2 THEN unread_a ELSE unread_b END
		FROM chats
		WHERE chat_id = $1 AND (user_a = $2 OR user_b = $2)`,
		chatID, userID).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, apperrors.NotFound("chat not found for user")
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

// HideChat sets userID's hidden marker. The chat and its messages
// survive; only this participant's listing is affected.
func (s *Store) HideChat(ctx context.Context, chatID, userID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE chats
		SET hidden_for_a = hidden_for_a OR (user_a = $2),
		    hidden_for_b = hidden_for_b OR (user_b = $2)
		WHERE chat_id = $1 AND (user_a = $2 OR user_b = $2)`,
		chatID, userID)
	if err != nil {
		return err
	}
	return requireParticipantRow(res)
}

func requireParticipantRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.NotFound("chat not found for user")
	}
	return nil
}
