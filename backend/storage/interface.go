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

package storage

import (
	"context"

	"github.com/vanishchat/vanish/backend/models"
)

type UserStore interface {
	CreateUser(ctx context.Context, username string, publicKey []byte) (*models.User, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	RenameUser(ctx context.Context, userID, username string) error
	ListUsers(ctx context.Context) ([]models.User, error)
	// SearchUsers matches usernames against a query, excluding the
	// searching user and anyone with a block edge in either direction.
	SearchUsers(ctx context.Context, query, forUserID string) ([]models.User, error)
}

type ChatStore interface {
	// ResolveOrCreateChat returns the unique chat for the unordered pair
	// {userA, userB}, creating it if absent. Exactly one chat row results
	// even under concurrent creation from both orderings.
	ResolveOrCreateChat(ctx context.Context, userA, userB string) (*models.Chat, error)
	GetChat(ctx context.Context, chatID string) (*models.Chat, error)
	ListChatsForUser(ctx context.Context, userID string) ([]models.ChatSummary, error)
	// IncrementUnread atomically bumps the counter of whichever slot
	// recipientID occupies in the chat.
	IncrementUnread(ctx context.Context, chatID, recipientID string) error
	// MarkChatRead zeroes only userID's slot counter; zero unread is a no-op.
	MarkChatRead(ctx context.Context, chatID, userID string) error
	UnreadFor(ctx context.Context, chatID, userID string) (int, error)
	// HideChat sets the per-participant hidden marker; the other
	// participant's view is unaffected.
	HideChat(ctx context.Context, chatID, userID string) error
}

type MessageStore interface {
	// AppendMessage persists a message expiring ttlSeconds after creation.
	AppendMessage(ctx context.Context, chatID, senderID, recipientID string, content []byte, messageType string, ttlSeconds int64) (*models.Message, error)
	// ListActiveMessages returns non-expired messages oldest first. The
	// expiry predicate is applied here, not left to the sweeper.
	ListActiveMessages(ctx context.Context, chatID string) ([]models.Message, error)
	MarkMessageDelivered(ctx context.Context, messageID string) error
	// PurgeExpired deletes every expired message across all chats and
	// returns the count. Chat rows are never touched.
	PurgeExpired(ctx context.Context) (int64, error)
	// ClearChat deletes all of a chat's messages immediately.
	ClearChat(ctx context.Context, chatID string) error
}

type BlockStore interface {
	CreateBlock(ctx context.Context, blockerID, blockedID string) error
	DeleteBlock(ctx context.Context, blockerID, blockedID string) error
	ListBlocks(ctx context.Context, blockerID string) ([]models.Block, error)
	// IsBlockedEither reports whether a block edge exists in either
	// direction between the two users.
	IsBlockedEither(ctx context.Context, userX, userY string) (bool, error)
}

type Store interface {
	UserStore
	ChatStore
	MessageStore
	BlockStore
}
