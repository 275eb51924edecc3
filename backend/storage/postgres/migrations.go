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

func (s *Store) Migrate() error {
	migrations := []string{
		// Users table. Rows are never deleted; usernames may be renamed.
		`CREATE TABLE IF NOT EXISTS users (
			user_id VARCHAR(255) PRIMARY KEY,
			username VARCHAR(255) NOT NULL UNIQUE,
			public_key BYTEA,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// Chats table. The participant pair is stored normalized
		// (user_a < user_b) so the uniqueness constraint covers the
		// unordered pair: at most one chat per pair, enforced by the
		// database even under concurrent creation.
		`CREATE TABLE IF NOT EXISTS chats (
			chat_id VARCHAR(255) PRIMARY KEY,
			user_a VARCHAR(255) NOT NULL REFERENCES users(user_id),
			user_b VARCHAR(255) NOT NULL REFERENCES users(user_id),
			unread_a INTEGER NOT NULL DEFAULT 0,
			unread_b INTEGER NOT NULL DEFAULT 0,
			hidden_for_a BOOLEAN NOT NULL DEFAULT FALSE,
			hidden_for_b BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT chats_pair_ordered CHECK (user_a < user_b),
			CONSTRAINT chats_pair_unique UNIQUE (user_a, user_b)
		)`,

		// Messages table. expires_at is written once at append time.
		// recipient_id is redundant with the chat pair but kept for
		// fast filtering.
		`CREATE TABLE IF NOT EXISTS messages (
			message_id VARCHAR(255) PRIMARY KEY,
			chat_id VARCHAR(255) NOT NULL REFERENCES chats(chat_id) ON DELETE CASCADE,
			sender_id VARCHAR(255) NOT NULL,
			recipient_id VARCHAR(255) NOT NULL,
			content BYTEA NOT NULL,
			message_type VARCHAR(20) NOT NULL DEFAULT 'text'
				CHECK (message_type IN ('text', 'image', 'file')),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			expires_at TIMESTAMP NOT NULL,
			delivered BOOLEAN NOT NULL DEFAULT FALSE,
			read_at TIMESTAMP
		)`,

		// Index for listing a chat's active messages in order
		`CREATE INDEX IF NOT EXISTS idx_messages_chat_created
		ON messages(chat_id, created_at)`,

		// Index for the sweeper's expiry scan
		`CREATE INDEX IF NOT EXISTS idx_messages_expiry
		ON messages(expires_at)`,

		// Block relations: directed blocker -> blocked edges
		`CREATE TABLE IF NOT EXISTS blocks (
			blocker_id VARCHAR(255) NOT NULL REFERENCES users(user_id),
			blocked_id VARCHAR(255) NOT NULL REFERENCES users(user_id),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (blocker_id, blocked_id)
		)`,

		// Index for reverse-direction block checks
		`CREATE INDEX IF NOT EXISTS idx_blocks_blocked
		ON blocks(blocked_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
