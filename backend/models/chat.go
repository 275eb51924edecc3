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

package models

import "time"

// Chat is the single persistent container for messages between an
// unordered pair of users. Participants are stored normalized
// (UserA < UserB) so that lookup is order-independent and the
// (user_a, user_b) uniqueness constraint holds for the pair itself,
// not for the order the participants happened to be named in.
type Chat struct {
	ChatID     string    `json:"chat_id" db:"chat_id"`
	UserA      string    `json:"user_a" db:"user_a"`
	UserB      string    `json:"user_b" db:"user_b"`
	UnreadA    int       `json:"unread_a" db:"unread_a"`
	UnreadB    int       `json:"unread_b" db:"unread_b"`
	HiddenForA bool      `json:"-" db:"hidden_for_a"`
	HiddenForB bool      `json:"-" db:"hidden_for_b"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// NormalizePair orders two user ids into the canonical (lesser, greater)
// slots. Both orderings of the same pair normalize identically.
func NormalizePair(x, y string) (userA, userB string) {
	if x < y {
		return x, y
	}
	return y, x
}

// Other returns the participant that is not userID.
func (c *Chat) Other(userID string) string {
	if c.UserA == userID {
		return c.UserB
	}
	return c.UserA
}

// HasParticipant reports whether userID occupies either slot.
func (c *Chat) HasParticipant(userID string) bool {
	return c.UserA == userID || c.UserB == userID
}

// UnreadFor reads the counter of whichever slot userID occupies.
func (c *Chat) UnreadFor(userID string) int {
	if c.UserA == userID {
		return c.UnreadA
	}
	return c.UnreadB
}

// ChatSummary is a chat-list entry: the chat annotated with the other
// participant, the most recent non-expired message, and the caller's
// unread count.
type ChatSummary struct {
	ChatID      string    `json:"chat_id"`
	PeerID      string    `json:"peer_id"`
	PeerName    string    `json:"peer_name"`
	UnreadCount int       `json:"unread_count"`
	LastMessage *Message  `json:"last_message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
