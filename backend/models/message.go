// Copyright (C) 2025 vanish.chat <dev@vanish.chat>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package models

import "time"

// Message content type tags. Content itself is an opaque encrypted blob.
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeFile  = "file"
)

// Message is a self-destructing message. ExpiresAt is computed once at
// append time (created_at + ttl) and never changes; a message with
// ExpiresAt <= now is expired and invisible on every read path whether
// or not the sweeper has purged it yet.
type Message struct {
	MessageID   string     `json:"message_id" db:"message_id"`
	ChatID      string     `json:"chat_id" db:"chat_id"`
	SenderID    string     `json:"sender_id" db:"sender_id"`
	RecipientID string     `json:"recipient_id" db:"recipient_id"`
	Content     []byte     `json:"content" db:"content"`
	MessageType string     `json:"message_type" db:"message_type"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at" db:"expires_at"`
	Delivered   bool       `json:"delivered" db:"delivered"`
	ReadAt      *time.Time `json:"read_at,omitempty" db:"read_at"`
}

// Expired reports whether the message is past its deadline at t.
func (m *Message) Expired(t time.Time) bool {
	return !m.ExpiresAt.After(t)
}
