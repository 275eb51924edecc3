// Copyright (C) 2025 vanish.chat <dev@vanish.chat>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package ws

import "github.com/vanishchat/vanish/backend/models"

// Outbound event types. A recipient's connections get new_message; the
// sender's own connections get message_sent instead, so a client renders
// its own message exactly once and never as an inbound broadcast.
const (
	EventNewMessage  = "new_message"
	EventMessageSent = "message_sent"
	EventError       = "error"
)

// Inbound intent types.
const (
	IntentJoin     = "join"
	IntentMessage  = "message"
	IntentMarkRead = "mark_read"
)

// Event is a server-push frame.
type Event struct {
	Type    string          `json:"type"`
	Message *models.Message `json:"message,omitempty"`
	Code    string          `json:"code,omitempty"`
	Detail  string          `json:"detail,omitempty"`
}

// Intent is a client frame. The sender identity is never taken from the
// frame itself; it comes from the connection's joined identity.
type Intent struct {
	Type        string `json:"type"`
	UserID      string `json:"userId,omitempty"`
	RecipientID string `json:"recipientId,omitempty"`
	ChatID      string `json:"chatId,omitempty"`
	Content     []byte `json:"content,omitempty"`
	MessageType string `json:"messageType,omitempty"`
	TTL         int64  `json:"ttl,omitempty"`
}
