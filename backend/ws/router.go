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

package ws

import (
	"context"

	"github.com/rs/zerolog"

	apperrors "github.com/vanishchat/vanish/backend/errors"
	"github.com/vanishchat/vanish/backend/models"
	"github.com/vanishchat/vanish/backend/storage"
)

// Router runs the real-time send pipeline: resolve the chat, persist the
// message, count it unread, then push. Persistence always precedes the
// push, so a missed push self-heals on the recipient's next list fetch.
type Router struct {
	store storage.Store
	hub   *Hub
	log   zerolog.Logger
}

func NewRouter(store storage.Store, hub *Hub, log zerolog.Logger) *Router {
	return &Router{store: store, hub: hub, log: log}
}

// SendRequest carries one message send intent. ChatID is an optional
// client hint; the chat is always resolved from the participant pair and
// a mismatched hint is rejected rather than trusted.
type SendRequest struct {
	RecipientID string
	ChatID      string
	Content     []byte
	MessageType string
	TTLSeconds  int64
}

// Join binds the connection to userID and registers it. Multiple
// connections per user are additive.
func (r *Router) Join(c *Client, userID string) error {
	if userID == "" {
		return apperrors.InvalidArg("userId is required")
	}
	if _, err := r.store.GetUser(context.Background(), userID); err != nil {
		return err
	}

	c.userID = userID
	c.joined = true
	r.hub.Register(c)

	r.log.Debug().Str("user_id", userID).Msg("connection joined")
	return nil
}

// Send appends a message and fans it out. The recipient's connections
// each get one new_message; the sender's connections get a message_sent
// ack and never a new_message echo. An offline recipient still gets the
// durable message and the unread bump; only the push is skipped.
func (r *Router) Send(senderID string, req SendRequest) (*models.Message, error) {
	ctx := context.Background()

	chat, err := r.store.ResolveOrCreateChat(ctx, senderID, req.RecipientID)
	if err != nil {
		return nil, err
	}

	// A stale or forged chatId must not cross-route messages between
	// unrelated pairs; the pair-resolved chat is authoritative.
	if req.ChatID != "" && req.ChatID != chat.ChatID {
		return nil, apperrors.Unauthorized("chatId does not match the participant pair")
	}

	msg, err := r.store.AppendMessage(ctx, chat.ChatID, senderID, req.RecipientID,
		req.Content, req.MessageType, req.TTLSeconds)
	if err != nil {
		return nil, err
	}

	if err := r.store.IncrementUnread(ctx, chat.ChatID, req.RecipientID); err != nil {
		// The message is already durable; a lost badge increment is
		// not worth failing the send over.
		r.log.Error().Err(err).Str("chat_id", chat.ChatID).Msg("unread increment failed")
	}

	if r.hub.HasConnections(req.RecipientID) {
		msg.Delivered = true
		if err := r.store.MarkMessageDelivered(ctx, msg.MessageID); err != nil {
			r.log.Warn().Err(err).Str("message_id", msg.MessageID).Msg("delivered flag update failed")
		}
	}

	r.hub.SendToUser(req.RecipientID, &Event{Type: EventNewMessage, Message: msg})
	r.hub.SendToUser(senderID, &Event{Type: EventMessageSent, Message: msg})

	r.log.Debug().
		Str("message_id", msg.MessageID).
		Str("chat_id", chat.ChatID).
		Str("sender_id", senderID).
		Str("recipient_id", req.RecipientID).
		Bool("delivered", msg.Delivered).
		Msg("message routed")

	return msg, nil
}

// MarkRead zeroes the acting user's unread slot for the chat.
func (r *Router) MarkRead(userID, chatID string) error {
	ctx := context.Background()

	chat, err := r.store.GetChat(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.HasParticipant(userID) {
		return apperrors.Unauthorized("not a participant of this chat")
	}

	return r.store.MarkChatRead(ctx, chatID, userID)
}

// errorEvent maps a pipeline failure to the undelivered-message
// indication pushed back to the sending connection.
func errorEvent(err error) *Event {
	code := apperrors.CodeOf(err)
	detail := "message could not be delivered"
	if code != apperrors.CodeInternal {
		detail = err.Error()
	}
	return &Event{Type: EventError, Code: string(code), Detail: detail}
}
