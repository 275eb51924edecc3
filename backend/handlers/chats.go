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

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	apperrors "github.com/vanishchat/vanish/backend/errors"
	"github.com/vanishchat/vanish/backend/middleware"
	"github.com/vanishchat/vanish/backend/models"
	"github.com/vanishchat/vanish/backend/storage"
)

type ChatHandler struct {
	store storage.Store
}

func NewChatHandler(store storage.Store) *ChatHandler {
	return &ChatHandler{store: store}
}

// ListChats returns the caller's visible chats, each annotated with the
// other participant, the latest active message and the caller's unread
// count. This is the single authoritative chat-list endpoint.
func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondError(w, apperrors.Unauthorized("missing identity"))
		return
	}

	chats, err := h.store.ListChatsForUser(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"chats": chats,
		"count": len(chats),
	})
}

// ResolveChat finds or creates the single chat between the caller and a
// peer. Both orderings of a pair land on the same chat.
func (h *ChatHandler) ResolveChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondError(w, apperrors.Unauthorized("missing identity"))
		return
	}

	var req struct {
		PeerID string `json:"peer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperrors.InvalidArg("invalid request body"))
		return
	}

	chat, err := h.store.ResolveOrCreateChat(r.Context(), userID, req.PeerID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"chat": chat,
	})
}

// ListMessages returns the chat's non-expired messages, oldest first.
// Expired messages are invisible here whether or not the sweeper ran.
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	chat, _, err := h.participantChat(r)
	if err != nil {
		respondError(w, err)
		return
	}

	messages, err := h.store.ListActiveMessages(r.Context(), chat.ChatID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"messages": messages,
		"count":    len(messages),
	})
}

// MarkRead zeroes the caller's unread counter for the chat. Marking an
// already-read chat succeeds as a no-op.
func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	chat, userID, err := h.participantChat(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.store.MarkChatRead(r.Context(), chat.ChatID, userID); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

// Unread reports the caller's unread count for the chat.
func (h *ChatHandler) Unread(w http.ResponseWriter, r *http.Request) {
	chat, userID, err := h.participantChat(r)
	if err != nil {
		respondError(w, err)
		return
	}

	count, err := h.store.UnreadFor(r.Context(), chat.ChatID, userID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{"unread_count": count})
}

// ClearChat wipes the chat's messages immediately. The chat itself
// survives and keeps resolving to the same id.
func (h *ChatHandler) ClearChat(w http.ResponseWriter, r *http.Request) {
	chat, _, err := h.participantChat(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.store.ClearChat(r.Context(), chat.ChatID); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// HideChat hides the chat from the caller's list only. The other
// participant's view is untouched.
func (h *ChatHandler) HideChat(w http.ResponseWriter, r *http.Request) {
	chat, userID, err := h.participantChat(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.store.HideChat(r.Context(), chat.ChatID, userID); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "hidden"})
}

// participantChat loads the routed chat and authorizes the caller as
// one of its two participants.
func (h *ChatHandler) participantChat(r *http.Request) (*models.Chat, string, error) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		return nil, "", apperrors.Unauthorized("missing identity")
	}

	chatID := mux.Vars(r)["chatId"]
	chat, err := h.store.GetChat(r.Context(), chatID)
	if err != nil {
		return nil, "", err
	}
	if !chat.HasParticipant(userID) {
		return nil, "", apperrors.Unauthorized("not a participant of this chat")
	}

	return chat, userID, nil
}
