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
	"context"
	"encoding/json"
	"net/http"

	apperrors "github.com/vanishchat/vanish/backend/errors"
	"github.com/vanishchat/vanish/backend/middleware"
	"github.com/vanishchat/vanish/backend/models"
	"github.com/vanishchat/vanish/backend/storage"
)

// PresenceReader answers online flags for user listings.
type PresenceReader interface {
	IsOnline(ctx context.Context, userID string) (bool, error)
	OnlineMap(ctx context.Context, userIDs []string) (map[string]bool, error)
}

type UserHandler struct {
	store    storage.UserStore
	presence PresenceReader
}

func NewUserHandler(store storage.UserStore, presence PresenceReader) *UserHandler {
	return &UserHandler{store: store, presence: presence}
}

// Register creates a profile. The public key blob is stored as-is for
// the encryption layer; the server never interprets it.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username  string `json:"username"`
		PublicKey []byte `json:"public_key"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperrors.InvalidArg("invalid request body"))
		return
	}

	user, err := h.store.CreateUser(r.Context(), req.Username, req.PublicKey)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"user": user,
	})
}

// Rename changes the authenticated user's display name.
func (h *UserHandler) Rename(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondError(w, apperrors.Unauthorized("missing identity"))
		return
	}

	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperrors.InvalidArg("invalid request body"))
		return
	}

	if err := h.store.RenameUser(r.Context(), userID, req.Username); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}

// ListUsers returns every profile annotated with its online flag.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	h.annotateOnline(r.Context(), users)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"count": len(users),
	})
}

// SearchUsers matches usernames, excluding the caller and anyone with a
// block edge in either direction.
func (h *UserHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondError(w, apperrors.Unauthorized("missing identity"))
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, apperrors.InvalidArg("q parameter is required"))
		return
	}

	users, err := h.store.SearchUsers(r.Context(), query, userID)
	if err != nil {
		respondError(w, err)
		return
	}

	h.annotateOnline(r.Context(), users)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"count": len(users),
	})
}

func (h *UserHandler) annotateOnline(ctx context.Context, users []models.User) {
	if h.presence == nil || len(users) == 0 {
		return
	}

	ids := make([]string, len(users))
	for i := range users {
		ids[i] = users[i].UserID
	}

	online, err := h.presence.OnlineMap(ctx, ids)
	if err != nil {
		// Presence is advisory; the listing is still correct without it.
		return
	}
	for i := range users {
		users[i].Online = online[users[i].UserID]
	}
}
