// Copyright (C) 2025 vanish.chat <dev@vanish.chat>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	apperrors "github.com/vanishchat/vanish/backend/errors"
	"github.com/vanishchat/vanish/backend/middleware"
	"github.com/vanishchat/vanish/backend/storage"
)

type BlockHandler struct {
	store storage.BlockStore
}

func NewBlockHandler(store storage.BlockStore) *BlockHandler {
	return &BlockHandler{store: store}
}

// Block creates a directed block edge from the caller. Existing chats
// and messages are left alone; only future creation and search
// visibility are affected.
func (h *BlockHandler) Block(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondError(w, apperrors.Unauthorized("missing identity"))
		return
	}

	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperrors.InvalidArg("invalid request body"))
		return
	}

	if err := h.store.CreateBlock(r.Context(), userID, req.UserID); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"status": "blocked"})
}

func (h *BlockHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondError(w, apperrors.Unauthorized("missing identity"))
		return
	}

	blockedID := mux.Vars(r)["userId"]
	if err := h.store.DeleteBlock(r.Context(), userID, blockedID); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "unblocked"})
}

func (h *BlockHandler) ListBlocks(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondError(w, apperrors.Unauthorized("missing identity"))
		return
	}

	blocks, err := h.store.ListBlocks(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"blocks": blocks,
		"count":  len(blocks),
	})
}
