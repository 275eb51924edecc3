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
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vanishchat/vanish/backend/errors"
	"github.com/vanishchat/vanish/backend/middleware"
	"github.com/vanishchat/vanish/backend/models"
	"github.com/vanishchat/vanish/backend/storage"
)

// stubStore overrides only the methods a test touches; calling anything
// else panics on the embedded nil interface, which is the point.
type stubStore struct {
	storage.Store
	getChat    func(ctx context.Context, chatID string) (*models.Chat, error)
	listActive func(ctx context.Context, chatID string) ([]models.Message, error)
	markRead   func(ctx context.Context, chatID, userID string) error
	unreadFor  func(ctx context.Context, chatID, userID string) (int, error)
	resolve    func(ctx context.Context, userX, userY string) (*models.Chat, error)
	clearChat  func(ctx context.Context, chatID string) error
	hideChat   func(ctx context.Context, chatID, userID string) error
}

func (s *stubStore) GetChat(ctx context.Context, chatID string) (*models.Chat, error) {
	return s.getChat(ctx, chatID)
}

func (s *stubStore) ListActiveMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	return s.listActive(ctx, chatID)
}

func (s *stubStore) MarkChatRead(ctx context.Context, chatID, userID string) error {
	return s.markRead(ctx, chatID, userID)
}

func (s *stubStore) UnreadFor(ctx context.Context, chatID, userID string) (int, error) {
	return s.unreadFor(ctx, chatID, userID)
}

func (s *stubStore) ResolveOrCreateChat(ctx context.Context, userX, userY string) (*models.Chat, error) {
	return s.resolve(ctx, userX, userY)
}

func (s *stubStore) ClearChat(ctx context.Context, chatID string) error {
	return s.clearChat(ctx, chatID)
}

func (s *stubStore) HideChat(ctx context.Context, chatID, userID string) error {
	return s.hideChat(ctx, chatID, userID)
}

func chatBetween(userX, userY string) func(ctx context.Context, chatID string) (*models.Chat, error) {
	a, b := models.NormalizePair(userX, userY)
	return func(ctx context.Context, chatID string) (*models.Chat, error) {
		return &models.Chat{ChatID: chatID, UserA: a, UserB: b, CreatedAt: time.Now().UTC()}, nil
	}
}

// chatRequest builds an authenticated request routed at the given chat.
func chatRequest(method, userID, chatID string, body []byte) *http.Request {
	r := httptest.NewRequest(method, "/api/chats/"+chatID, bytes.NewReader(body))
	r = r.WithContext(middleware.WithUserID(r.Context(), userID))
	return mux.SetURLVars(r, map[string]string{"chatId": chatID})
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestListMessagesReturnsActiveMessages(t *testing.T) {
	store := &stubStore{
		getChat: chatBetween("alice", "bob"),
		listActive: func(ctx context.Context, chatID string) ([]models.Message, error) {
			return []models.Message{
				{MessageID: "m1", ChatID: chatID},
				{MessageID: "m2", ChatID: chatID},
			}, nil
		},
	}
	h := NewChatHandler(store)

	rec := httptest.NewRecorder()
	h.ListMessages(rec, chatRequest(http.MethodGet, "alice", "chat-1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Messages []models.Message `json:"messages"`
		Count    int              `json:"count"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Messages, 2)
	assert.Equal(t, "m1", body.Messages[0].MessageID)
}

func TestListMessagesRejectsNonParticipant(t *testing.T) {
	store := &stubStore{getChat: chatBetween("alice", "bob")}
	h := NewChatHandler(store)

	rec := httptest.NewRecorder()
	h.ListMessages(rec, chatRequest(http.MethodGet, "mallory", "chat-1", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, string(apperrors.CodeUnauthorized), body["code"])
}

func TestMarkReadIsIdempotent(t *testing.T) {
	calls := 0
	store := &stubStore{
		getChat: chatBetween("alice", "bob"),
		markRead: func(ctx context.Context, chatID, userID string) error {
			calls++
			assert.Equal(t, "alice", userID)
			return nil
		},
	}
	h := NewChatHandler(store)

	// Marking twice succeeds both times; zeroing zero is a no-op.
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.MarkRead(rec, chatRequest(http.MethodPost, "alice", "chat-1", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 2, calls)
}

func TestUnreadReportsCallersSlot(t *testing.T) {
	store := &stubStore{
		getChat: chatBetween("alice", "bob"),
		unreadFor: func(ctx context.Context, chatID, userID string) (int, error) {
			assert.Equal(t, "bob", userID)
			return 4, nil
		},
	}
	h := NewChatHandler(store)

	rec := httptest.NewRecorder()
	h.Unread(rec, chatRequest(http.MethodGet, "bob", "chat-1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]int
	decodeBody(t, rec, &body)
	assert.Equal(t, 4, body["unread_count"])
}

func TestResolveChatPassesCallerAndPeer(t *testing.T) {
	var gotX, gotY string
	store := &stubStore{
		resolve: func(ctx context.Context, userX, userY string) (*models.Chat, error) {
			gotX, gotY = userX, userY
			a, b := models.NormalizePair(userX, userY)
			return &models.Chat{ChatID: "chat-1", UserA: a, UserB: b}, nil
		},
	}
	h := NewChatHandler(store)

	body, _ := json.Marshal(map[string]string{"peer_id": "alice"})
	r := httptest.NewRequest(http.MethodPost, "/api/chats", bytes.NewReader(body))
	r = r.WithContext(middleware.WithUserID(r.Context(), "bob"))
	rec := httptest.NewRecorder()
	h.ResolveChat(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bob", gotX)
	assert.Equal(t, "alice", gotY)
	var resp struct {
		Chat models.Chat `json:"chat"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, "chat-1", resp.Chat.ChatID)
}

func TestResolveChatBlockedPair(t *testing.T) {
	store := &stubStore{
		resolve: func(ctx context.Context, userX, userY string) (*models.Chat, error) {
			return nil, apperrors.Blocked("chat not permitted between these users")
		},
	}
	h := NewChatHandler(store)

	body, _ := json.Marshal(map[string]string{"peer_id": "bob"})
	r := httptest.NewRequest(http.MethodPost, "/api/chats", bytes.NewReader(body))
	r = r.WithContext(middleware.WithUserID(r.Context(), "alice"))
	rec := httptest.NewRecorder()
	h.ResolveChat(rec, r)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var resp map[string]string
	decodeBody(t, rec, &resp)
	assert.Equal(t, string(apperrors.CodeBlocked), resp["code"])
}

func TestListChatsRequiresIdentity(t *testing.T) {
	h := NewChatHandler(&stubStore{})

	r := httptest.NewRequest(http.MethodGet, "/api/chats", nil)
	rec := httptest.NewRecorder()
	h.ListChats(rec, r)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHideChatOnlyTouchesCallersSide(t *testing.T) {
	var hiddenFor string
	store := &stubStore{
		getChat: chatBetween("alice", "bob"),
		hideChat: func(ctx context.Context, chatID, userID string) error {
			hiddenFor = userID
			return nil
		},
	}
	h := NewChatHandler(store)

	rec := httptest.NewRecorder()
	h.HideChat(rec, chatRequest(http.MethodDelete, "alice", "chat-1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", hiddenFor)
}

func TestClearChatWipesMessages(t *testing.T) {
	cleared := ""
	store := &stubStore{
		getChat: chatBetween("alice", "bob"),
		clearChat: func(ctx context.Context, chatID string) error {
			cleared = chatID
			return nil
		},
	}
	h := NewChatHandler(store)

	rec := httptest.NewRecorder()
	h.ClearChat(rec, chatRequest(http.MethodDelete, "alice", "chat-1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "chat-1", cleared)
}
