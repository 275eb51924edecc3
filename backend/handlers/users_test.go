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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vanishchat/vanish/backend/errors"
	"github.com/vanishchat/vanish/backend/middleware"
	"github.com/vanishchat/vanish/backend/models"
	"github.com/vanishchat/vanish/backend/storage"
)

type stubUserStore struct {
	storage.UserStore
	create func(ctx context.Context, username string, publicKey []byte) (*models.User, error)
	search func(ctx context.Context, query, forUserID string) ([]models.User, error)
}

func (s *stubUserStore) CreateUser(ctx context.Context, username string, publicKey []byte) (*models.User, error) {
	return s.create(ctx, username, publicKey)
}

func (s *stubUserStore) SearchUsers(ctx context.Context, query, forUserID string) ([]models.User, error) {
	return s.search(ctx, query, forUserID)
}

type stubPresence struct {
	online map[string]bool
}

func (p *stubPresence) IsOnline(ctx context.Context, userID string) (bool, error) {
	return p.online[userID], nil
}

func (p *stubPresence) OnlineMap(ctx context.Context, userIDs []string) (map[string]bool, error) {
	return p.online, nil
}

func TestRegisterCreatesProfile(t *testing.T) {
	store := &stubUserStore{
		create: func(ctx context.Context, username string, publicKey []byte) (*models.User, error) {
			assert.Equal(t, "alice", username)
			return &models.User{UserID: "u1", Username: username, PublicKey: publicKey}, nil
		},
	}
	h := NewUserHandler(store, nil)

	body, _ := json.Marshal(map[string]interface{}{
		"username":   "alice",
		"public_key": []byte{0x01, 0x02},
	})
	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		User models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "u1", resp.User.UserID)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	store := &stubUserStore{
		create: func(ctx context.Context, username string, publicKey []byte) (*models.User, error) {
			return nil, apperrors.AlreadyExists("username already taken")
		},
	}
	h := NewUserHandler(store, nil)

	body, _ := json.Marshal(map[string]string{"username": "alice"})
	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewReader(body)))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSearchUsersRequiresQuery(t *testing.T) {
	h := NewUserHandler(&stubUserStore{}, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/search-users", nil)
	r = r.WithContext(middleware.WithUserID(r.Context(), "alice"))
	rec := httptest.NewRecorder()
	h.SearchUsers(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchUsersAnnotatesOnline(t *testing.T) {
	store := &stubUserStore{
		search: func(ctx context.Context, query, forUserID string) ([]models.User, error) {
			assert.Equal(t, "bo", query)
			assert.Equal(t, "alice", forUserID)
			return []models.User{
				{UserID: "u-bob", Username: "bob"},
				{UserID: "u-boris", Username: "boris"},
			}, nil
		},
	}
	presence := &stubPresence{online: map[string]bool{"u-bob": true}}
	h := NewUserHandler(store, presence)

	r := httptest.NewRequest(http.MethodGet, "/api/search-users?q=bo", nil)
	r = r.WithContext(middleware.WithUserID(r.Context(), "alice"))
	rec := httptest.NewRecorder()
	h.SearchUsers(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Users []models.User `json:"users"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Users, 2)
	assert.True(t, resp.Users[0].Online)
	assert.False(t, resp.Users[1].Online)
}
