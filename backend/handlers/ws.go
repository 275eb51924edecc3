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
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/vanishchat/vanish/backend/ws"
)

// WSHandler upgrades connections and hands them to the fan-out router.
// Identity is bound later by the join intent; the session layer owns
// connection-level authentication.
type WSHandler struct {
	hub      *ws.Hub
	router   *ws.Router
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSHandler(hub *ws.Hub, router *ws.Router, allowedOrigins string, log zerolog.Logger) *WSHandler {
	h := &WSHandler{hub: hub, router: router, log: log}

	var allowed []string
	for _, o := range strings.Split(allowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed = append(allowed, o)
		}
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if len(allowed) == 0 {
				return true
			}
			for _, a := range allowed {
				if origin == a {
					return true
				}
			}
			return false
		},
	}
	return h
}

// Connect handles GET /ws
func (h *WSHandler) Connect(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(h.hub, h.router, conn)
	go client.WritePump()
	go client.ReadPump()
}
