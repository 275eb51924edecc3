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
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const pubsubChannel = "fanout"

// Presence mirrors connection counts into shared state so user listings
// can show online flags across instances.
type Presence interface {
	ConnectionOpened(ctx context.Context, userID string) (int64, error)
	ConnectionClosed(ctx context.Context, userID string) (int64, error)
}

// Hub is the connection registry: a multiset of live connections per
// user id, constructed on server start and torn down on shutdown. It is
// a pure delivery cache; nothing durable depends on a push landing.
type Hub struct {
	// instanceID discriminates this hub's own pub/sub publishes from
	// other instances', so a relayed event is delivered locally exactly
	// once.
	instanceID string

	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *targetedEvent

	mu          sync.RWMutex
	redisClient *redis.Client
	presence    Presence
	log         zerolog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

type targetedEvent struct {
	UserID string `json:"user_id"`
	Event  *Event `json:"event"`
}

type relayedEvent struct {
	Origin string `json:"origin"`
	targetedEvent
}

// NewHub creates a hub. redisClient and presence may be nil; the hub
// then runs single-instance with no shared presence, which is how tests
// run it.
func NewHub(redisClient *redis.Client, presence Presence, log zerolog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		instanceID:  uuid.New().String(),
		clients:     make(map[string]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *targetedEvent, 256),
		redisClient: redisClient,
		presence:    presence,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Register binds a joined client into the registry.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister drops a client. Other connections of the same user are
// unaffected; the user stays online while any remain.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Run drives the registry until Stop.
func (h *Hub) Run() {
	if h.redisClient != nil {
		go h.subscribeRelay()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]bool)
			}
			h.clients[client.userID][client] = true
			h.mu.Unlock()
			if h.presence != nil {
				if _, err := h.presence.ConnectionOpened(h.ctx, client.userID); err != nil {
					h.log.Warn().Err(err).Str("user_id", client.userID).Msg("presence open failed")
				}
			}

		case client := <-h.unregister:
			h.mu.Lock()
			removed := false
			if clients, ok := h.clients[client.userID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					removed = true
					if len(clients) == 0 {
						delete(h.clients, client.userID)
					}
				}
			}
			h.mu.Unlock()
			if removed && h.presence != nil {
				if _, err := h.presence.ConnectionClosed(h.ctx, client.userID); err != nil {
					h.log.Warn().Err(err).Str("user_id", client.userID).Msg("presence close failed")
				}
			}

		case msg := <-h.broadcast:
			h.deliverLocal(msg)

		case <-h.ctx.Done():
			return
		}
	}
}

func (h *Hub) deliverLocal(msg *targetedEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.clients[msg.UserID]
	if !ok {
		return
	}
	data, err := json.Marshal(msg.Event)
	if err != nil {
		h.log.Error().Err(err).Msg("marshal event")
		return
	}
	for client := range clients {
		select {
		case client.send <- data:
		default:
			// Slow consumer; drop the frame rather than block the
			// fan-out. The message store is the source of truth and
			// the client recovers on its next list fetch.
			h.log.Warn().Str("user_id", msg.UserID).Msg("dropping frame for slow connection")
		}
	}
}

// SendToUser pushes an event to every live connection of the target
// user: locally right away, and through Redis for connections held by
// other instances.
func (h *Hub) SendToUser(userID string, event *Event) {
	msg := &targetedEvent{UserID: userID, Event: event}

	select {
	case h.broadcast <- msg:
	case <-h.ctx.Done():
		return
	}

	if h.redisClient != nil {
		relay := relayedEvent{Origin: h.instanceID, targetedEvent: *msg}
		data, err := json.Marshal(relay)
		if err == nil {
			h.redisClient.Publish(h.ctx, pubsubChannel, data) //nolint:errcheck
		}
	}
}

// subscribeRelay applies events published by other instances to the
// local registry. Own publishes are skipped: local delivery already
// happened in SendToUser.
func (h *Hub) subscribeRelay() {
	pubsub := h.redisClient.Subscribe(h.ctx, pubsubChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var relay relayedEvent
			if err := json.Unmarshal([]byte(msg.Payload), &relay); err != nil {
				continue
			}
			if relay.Origin == h.instanceID {
				continue
			}
			h.broadcast <- &relay.targetedEvent
		case <-h.ctx.Done():
			return
		}
	}
}

// HasConnections reports whether the user has a live local connection.
func (h *Hub) HasConnections(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// ConnectionCount returns the number of live local connections for the user.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Stop shuts the hub down and clears the registry.
func (h *Hub) Stop() {
	h.cancel()
}
