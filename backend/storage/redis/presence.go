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

package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// presenceKeyPrefix + userID -> per-user connection count
	presenceKeyPrefix = "presence:conns:"

	// Presence keys self-expire so a crashed instance cannot leave a
	// user permanently "online". Live connections refresh the key on
	// every join.
	presenceTTL = 2 * time.Minute
)

// PresenceStore tracks which users have live connections. It is a pure
// cache of "who to notify now": durable state never depends on it, so a
// stale or lost entry only costs a push, which self-heals on the next
// list fetch.
type PresenceStore struct {
	rdb *redis.Client
}

func NewPresenceStore(rdb *redis.Client) *PresenceStore {
	return &PresenceStore{rdb: rdb}
}

// ConnectionOpened records one more live connection for the user and
// reports the new count. A user is online while the count is positive.
func (s *PresenceStore) ConnectionOpened(ctx context.Context, userID string) (int64, error) {
	key := presenceKeyPrefix + userID
	count, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	s.rdb.Expire(ctx, key, presenceTTL)
	return count, nil
}

// ConnectionClosed records a closed connection. The user stays online
// while other connections remain; the key is dropped at zero so closing
// one of several clients never flips the user offline.
func (s *PresenceStore) ConnectionClosed(ctx context.Context, userID string) (int64, error) {
	key := presenceKeyPrefix + userID
	count, err := s.rdb.Decr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count <= 0 {
		s.rdb.Del(ctx, key)
		return 0, nil
	}
	return count, nil
}

// IsOnline reports whether the user has at least one live connection.
func (s *PresenceStore) IsOnline(ctx context.Context, userID string) (bool, error) {
	count, err := s.rdb.Exists(ctx, presenceKeyPrefix+userID).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// OnlineMap resolves the online flag for a batch of users in one round
// trip, for annotating user listings.
func (s *PresenceStore) OnlineMap(ctx context.Context, userIDs []string) (map[string]bool, error) {
	online := make(map[string]bool, len(userIDs))
	if len(userIDs) == 0 {
		return online, nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = presenceKeyPrefix + id
	}

	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	for i, v := range values {
		online[userIDs[i]] = v != nil
	}
	return online, nil
}
