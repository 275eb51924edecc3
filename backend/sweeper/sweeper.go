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

// Package sweeper purges expired messages on a fixed interval. It is
// purely an eviction job: read paths filter on expiry themselves, so
// correctness never depends on sweep timing.
package sweeper

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Purger is the slice of the message store the sweeper needs.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type Sweeper struct {
	store    Purger
	interval time.Duration
	log      zerolog.Logger
}

func New(store Purger, interval time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{store: store, interval: interval, log: log}
}

// Run sweeps until ctx is cancelled. A failed pass is logged and the
// next tick tries again; the loop never aborts. Chats, unread counters
// and block relations are outside the sweeper's reach entirely.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", s.interval).Msg("sweeper started")

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			s.log.Info().Msg("sweeper stopped")
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	purged, err := s.store.PurgeExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("purge pass failed")
		return
	}
	if purged > 0 {
		s.log.Debug().Int64("purged", purged).Msg("purged expired messages")
	}
}
