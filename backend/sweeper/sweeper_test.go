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

package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	calls atomic.Int64
	errs  atomic.Int64
	fail  atomic.Bool
}

func (p *fakePurger) PurgeExpired(ctx context.Context) (int64, error) {
	p.calls.Add(1)
	if p.fail.Load() {
		p.errs.Add(1)
		return 0, errors.New("connection reset")
	}
	return 3, nil
}

func TestSweeperPurgesOnInterval(t *testing.T) {
	purger := &fakePurger{}
	s := New(purger, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return purger.calls.Load() >= 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on cancel")
	}
}

func TestSweeperSurvivesPurgeFailure(t *testing.T) {
	purger := &fakePurger{}
	purger.fail.Store(true)
	s := New(purger, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	// The loop keeps ticking through repeated failures
	require.Eventually(t, func() bool {
		return purger.errs.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	// And recovers once the store does
	purger.fail.Store(false)
	before := purger.calls.Load()
	require.Eventually(t, func() bool {
		return purger.calls.Load() > before
	}, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, purger.errs.Load(), int64(2))
}
