// Copyright (C) 2025 vanish.chat <dev@vanish.chat>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePair(t *testing.T) {
	a1, b1 := NormalizePair("alice", "bob")
	a2, b2 := NormalizePair("bob", "alice")

	assert.Equal(t, a1, a2)
	assert.Equal(t, b1, b2)
	assert.Equal(t, "alice", a1)
	assert.Equal(t, "bob", b1)
	assert.True(t, a1 < b1)
}

func TestChatSlots(t *testing.T) {
	c := &Chat{
		ChatID:  "c1",
		UserA:   "alice",
		UserB:   "bob",
		UnreadA: 3,
		UnreadB: 7,
	}

	assert.Equal(t, "bob", c.Other("alice"))
	assert.Equal(t, "alice", c.Other("bob"))
	assert.True(t, c.HasParticipant("alice"))
	assert.False(t, c.HasParticipant("carol"))
	assert.Equal(t, 3, c.UnreadFor("alice"))
	assert.Equal(t, 7, c.UnreadFor("bob"))
}
