// Copyright (C) 2025 vanish.chat <dev@vanish.chat>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package models

import "time"

// User is a registered profile. Profiles are permanent: the username may
// be renamed but the row is never deleted. PublicKey is an opaque blob
// consumed by the encryption layer; the server never interprets it.
type User struct {
	UserID    string    `json:"user_id" db:"user_id"`
	Username  string    `json:"username" db:"username"`
	PublicKey []byte    `json:"public_key,omitempty" db:"public_key"`
	Online    bool      `json:"online"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
