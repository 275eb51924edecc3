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

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env            string
	Port           string
	DatabaseURL    string
	RedisAddr      string
	JWTSecret      string
	JWTIssuer      string
	SweepInterval  time.Duration
	AllowedOrigins string
}

// Load reads configuration from the environment. .env.local and .env
// are loaded first without overwriting already-set variables, so OS
// env always wins and .env.local wins over .env.
func Load() (*Config, error) {
	var dotenvs []string
	for _, f := range []string{".env.local", ".env"} {
		if _, err := os.Stat(f); err == nil {
			dotenvs = append(dotenvs, f)
		}
	}
	if len(dotenvs) > 0 {
		_ = godotenv.Load(dotenvs...)
	}

	cfg := &Config{
		Env:            getenv("APP_ENV", "development"),
		Port:           getenv("PORT", "5000"),
		DatabaseURL:    getenv("DATABASE_URL", "postgres://localhost/vanish?sslmode=disable"),
		RedisAddr:      getenv("REDIS_URL", "localhost:6379"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTIssuer:      getenv("JWT_ISSUER", "vanish"),
		AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	sweep := getenv("SWEEP_INTERVAL", "5s")
	interval, err := time.ParseDuration(sweep)
	if err != nil || interval <= 0 {
		return nil, fmt.Errorf("invalid SWEEP_INTERVAL %q", sweep)
	}
	cfg.SweepInterval = interval

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
