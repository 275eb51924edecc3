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

package main

import (
	"context"
	"database/sql"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/vanishchat/vanish/backend/config"
	"github.com/vanishchat/vanish/backend/handlers"
	"github.com/vanishchat/vanish/backend/logger"
	"github.com/vanishchat/vanish/backend/middleware"
	"github.com/vanishchat/vanish/backend/storage/postgres"
	redisstore "github.com/vanishchat/vanish/backend/storage/redis"
	"github.com/vanishchat/vanish/backend/sweeper"
	"github.com/vanishchat/vanish/backend/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.Env)

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	store := postgres.NewStore(db)
	if err := store.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	presence := redisstore.NewPresenceStore(rdb)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connection registry: constructed here, cleared on shutdown.
	hub := ws.NewHub(rdb, presence, log)
	go hub.Run()
	defer hub.Stop()

	router := ws.NewRouter(store, hub, log)

	sweep := sweeper.New(store, cfg.SweepInterval, log)
	go sweep.Run(ctx)

	userHandler := handlers.NewUserHandler(store, presence)
	chatHandler := handlers.NewChatHandler(store)
	blockHandler := handlers.NewBlockHandler(store)
	wsHandler := handlers.NewWSHandler(hub, router, cfg.AllowedOrigins, log)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer)

	r := mux.NewRouter()
	r.Use(middleware.NewCORS(cfg.AllowedOrigins))

	// Registration has no session yet
	r.HandleFunc("/api/register", userHandler.Register).Methods("POST")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware)

	// User endpoints
	api.HandleFunc("/users", userHandler.ListUsers).Methods("GET")
	api.HandleFunc("/users/me/name", userHandler.Rename).Methods("PUT")
	api.HandleFunc("/search-users", userHandler.SearchUsers).Methods("GET")

	// Chat endpoints
	api.HandleFunc("/chats", chatHandler.ListChats).Methods("GET")
	api.HandleFunc("/chats", chatHandler.ResolveChat).Methods("POST")
	api.HandleFunc("/chats/{chatId}/messages", chatHandler.ListMessages).Methods("GET")
	api.HandleFunc("/chats/{chatId}/messages", chatHandler.ClearChat).Methods("DELETE")
	api.HandleFunc("/chats/{chatId}/read", chatHandler.MarkRead).Methods("POST")
	api.HandleFunc("/chats/{chatId}/unread", chatHandler.Unread).Methods("GET")
	api.HandleFunc("/chats/{chatId}", chatHandler.HideChat).Methods("DELETE")

	// Block endpoints
	api.HandleFunc("/blocks", blockHandler.ListBlocks).Methods("GET")
	api.HandleFunc("/blocks", blockHandler.Block).Methods("POST")
	api.HandleFunc("/blocks/{userId}", blockHandler.Unblock).Methods("DELETE")

	// Real-time transport; identity is bound by the join intent
	r.HandleFunc("/ws", wsHandler.Connect).Methods("GET")

	// Health check (no auth required)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Database unavailable")) //nolint:errcheck
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK")) //nolint:errcheck
	}).Methods("GET")

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background()) //nolint:errcheck
	}()

	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server failed")
	}
}
