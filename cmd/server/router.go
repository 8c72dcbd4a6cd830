package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"gorm.io/gorm"

	"learnpath/internal/auth"
	"learnpath/internal/config"
	"learnpath/internal/httpx"
	"learnpath/internal/progression"
	"learnpath/internal/quiz"
	"learnpath/pkg/websocket"
)

type routes struct {
	progression *progression.Handler
	quiz        *quiz.Handler
	hub         *websocket.Hub
	health      http.HandlerFunc
}

func newRouter(cfg *config.Config, rt routes) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", rt.health).Methods("GET")

	// API routes - JWT required
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(auth.JWTMiddleware(cfg.JWTSecret))
	rt.progression.Register(apiRouter)
	rt.quiz.Register(apiRouter)

	// WebSocket endpoint; browsers pass the token as a query parameter
	router.Handle("/ws", auth.JWTMiddleware(cfg.JWTSecret)(http.HandlerFunc(rt.hub.HandleWebSocket)))

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	return corsMiddleware.Handler(router)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// healthCheck reports 503 when either backing store is unreachable.
func healthCheck(db *gorm.DB, redis pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"database": "ok", "redis": "ok"}
		code := http.StatusOK

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status["database"] = "unavailable"
			code = http.StatusServiceUnavailable
		}
		if err := redis.Ping(ctx); err != nil {
			status["redis"] = "unavailable"
			code = http.StatusServiceUnavailable
		}
		httpx.JSON(w, code, status)
	}
}
