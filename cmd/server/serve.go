package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"learnpath/internal/config"
	"learnpath/internal/progression"
	"learnpath/internal/quiz"
	"learnpath/pkg/cache"
	"learnpath/pkg/database"
	"learnpath/pkg/websocket"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and websocket server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	serveCmd.Flags().Bool("skip-migrate", false, "Do not migrate the schema before serving")
}

func dbConfig(cfg *config.Config) *database.Config {
	return &database.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		Debug:    cfg.DBDebug,
	}
}

func runServe(cmd *cobra.Command) error {
	cfg, log, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresDB(dbConfig(cfg))
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		return err
	}
	if skip, _ := cmd.Flags().GetBool("skip-migrate"); !skip {
		if err := database.Migrate(db); err != nil {
			log.Error("failed to migrate database", "error", err)
			return err
		}
	}

	redisCache := cache.NewRedisCache(cache.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to reach redis", "addr", cfg.RedisAddr, "error", err)
		return err
	}

	wsHub := websocket.NewHub(cfg.CORSOrigins, log)

	progressRepo := progression.NewRepository(db, log)
	quizRepo := quiz.NewRepository(db, log)

	gate := progression.NewGate(progressRepo, log)
	recorder := progression.NewRecorder(progressRepo, wsHub, log)
	progressService := progression.NewService(progressRepo, gate, recorder, log)
	quizService := quiz.NewService(quizRepo, progressRepo, gate, recorder, redisCache, cfg.SessionTTL, log)

	handler := newRouter(cfg, routes{
		progression: progression.NewHandler(progressService, log),
		quiz:        quiz.NewHandler(quizService, log),
		hub:         wsHub,
		health:      healthCheck(db, redisCache),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		wsHub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info("server starting", "port", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("server forced to shutdown", "error", err)
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "error", err)
		return err
	}
	log.Info("server shutdown gracefully")
	return nil
}
