package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ferrepos/internal/config"
	"ferrepos/internal/infra"
	"ferrepos/internal/router"
	"ferrepos/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger. dev: pretty, prod: JSON
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis is optional for a single-instance store: without it locks are
	// in-process and notifications only go to the log.
	var rdb redis.UniversalClient
	if client, err := infra.NewRedis(cfg.RedisURL); err != nil {
		if cfg.LockBackend == "redis" {
			log.Fatal().Err(err).Msg("LOCK_BACKEND=redis but redis is unreachable")
		}
		log.Warn().Err(err).Msg("redis unavailable; running without notification queue")
	} else {
		rdb = client
		defer client.Close()
	}

	smtpCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	if rdb != nil {
		// A nil *Mailer must not reach the interface: the worker treats a nil
		// Enviador as "log only".
		var enviador worker.Enviador
		if m := infra.NewMailer(cfg); m != nil {
			enviador = m
		}
		notificaciones := worker.NewNotificacionWorker(enviador, cfg.Admins(), smtpCB)
		worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, cfg.NotifyMaxAttempts, notificaciones)
	}

	r := router.New(ctx, cfg, db, rdb, smtpCB)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Str("lock_backend", cfg.LockBackend).Msgf("ferrepos backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
