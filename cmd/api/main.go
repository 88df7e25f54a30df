package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	server "bizreviews/internal/adapters/http_server"
	"bizreviews/internal/adapters/observability"
	redisad "bizreviews/internal/adapters/redis"
	"bizreviews/internal/app"
	"bizreviews/internal/domain"
	"bizreviews/internal/shared"
	"bizreviews/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// datastore
	ds, closeStore, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("datastore init failed")
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn().Err(err).Msg("datastore close failed")
		}
	}()

	// review claim guard
	var guard domain.ReviewGuard
	if cfg.RedisAddr != "" {
		g := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, cfg.ClaimTTL)
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := g.Ping(pctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed; claims fall back per request")
		}
		cancel()
		defer g.Close()
		guard = g
	}

	// deps
	businesses := app.NewBusinessService(ds, app.CascadeOptions{
		Workers: cfg.CascadeWorkers,
		Retries: cfg.CascadeRetries,
	})
	reviews := app.NewReviewService(ds, guard)

	// http
	srv := server.New(cfg.RequestTimeout)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Businesses: businesses,
		Reviews:    reviews,
		StrictIDs:  cfg.StrictIDs,
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("backend", cfg.StoreBackend).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
