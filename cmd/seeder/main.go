package main

import (
	"context"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"bizreviews/internal/adapters/apiclient"
	"bizreviews/internal/adapters/observability"
	"bizreviews/internal/app"
	"bizreviews/internal/shared"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	log.Info().
		Str("base", cfg.APIBase).
		Str("file", cfg.SeedFile).
		Int("workers", cfg.SeedWorkers).
		Int("rps", cfg.SeedRPS).
		Msg("seeder starting")

	raw, err := os.ReadFile(cfg.SeedFile)
	if err != nil {
		log.Fatal().Err(err).Msg("read seed file failed")
	}
	seed, err := app.ParseSeed(raw)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid seed file")
	}

	client, err := apiclient.New(cfg.APIBase, cfg.SeedRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize API client")
	}
	svc := app.NewSeedService(client)

	workers := cfg.SeedWorkers
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var failed atomic.Int64

	for _, sb := range seed.Businesses {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(sb app.SeedBusiness) {
			defer wg.Done()
			defer sem.Release(1)

			b, err := svc.SeedBusiness(ctx, sb)
			if err != nil {
				failed.Add(1)
				log.Warn().
					Str("name", sb.Name).
					Bool("retryable", apiclient.IsRetryable(err)).
					Err(err).
					Msg("seed failed")
				return
			}
			log.Info().Int64("id", b.ID).Int("reviews", len(sb.Reviews)).Msg("seed ok")
		}(sb)
	}

	wg.Wait()
	if n := failed.Load(); n > 0 {
		log.Error().Int64("failed", n).Int("total", len(seed.Businesses)).Msg("seeding finished with failures")
		os.Exit(1)
	}
	log.Info().Int("businesses", len(seed.Businesses)).Msg("seeding completed")
}
