package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/adapters/database"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/adapters/search"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/repositories"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/infrastructure/observability"
	"github.com/zatekoja/Trialeligibilityscreening/backend/pkg/config"
)

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete existing Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize structured logging
	env := os.Getenv("ENV")
	if env == "" {
		env = "production"
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-indexer", env)

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatal().Err(err).Str("interval", intervalValue).Msg("Invalid interval")
		}
		if interval <= 0 {
			log.Fatal().Msg("Interval must be greater than zero")
		}
	}

	log.Info().
		Str("service", cfg.OTEL.ServiceName+"-indexer").
		Str("version", cfg.OTEL.ServiceVersion).
		Str("env", env).
		Msg("Starting trial reindexer")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, cfg, reset); err != nil {
			log.Error().Err(err).Msg("Reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Info().Dur("next_run_in", interval).Msg("Reindex complete")

		select {
		case <-ctx.Done():
			log.Info().Msg("Reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, cfg *config.Config, reset bool) error {
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	trialRepo := database.NewTrialAdapter(pgClient)

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Info().Msg("Deleting trials collection before reindex")
		_, err := tsClient.Client().Collection(typesense.TrialsCollection).Delete(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to delete collection")
		}
	}

	adapter := search.NewTypesenseAdapter(tsClient)
	if err := adapter.InitSchema(ctx); err != nil {
		return err
	}

	trials, err := trialRepo.List(ctx, repositories.TrialFilter{Limit: 1000})
	if err != nil {
		return err
	}

	log.Info().Int("trials", len(trials)).Msg("Indexing trials")

	indexed := 0
	for _, trial := range trials {
		if trial == nil {
			continue
		}
		if err := adapter.Index(ctx, trial); err != nil {
			log.Warn().Err(err).Str("trial_id", trial.ID).Msg("Failed to index trial")
			continue
		}
		indexed++
	}

	log.Info().Int("indexed", indexed).Int("total", len(trials)).Msg("Reindex run finished")
	return nil
}
