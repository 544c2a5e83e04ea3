// Package app assembles the stores and the translator shared by the worker manager and the CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"nlq-workers/internal/common/config"
	"nlq-workers/internal/common/database"
	"nlq-workers/internal/common/errors"
	"nlq-workers/internal/common/genai"
	"nlq-workers/internal/common/logger"
	"nlq-workers/internal/nlq"
	"nlq-workers/internal/nlq/patterns"
)

const defaultJournalIndex = "nlq-translations"

// Options controls how hard Build tries to reach each backend.
type Options struct {
	MaxRetries   int
	InitialDelay time.Duration
	// RequireRedis turns a missing schema cache into a startup error.
	RequireRedis bool
}

// App holds the connected backends. Redis and Elasticsearch may be nil.
type App struct {
	Config     *config.Config
	Postgres   *database.PostgresClient
	Store      *database.InventoryStore
	Redis      *database.RedisClient
	Journal    *database.Journal
	Library    *patterns.Library
	Translator *nlq.Translator

	log logger.Logger
}

// RetryWithBackoff runs operation until it succeeds or maxRetries attempts have failed,
// doubling the delay each time.
func RetryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s aborted: %w", operationName, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// Build connects to PostgreSQL (required), Redis and Elasticsearch (optional) and wires
// the translator on top of them.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger, opts Options) (*App, error) {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 2 * time.Second
	}
	a := &App{Config: cfg, log: log}

	lib, err := patterns.LoadOrDefault(cfg.Translator.PatternsFile)
	if err != nil {
		return nil, err
	}
	a.Library = lib
	log.Info("pattern library loaded", map[string]interface{}{
		"version": lib.Version(),
		"tables":  lib.Tables(),
	})

	err = RetryWithBackoff(ctx, func() error {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			return err
		}
		a.Postgres = pg
		return nil
	}, opts.MaxRetries, opts.InitialDelay, log, "PostgreSQL connection")
	if err != nil {
		return nil, errors.NewDatabaseConnectionFailedError(err)
	}
	a.Store = database.NewInventoryStore(a.Postgres.DB)
	log.Info("PostgreSQL connected successfully", nil)

	var cache nlq.SchemaCache
	if cfg.Database.Redis.Address != "" {
		err = RetryWithBackoff(ctx, func() error {
			rc, err := database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			if err := rc.Ping(ctx); err != nil {
				rc.Close()
				return err
			}
			a.Redis = rc
			return nil
		}, opts.MaxRetries, opts.InitialDelay, log, "Redis connection")
		switch {
		case err == nil:
			cache = database.NewSchemaCache(a.Redis.Client)
			log.Info("Redis connected successfully", nil)
		case opts.RequireRedis:
			a.Close()
			return nil, err
		default:
			log.Warn("schema cache disabled", map[string]interface{}{"error": err.Error()})
		}
	}

	if cfg.Database.Elasticsearch.Enabled {
		err = RetryWithBackoff(ctx, func() error {
			es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			if err := es.Ping(ctx); err != nil {
				return err
			}
			index := cfg.Database.Elasticsearch.JournalIndex
			if index == "" {
				index = defaultJournalIndex
			}
			a.Journal = database.NewJournal(es.Client, index)
			return nil
		}, opts.MaxRetries, opts.InitialDelay, log, "Elasticsearch connection")
		if err != nil {
			log.Warn("translation journal disabled", map[string]interface{}{"error": err.Error()})
		} else {
			log.Info("Elasticsearch connected successfully", nil)
		}
	}

	var completions nlq.CompletionClient
	if c := genai.NewClient(cfg.APIs.GenAI); c != nil {
		completions = c
	} else {
		log.Info("LLM fallback not configured", nil)
	}

	introspector := nlq.NewIntrospector(a.Store, cache, lib,
		time.Duration(cfg.Translator.SchemaCacheTTL)*time.Second, log.Named("introspector"))

	a.Translator = nlq.NewTranslator(nlq.Options{
		Library:      lib,
		Introspector: introspector,
		Generator:    nlq.NewGenerator(completions, log.Named("generator")),
		Planner: nlq.PlannerConfig{
			DefaultLimit: cfg.Translator.DefaultLimit,
			MaxLimit:     cfg.Translator.MaxLimit,
		},
		Logger: log.Named("translator"),
	})
	return a, nil
}

// Ready pings the required backend.
func (a *App) Ready(ctx context.Context) error {
	return a.Postgres.Ping(ctx)
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.log.Warn("redis close failed", map[string]interface{}{"error": err.Error()})
		}
	}
	if a.Postgres != nil {
		if err := a.Postgres.Close(); err != nil {
			a.log.Warn("postgres close failed", map[string]interface{}{"error": err.Error()})
		}
	}
}
