// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

// Command server runs the Tracearr rule violation detection service:
// it consumes session events, evaluates them against configured rules,
// and publishes violations for downstream consumers.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ramphex/Tracearr-sub001/internal/api"
	"github.com/ramphex/Tracearr-sub001/internal/config"
	"github.com/ramphex/Tracearr-sub001/internal/detection"
	"github.com/ramphex/Tracearr-sub001/internal/geo"
	"github.com/ramphex/Tracearr-sub001/internal/history"
	"github.com/ramphex/Tracearr-sub001/internal/logging"
	"github.com/ramphex/Tracearr-sub001/internal/supervisor"
	"github.com/ramphex/Tracearr-sub001/internal/supervisor/services"
)

// version is set via -ldflags at build time.
var version = "dev"

func logOutput(name string) io.Writer {
	if name == "stderr" {
		return os.Stderr
	}
	return os.Stdout
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: logOutput(cfg.Logging.Output),
	})
	logging.Info().Str("version", version).Msg("starting tracearr")

	if err := run(cfg); err != nil && !errors.Is(err, context.Canceled) {
		logging.Fatal().Err(err).Msg("service exited")
	}
	logging.Info().Msg("shutdown complete")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var resolver *geo.Resolver
	if cfg.GeoIP.DatabasePath != "" {
		r, err := geo.OpenResolver(cfg.GeoIP.DatabasePath)
		if err != nil {
			return err
		}
		defer r.Close()
		resolver = r
		logging.Info().Str("path", cfg.GeoIP.DatabasePath).Msg("GeoIP database loaded")
	} else {
		logging.Info().Msg("no GeoIP database configured, sessions must arrive pre-annotated")
	}

	db, err := history.OpenDB(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	lookback := time.Duration(cfg.Detection.LookbackHours) * time.Hour
	store := history.NewStore(db, history.Config{
		Lookback:    lookback,
		MaxSessions: cfg.Detection.MaxContextSessions,
	})
	if err := store.Init(ctx); err != nil {
		return err
	}
	provider := history.NewBreakerStore(store)

	rules, err := cfg.Detection.EngineRules()
	if err != nil {
		return err
	}
	ruleSet := detection.NewRuleSet(rules)
	logging.Info().Int("rules", len(ruleSet.All())).Msg("detection rules loaded")

	engine := detection.NewEngine()

	slogger := slog.New(logging.NewSlogHandler())
	tree := supervisor.NewTree(slogger, supervisor.DefaultTreeConfig())

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewServer(ruleSet, version).Router(),
		ReadHeaderTimeout: cfg.Server.Timeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(httpServer, cfg.Server.Timeout))
	logging.Info().Str("addr", cfg.Server.Addr()).Msg("observability server configured")

	// Stopped sessions past the lookback can never be context again.
	tree.AddAPIService(services.NewPruneService(store, time.Hour, lookback))

	if cfg.Detection.Enabled && cfg.NATS.Enabled {
		cleanup, err := initNATS(cfg, tree, engine, ruleSet, provider, resolver)
		if err != nil {
			return err
		}
		defer cleanup()
	} else {
		logging.Info().Msg("event ingest disabled, serving observability endpoints only")
	}

	return tree.Serve(ctx)
}
