// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

//go:build nats

package main

import (
	"fmt"

	"github.com/ramphex/Tracearr-sub001/internal/config"
	"github.com/ramphex/Tracearr-sub001/internal/detection"
	"github.com/ramphex/Tracearr-sub001/internal/geo"
	"github.com/ramphex/Tracearr-sub001/internal/ingest"
	"github.com/ramphex/Tracearr-sub001/internal/logging"
	"github.com/ramphex/Tracearr-sub001/internal/supervisor"
	"github.com/ramphex/Tracearr-sub001/internal/supervisor/services"
)

// initNATS wires the session event consumer and the violation publisher
// into the supervision tree. The returned cleanup closes both transport
// ends; call it after the tree stops.
func initNATS(cfg *config.Config, tree *supervisor.Tree, engine *detection.Engine, rules *detection.RuleSet, provider detection.ContextProvider, resolver *geo.Resolver) (func(), error) {
	logger := ingest.NewWatermillLogger()
	transportCfg := ingest.Config{
		URL:         cfg.NATS.URL,
		QueueGroup:  cfg.NATS.QueueGroup,
		DurableName: cfg.NATS.DurableName,
	}

	subscriber, err := ingest.NewSubscriber(transportCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing NATS subscriber: %w", err)
	}

	publisher, err := ingest.NewPublisher(transportCfg, logger)
	if err != nil {
		_ = subscriber.Close()
		return nil, fmt.Errorf("initializing NATS publisher: %w", err)
	}

	sink := detection.NewPublisherSink(publisher, cfg.NATS.ViolationsTopic)
	handler := detection.NewHandler(engine, rules, provider, resolver, sink)

	topic := cfg.NATS.SessionsTopic
	if topic == "" {
		topic = detection.SessionEventsTopic
	}
	tree.AddMessagingService(services.NewConsumerService(subscriber, topic, handler))

	logging.Info().
		Str("url", cfg.NATS.URL).
		Str("sessions_topic", topic).
		Str("violations_topic", cfg.NATS.ViolationsTopic).
		Msg("NATS event processing configured")

	cleanup := func() {
		if err := subscriber.Close(); err != nil {
			logging.Warn().Err(err).Msg("closing NATS subscriber")
		}
		if err := publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("closing NATS publisher")
		}
	}
	return cleanup, nil
}
