// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

//go:build !nats

package ingest

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Config holds the NATS connection settings the transport needs.
type Config struct {
	URL         string
	QueueGroup  string
	DurableName string
}

// NewSubscriber returns an error when built without NATS support.
// Build with -tags=nats to enable session event ingest.
func NewSubscriber(cfg Config, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	return nil, fmt.Errorf("NATS transport not available: build with -tags=nats")
}

// NewPublisher returns an error when built without NATS support.
// Build with -tags=nats to enable violation publishing.
func NewPublisher(cfg Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return nil, fmt.Errorf("NATS transport not available: build with -tags=nats")
}
