// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

//go:build nats

package detection

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/ramphex/Tracearr-sub001/internal/geo"
	"github.com/ramphex/Tracearr-sub001/internal/logging"
	"github.com/ramphex/Tracearr-sub001/internal/models"
)

// SessionEvent is the envelope consumed from the session event stream.
// EventType is "start", "update", or "stop".
type SessionEvent struct {
	EventType string         `json:"eventType"`
	Session   models.Session `json:"session"`
}

// Handler wires the engine into the session event stream: for each
// event it records the session, loads applicable rules and context, runs
// the engine once, and forwards violated results to the sink.
//
// Processing is fire-and-forget. Parse failures and detection errors ack
// the message; a malformed event or a flaky sink must never stall
// consumption of the stream.
type Handler struct {
	engine   *Engine
	rules    *RuleSet
	provider ContextProvider
	resolver *geo.Resolver
	sink     ViolationSink
	timeout  time.Duration
}

// NewHandler creates an ingest handler. resolver may be nil when no
// GeoIP database is configured; sessions then keep whatever location
// data the producer supplied.
func NewHandler(engine *Engine, rules *RuleSet, provider ContextProvider, resolver *geo.Resolver, sink ViolationSink) *Handler {
	return &Handler{
		engine:   engine,
		rules:    rules,
		provider: provider,
		resolver: resolver,
		sink:     sink,
		timeout:  10 * time.Second,
	}
}

// Handle processes one session event message. It implements the
// Watermill NoPublishHandlerFunc signature.
func (h *Handler) Handle(msg *message.Message) error {
	var event SessionEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		logging.Warn().Err(err).Str("message_id", msg.UUID).Msg("failed to parse session event")
		return nil
	}
	session := &event.Session
	if session.ID == "" || session.ServerUserID == "" {
		logging.Warn().Str("message_id", msg.UUID).Msg("session event missing identity fields")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if h.resolver != nil {
		h.resolver.Annotate(session)
	}

	contextSessions, err := h.provider.ContextSessions(ctx, session.ServerUserID, session)
	if err != nil {
		logging.Error().Err(err).Str("session_id", session.ID).Msg("failed to load context sessions")
		return nil
	}

	if err := h.provider.RecordSession(ctx, session); err != nil {
		logging.Error().Err(err).Str("session_id", session.ID).Msg("failed to record session")
	}

	// Stop events only update history; there is nothing to evaluate.
	if event.EventType == "stop" {
		return nil
	}

	rules := h.rules.RulesForUser(session.ServerUserID)
	results := h.engine.EvaluateSession(session, rules, contextSessions)

	violated := Violated(results)
	if len(violated) == 0 {
		return nil
	}

	if err := h.sink.Publish(ctx, session, violated); err != nil {
		logging.Error().Err(err).Str("session_id", session.ID).Msg("failed to publish violations")
	}

	return nil
}

// SessionEventsTopic is the NATS subject pattern for session lifecycle
// events.
const SessionEventsTopic = "sessions.events"
