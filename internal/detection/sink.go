// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

package detection

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/ramphex/Tracearr-sub001/internal/logging"
	"github.com/ramphex/Tracearr-sub001/internal/models"
)

// DefaultViolationsTopic is where violated evaluation results are
// published for downstream persistence and notification consumers.
const DefaultViolationsTopic = "violations.detected"

// ViolationSink consumes violated evaluation results. Persistence,
// severity assignment, and notification fan-out live behind this
// boundary, outside the engine.
type ViolationSink interface {
	Publish(ctx context.Context, trigger *models.Session, results []RuleEvaluationResult) error
}

// ViolationEvent is the wire format emitted for one violated result.
type ViolationEvent struct {
	ID           string          `json:"id"`
	RuleID       string          `json:"ruleId"`
	RuleType     models.RuleType `json:"ruleType"`
	ServerUserID string          `json:"serverUserId"`
	SessionID    string          `json:"sessionId"`
	Data         map[string]any  `json:"data"`
	OccurredAt   time.Time       `json:"occurredAt"`
}

// PublisherSink publishes violation events through a Watermill publisher.
type PublisherSink struct {
	publisher message.Publisher
	topic     string
}

// NewPublisherSink creates a sink publishing to topic; an empty topic
// uses DefaultViolationsTopic.
func NewPublisherSink(publisher message.Publisher, topic string) *PublisherSink {
	if topic == "" {
		topic = DefaultViolationsTopic
	}
	return &PublisherSink{publisher: publisher, topic: topic}
}

// Publish emits one message per violated result. Non-violated results are
// ignored so callers can pass engine output unfiltered.
func (s *PublisherSink) Publish(_ context.Context, trigger *models.Session, results []RuleEvaluationResult) error {
	var msgs []*message.Message
	for _, r := range results {
		if !r.Violated {
			continue
		}

		event := ViolationEvent{
			ID:           uuid.NewString(),
			RuleID:       r.Rule.ID,
			RuleType:     r.Rule.Type,
			ServerUserID: trigger.ServerUserID,
			SessionID:    trigger.ID,
			Data:         r.Data,
			OccurredAt:   time.Now().UTC(),
		}

		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshaling violation event: %w", err)
		}

		msg := message.NewMessage(event.ID, payload)
		msg.Metadata.Set("rule_type", string(event.RuleType))
		msg.Metadata.Set("server_user_id", event.ServerUserID)
		msgs = append(msgs, msg)
	}

	if len(msgs) == 0 {
		return nil
	}

	if err := s.publisher.Publish(s.topic, msgs...); err != nil {
		return fmt.Errorf("publishing %d violation(s): %w", len(msgs), err)
	}

	logging.Info().
		Int("count", len(msgs)).
		Str("server_user_id", trigger.ServerUserID).
		Str("topic", s.topic).
		Msg("published violations")

	return nil
}
