// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

package services

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
)

// MessageHandler processes one message. A nil error acks the message,
// an error nacks it for redelivery.
type MessageHandler interface {
	Handle(msg *message.Message) error
}

// ConsumerService runs a subscribe loop over a topic, dispatching each
// message to a handler. Restarting the service resubscribes, so a
// dropped subscription is recovered by the supervisor.
type ConsumerService struct {
	subscriber message.Subscriber
	topic      string
	handler    MessageHandler
}

// NewConsumerService wraps a subscription to topic as a supervised
// service.
func NewConsumerService(subscriber message.Subscriber, topic string, handler MessageHandler) *ConsumerService {
	return &ConsumerService{
		subscriber: subscriber,
		topic:      topic,
		handler:    handler,
	}
}

// Serve implements suture.Service.
func (c *ConsumerService) Serve(ctx context.Context) error {
	messages, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", c.topic, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("subscription to %s closed", c.topic)
			}
			if err := c.handler.Handle(msg); err != nil {
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (c *ConsumerService) String() string {
	return fmt.Sprintf("consumer:%s", c.topic)
}
