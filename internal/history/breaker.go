// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

package history

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/ramphex/Tracearr-sub001/internal/logging"
	"github.com/ramphex/Tracearr-sub001/internal/metrics"
	"github.com/ramphex/Tracearr-sub001/internal/models"
)

// BreakerStore wraps a Store with a circuit breaker so a wedged or
// corrupt database cannot stall session ingest. When the circuit is
// open, ContextSessions returns an error and the caller decides whether
// to evaluate with an empty context or drop the event.
type BreakerStore struct {
	store *Store
	cb    *gobreaker.CircuitBreaker[[]*models.Session]
}

// NewBreakerStore wraps store with a circuit breaker.
// The breaker opens after 5 consecutive failures and retries a single
// probe after 30 seconds.
func NewBreakerStore(store *Store) *BreakerStore {
	metrics.ContextBreakerState.Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[[]*models.Session](gobreaker.Settings{
		Name:        "session-history",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Session history breaker state change")
			metrics.ContextBreakerState.Set(stateToFloat(to))
		},
	})

	return &BreakerStore{store: store, cb: cb}
}

// RecordSession upserts a session through the breaker.
func (b *BreakerStore) RecordSession(ctx context.Context, session *models.Session) error {
	_, err := b.cb.Execute(func() ([]*models.Session, error) {
		return nil, b.store.RecordSession(ctx, session)
	})
	if err != nil && rejected(err) {
		logging.Warn().Str("session_id", session.ID).Msg("Session record rejected, history breaker open")
	}
	return err
}

// ContextSessions queries the user's context sessions through the
// breaker.
func (b *BreakerStore) ContextSessions(ctx context.Context, serverUserID string, trigger *models.Session) ([]*models.Session, error) {
	sessions, err := b.cb.Execute(func() ([]*models.Session, error) {
		return b.store.ContextSessions(ctx, serverUserID, trigger)
	})
	if err != nil && rejected(err) {
		logging.Warn().Str("server_user_id", serverUserID).Msg("Context query rejected, history breaker open")
	}
	return sessions, err
}

func rejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 2
	}
}
