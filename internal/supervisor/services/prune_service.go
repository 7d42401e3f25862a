// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

package services

import (
	"context"
	"time"

	"github.com/ramphex/Tracearr-sub001/internal/logging"
)

// Pruner deletes stopped sessions older than cutoff and reports how many
// rows went.
type Pruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PruneService periodically prunes session history. Stopped sessions
// older than the retention window can never appear in an evaluation
// context again, so dropping them bounds the store's growth.
type PruneService struct {
	pruner    Pruner
	interval  time.Duration
	retention time.Duration
}

// NewPruneService wraps pruner as a supervised service running every
// interval with the given retention window.
func NewPruneService(pruner Pruner, interval, retention time.Duration) *PruneService {
	return &PruneService{
		pruner:    pruner,
		interval:  interval,
		retention: retention,
	}
}

// Serve implements suture.Service. Prune failures are logged and retried
// on the next tick; only context cancellation stops the loop.
func (p *PruneService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			cutoff := time.Now().Add(-p.retention)
			n, err := p.pruner.PruneBefore(ctx, cutoff)
			if err != nil {
				logging.Warn().Err(err).Msg("session history prune failed")
				continue
			}
			if n > 0 {
				logging.Debug().Int64("sessions", n).Time("cutoff", cutoff).Msg("pruned session history")
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (p *PruneService) String() string {
	return "history-pruner"
}
