// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

package detection

import (
	"context"

	"github.com/ramphex/Tracearr-sub001/internal/models"
)

// ContextProvider supplies the bounded session context the engine needs:
// the user's other recent and active sessions. Implementations own the
// storage; the engine never queries it directly.
//
// Satisfied by *history.Store and its circuit-breaker wrapper.
type ContextProvider interface {
	// RecordSession upserts a session snapshot into history.
	RecordSession(ctx context.Context, session *models.Session) error

	// ContextSessions returns the user's other sessions relevant to
	// evaluating trigger: still-active sessions plus sessions started
	// within the lookback window, newest first, excluding trigger
	// itself.
	ContextSessions(ctx context.Context, serverUserID string, trigger *models.Session) ([]*models.Session, error)
}
