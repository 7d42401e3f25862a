// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

package detection

import (
	"math"
	"time"

	"github.com/ramphex/Tracearr-sub001/internal/models"
)

// activeSessions returns the context sessions that are still streaming,
// excluding the session with excludeID.
func activeSessions(contextSessions []*models.Session, excludeID string) []*models.Session {
	var active []*models.Session
	for _, s := range contextSessions {
		if s == nil || s.ID == excludeID {
			continue
		}
		if s.Active() {
			active = append(active, s)
		}
	}
	return active
}

// mostRecentPriorSession returns the context session with the latest
// StartedAt among sessions on a different device than the trigger.
// Sessions started after the trigger are ignored so that out-of-order
// delivery never compares against the future. Returns nil when no
// candidate exists.
func mostRecentPriorSession(trigger *models.Session, contextSessions []*models.Session) *models.Session {
	var prior *models.Session
	for _, s := range contextSessions {
		if s == nil || s.ID == trigger.ID {
			continue
		}
		if s.DeviceID != "" && s.DeviceID == trigger.DeviceID {
			continue
		}
		if s.StartedAt.After(trigger.StartedAt) {
			continue
		}
		if prior == nil || s.StartedAt.After(prior.StartedAt) {
			prior = s
		}
	}
	return prior
}

// sessionsStartedWithin returns the context sessions whose StartedAt
// falls in [trigger.StartedAt - window, trigger.StartedAt].
func sessionsStartedWithin(trigger *models.Session, contextSessions []*models.Session, window time.Duration) []*models.Session {
	cutoff := trigger.StartedAt.Add(-window)
	var recent []*models.Session
	for _, s := range contextSessions {
		if s == nil || s.ID == trigger.ID {
			continue
		}
		if s.StartedAt.Before(cutoff) || s.StartedAt.After(trigger.StartedAt) {
			continue
		}
		recent = append(recent, s)
	}
	return recent
}

// roundKm rounds distances and speeds to two decimals for evidence
// payloads.
func roundKm(v float64) float64 {
	return math.Round(v*100) / 100
}
