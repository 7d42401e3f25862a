// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

package detection

import (
	"github.com/ramphex/Tracearr-sub001/internal/geo"
	"github.com/ramphex/Tracearr-sub001/internal/models"
)

// evaluateSimultaneousLocations flags an account with currently-active
// sessions farther apart than the configured minimum distance. The
// trigger is compared against every other active session; the farthest
// qualifying pair is reported as evidence.
func evaluateSimultaneousLocations(trigger *models.Session, rule *models.Rule, contextSessions []*models.Session) RuleEvaluationResult {
	result := RuleEvaluationResult{Rule: rule, Data: map[string]any{}}

	params, ok := rule.Params.(models.SimultaneousLocationsParams)
	if !ok || params.MinDistanceKm <= 0 {
		return result
	}

	// A private trigger is excluded from the comparison set entirely.
	if params.ExcludePrivateIPs && geo.IsPrivateLocation(trigger) {
		return result
	}
	if !trigger.HasCoordinates() {
		return result
	}

	var (
		farthest  *models.Session
		maxDistKm float64
	)
	for _, s := range activeSessions(contextSessions, trigger.ID) {
		if params.ExcludePrivateIPs && geo.IsPrivateLocation(s) {
			continue
		}
		if !s.HasCoordinates() {
			continue
		}

		d := geo.HaversineDistanceKm(*trigger.GeoLat, *trigger.GeoLon, *s.GeoLat, *s.GeoLon)
		if d > params.MinDistanceKm && d > maxDistKm {
			farthest = s
			maxDistKm = d
		}
	}

	if farthest == nil {
		return result
	}

	result.Violated = true
	result.Data = map[string]any{
		"location1":     trigger.LocationLabel(),
		"location2":     farthest.LocationLabel(),
		"distanceKm":    roundKm(maxDistKm),
		"minDistanceKm": params.MinDistanceKm,
	}

	return result
}
