// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

package detection

import (
	"math"

	"github.com/ramphex/Tracearr-sub001/internal/geo"
	"github.com/ramphex/Tracearr-sub001/internal/models"
)

// evaluateImpossibleTravel flags session pairs whose implied travel speed
// exceeds the configured maximum. The comparison session is the user's
// most recent prior session on a different device; if that session (or
// the trigger) lacks usable coordinates, there is insufficient evidence
// and the rule does not fire.
func evaluateImpossibleTravel(trigger *models.Session, rule *models.Rule, contextSessions []*models.Session) RuleEvaluationResult {
	result := RuleEvaluationResult{Rule: rule, Data: map[string]any{}}

	params, ok := rule.Params.(models.ImpossibleTravelParams)
	if !ok || params.MaxSpeedKmh <= 0 {
		// Misconfigured rule: fail open rather than block evaluation.
		return result
	}

	prior := mostRecentPriorSession(trigger, contextSessions)
	if prior == nil {
		return result
	}

	if params.ExcludePrivateIPs && (geo.IsPrivateLocation(trigger) || geo.IsPrivateLocation(prior)) {
		return result
	}

	if !trigger.HasCoordinates() || !prior.HasCoordinates() {
		return result
	}

	distanceKm := geo.HaversineDistanceKm(
		*prior.GeoLat, *prior.GeoLon,
		*trigger.GeoLat, *trigger.GeoLon,
	)
	deltaSeconds := trigger.StartedAt.Sub(prior.StartedAt).Seconds()
	speedKmh := geo.ImpliedSpeedKmh(distanceKm, deltaSeconds)

	result.Violated = speedKmh > params.MaxSpeedKmh
	result.Data = map[string]any{
		"from":          prior.LocationLabel(),
		"to":            trigger.LocationLabel(),
		"distanceKm":    roundKm(distanceKm),
		"speedKmh":      finiteSpeed(speedKmh),
		"maxSpeedKmh":   params.MaxSpeedKmh,
		"travelSeconds": deltaSeconds,
	}

	return result
}

// finiteSpeed maps an infinite implied speed (zero or negative time
// delta) to null in the evidence payload, matching what consumers of the
// previous runtime received when Infinity was serialized.
func finiteSpeed(speedKmh float64) any {
	if math.IsInf(speedKmh, 1) {
		return nil
	}
	return roundKm(speedKmh)
}
