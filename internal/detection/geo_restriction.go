// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

package detection

import (
	"strings"

	"github.com/ramphex/Tracearr-sub001/internal/models"
)

// evaluateGeoRestriction enforces a country blocklist or allowlist
// against the triggering session. The comparison runs on the raw country
// code, so a session whose country resolved without coordinates is still
// judged. A private location never violates in either mode, and an
// allowlist never punishes a session the resolver could not place.
func evaluateGeoRestriction(trigger *models.Session, rule *models.Rule, _ []*models.Session) RuleEvaluationResult {
	result := RuleEvaluationResult{Rule: rule, Data: map[string]any{}}

	params, ok := rule.Params.(models.GeoRestrictionParams)
	if !ok || len(params.Countries) == 0 {
		return result
	}

	if trigger.Location() == models.LocationKindPrivate {
		return result
	}
	country := strings.ToUpper(trigger.GeoCountry)
	if country == "" {
		return result
	}

	listed := false
	for _, c := range params.Countries {
		if c == country {
			listed = true
			break
		}
	}

	switch params.Mode {
	case models.GeoRestrictionAllowlist:
		if trigger.Location() == models.LocationKindUnresolved {
			return result
		}
		result.Violated = !listed
	case models.GeoRestrictionBlocklist:
		result.Violated = listed
	default:
		// Unknown mode is a config error: fail open.
		return result
	}

	result.Data = map[string]any{
		"country":   country,
		"mode":      string(params.Mode),
		"countries": params.Countries,
	}

	return result
}
