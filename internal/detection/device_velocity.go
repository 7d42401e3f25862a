// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

package detection

import (
	"sort"
	"time"

	"github.com/ramphex/Tracearr-sub001/internal/geo"
	"github.com/ramphex/Tracearr-sub001/internal/models"
)

// evaluateDeviceVelocity flags an account that used more distinct IP
// addresses inside the lookback window than the rule allows. The window
// ends at the trigger's start time and the trigger's own IP counts.
func evaluateDeviceVelocity(trigger *models.Session, rule *models.Rule, contextSessions []*models.Session) RuleEvaluationResult {
	result := RuleEvaluationResult{Rule: rule, Data: map[string]any{}}

	params, ok := rule.Params.(models.DeviceVelocityParams)
	if !ok || params.MaxIPs <= 0 || params.WindowHours <= 0 {
		return result
	}

	window := time.Duration(params.WindowHours) * time.Hour
	seen := make(map[string]struct{})

	record := func(s *models.Session) {
		if s.IPAddress == "" {
			return
		}
		if params.ExcludePrivateIPs && geo.IsPrivateLocation(s) {
			return
		}
		seen[s.IPAddress] = struct{}{}
	}

	record(trigger)
	for _, s := range sessionsStartedWithin(trigger, contextSessions, window) {
		record(s)
	}

	ips := make([]string, 0, len(seen))
	for ip := range seen {
		ips = append(ips, ip)
	}
	sort.Strings(ips)

	result.Violated = len(ips) > params.MaxIPs
	result.Data = map[string]any{
		"uniqueIpCount": len(ips),
		"maxIps":        params.MaxIPs,
		"windowHours":   params.WindowHours,
		"ips":           ips,
	}

	return result
}
