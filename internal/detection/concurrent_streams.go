// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

package detection

import (
	"github.com/ramphex/Tracearr-sub001/internal/geo"
	"github.com/ramphex/Tracearr-sub001/internal/models"
)

// evaluateConcurrentStreams flags an account with more currently-active
// streams, the triggering one included, than the rule allows.
// data.activeStreamCount reports the counted total and is rendered
// verbatim downstream.
func evaluateConcurrentStreams(trigger *models.Session, rule *models.Rule, contextSessions []*models.Session) RuleEvaluationResult {
	result := RuleEvaluationResult{Rule: rule, Data: map[string]any{}}

	params, ok := rule.Params.(models.ConcurrentStreamsParams)
	if !ok || params.MaxStreams <= 0 {
		return result
	}

	count := 0
	if !params.ExcludePrivateIPs || !geo.IsPrivateLocation(trigger) {
		count++
	}
	for _, s := range activeSessions(contextSessions, trigger.ID) {
		if params.ExcludePrivateIPs && geo.IsPrivateLocation(s) {
			continue
		}
		count++
	}

	result.Violated = count > params.MaxStreams
	result.Data = map[string]any{
		"activeStreamCount": count,
		"maxStreams":        params.MaxStreams,
	}

	return result
}
