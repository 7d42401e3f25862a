// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

package detection

import (
	"time"

	"github.com/ramphex/Tracearr-sub001/internal/logging"
	"github.com/ramphex/Tracearr-sub001/internal/metrics"
	"github.com/ramphex/Tracearr-sub001/internal/models"
)

// RuleEvaluationResult is the engine's output for one (session, rule)
// pair. Data holds the rule-type-specific evidence payload; its key names
// are rendered verbatim by downstream consumers.
type RuleEvaluationResult struct {
	Rule     *models.Rule   `json:"rule"`
	Violated bool           `json:"violated"`
	Data     map[string]any `json:"data"`
}

// evaluatorFunc evaluates one rule against the triggering session and
// the caller-supplied context sessions. Implementations are pure.
type evaluatorFunc func(trigger *models.Session, rule *models.Rule, contextSessions []*models.Session) RuleEvaluationResult

// evaluators is the dispatch table over the closed rule type set.
// Adding a rule type means adding exactly one entry here plus its
// params struct in models; nothing else changes.
var evaluators = map[models.RuleType]evaluatorFunc{
	models.RuleTypeImpossibleTravel:      evaluateImpossibleTravel,
	models.RuleTypeSimultaneousLocations: evaluateSimultaneousLocations,
	models.RuleTypeDeviceVelocity:        evaluateDeviceVelocity,
	models.RuleTypeConcurrentStreams:     evaluateConcurrentStreams,
	models.RuleTypeGeoRestriction:        evaluateGeoRestriction,
}

// EvaluateSession evaluates every applicable rule against one triggering
// session and returns one result per evaluated rule, in the caller's rule
// order. Rules are expected to be pre-filtered to the session's user and
// active state; context sessions to the same user's other sessions.
//
// Rules with an unknown type, inactive rules, and nil entries are skipped
// silently. The returned results include non-violated ones; callers
// filter on Violated.
func EvaluateSession(trigger *models.Session, rules []*models.Rule, contextSessions []*models.Session) []RuleEvaluationResult {
	if trigger == nil || len(rules) == 0 {
		return nil
	}

	results := make([]RuleEvaluationResult, 0, len(rules))
	for _, rule := range rules {
		if rule == nil || !rule.IsActive {
			continue
		}
		evaluate, ok := evaluators[rule.Type]
		if !ok {
			// Forward compatibility: a rule type introduced in config
			// before this binary learned it must not break the rest.
			continue
		}
		results = append(results, evaluate(trigger, rule, contextSessions))
	}
	return results
}

// Violated filters results down to the violated ones, preserving order.
func Violated(results []RuleEvaluationResult) []RuleEvaluationResult {
	var violated []RuleEvaluationResult
	for _, r := range results {
		if r.Violated {
			violated = append(violated, r)
		}
	}
	return violated
}

// Engine wraps pure evaluation with observability. It carries no
// evaluation state; two engines given identical inputs produce identical
// results.
type Engine struct{}

// NewEngine creates a detection engine.
func NewEngine() *Engine {
	return &Engine{}
}

// EvaluateSession runs EvaluateSession and records metrics and debug
// logging for the call.
func (e *Engine) EvaluateSession(trigger *models.Session, rules []*models.Rule, contextSessions []*models.Session) []RuleEvaluationResult {
	start := time.Now()
	results := EvaluateSession(trigger, rules, contextSessions)
	elapsed := time.Since(start)

	metrics.SessionsEvaluated.Inc()
	metrics.EvaluationDuration.Observe(elapsed.Seconds())

	violations := 0
	for _, r := range results {
		metrics.ObserveRuleEvaluation(string(r.Rule.Type), r.Violated)
		if r.Violated {
			violations++
		}
	}

	if violations > 0 {
		logging.Info().
			Str("session_id", trigger.ID).
			Str("server_user_id", trigger.ServerUserID).
			Int("rules", len(results)).
			Int("violations", violations).
			Msg("session violated detection rules")
	} else {
		logging.Debug().
			Str("session_id", trigger.ID).
			Int("rules", len(results)).
			Dur("elapsed", elapsed).
			Msg("session evaluated")
	}

	return results
}
