// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

package detection

import (
	"github.com/ramphex/Tracearr-sub001/internal/models"
)

// RuleSet holds the configured detection rules and answers which of them
// apply to a given user. It is immutable after construction, so lookups
// are safe from any goroutine.
type RuleSet struct {
	rules []*models.Rule
}

// NewRuleSet creates a rule set preserving the configured rule order.
// That order is the evaluation order, which keeps engine output
// deterministic.
func NewRuleSet(rules []*models.Rule) *RuleSet {
	kept := make([]*models.Rule, 0, len(rules))
	for _, r := range rules {
		if r != nil {
			kept = append(kept, r)
		}
	}
	return &RuleSet{rules: kept}
}

// RulesForUser returns the active rules applicable to serverUserID:
// account-global rules (no user scope) plus rules scoped to that user,
// in configured order.
func (rs *RuleSet) RulesForUser(serverUserID string) []*models.Rule {
	var applicable []*models.Rule
	for _, r := range rs.rules {
		if !r.IsActive {
			continue
		}
		if r.ServerUserID != nil && *r.ServerUserID != serverUserID {
			continue
		}
		applicable = append(applicable, r)
	}
	return applicable
}

// All returns every configured rule, active or not.
func (rs *RuleSet) All() []*models.Rule {
	return rs.rules
}
