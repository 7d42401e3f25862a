// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

// Package detection implements the rule violation detection engine.
//
// The engine decides, for one session lifecycle event and a window of
// contextual sessions, whether any configured rules are breached:
// account sharing across distant locations, too many devices, too many
// concurrent streams, or access from disallowed countries.
//
// Evaluation is pure: EvaluateSession performs no I/O, mutates none of
// its inputs, and holds no state between calls, which makes it safe to
// invoke from any number of concurrent consumers. The caller supplies
// the applicable rules and the user's context sessions; the Session
// Context Provider in internal/history is one such caller-side source.
//
// Rules are dispatched through an enum-keyed evaluator table. A rule
// whose type has no evaluator is skipped so that newly introduced rule
// types never break evaluation of the rest. Misconfigured parameters
// fail open: a rule that cannot evaluate reports no violation rather
// than raising, because a broken rule must never crash sibling rule
// evaluation on the session hot path.
package detection
