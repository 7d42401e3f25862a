// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

//go:build !nats

package detection

// SessionEventsTopic is the NATS subject pattern for session lifecycle
// events. Unused in builds without NATS support.
const SessionEventsTopic = "sessions.events"
