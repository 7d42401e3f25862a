// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

package detection

import (
	"time"

	"github.com/ramphex/Tracearr-sub001/internal/models"
)

// Fixed reference time so window arithmetic in tests is deterministic.
var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func floatPtr(v float64) *float64 { return &v }

// Known city coordinates used across evaluator tests.
var (
	coordsNewYork = [2]float64{40.7128, -74.0060}
	coordsTokyo   = [2]float64{35.6762, 139.6503}
	coordsBoston  = [2]float64{42.3601, -71.0589}
	coordsLondon  = [2]float64{51.5074, -0.1278}
)

type sessionOpt func(*models.Session)

func withDevice(deviceID string) sessionOpt {
	return func(s *models.Session) { s.DeviceID = deviceID }
}

func withIP(ip string) sessionOpt {
	return func(s *models.Session) { s.IPAddress = ip }
}

func withCoords(coords [2]float64) sessionOpt {
	return func(s *models.Session) {
		s.GeoLat = floatPtr(coords[0])
		s.GeoLon = floatPtr(coords[1])
		s.LocationKind = models.LocationKindPublic
	}
}

func withCountry(country string) sessionOpt {
	return func(s *models.Session) { s.GeoCountry = country }
}

func withPrivateLocation() sessionOpt {
	return func(s *models.Session) {
		s.GeoCountry = models.LocalNetworkSentinel
		s.LocationKind = models.LocationKindPrivate
	}
}

func withStartedAt(t time.Time) sessionOpt {
	return func(s *models.Session) { s.StartedAt = t }
}

func withStopped(t time.Time) sessionOpt {
	return func(s *models.Session) {
		s.State = models.SessionStateStopped
		s.StoppedAt = &t
	}
}

func testSession(id string, opts ...sessionOpt) *models.Session {
	s := &models.Session{
		ID:           id,
		ServerUserID: "user-1",
		State:        models.SessionStatePlaying,
		StartedAt:    testNow,
		IPAddress:    "203.0.113.10",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func activeRule(ruleType models.RuleType, params models.RuleParams) *models.Rule {
	return &models.Rule{
		ID:       "rule-" + string(ruleType),
		Type:     ruleType,
		IsActive: true,
		Params:   params,
	}
}
