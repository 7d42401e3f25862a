// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

package models

import (
	"time"
)

// SessionState is the playback state reported by the media server.
type SessionState string

const (
	SessionStatePlaying SessionState = "playing"
	SessionStatePaused  SessionState = "paused"
	SessionStateStopped SessionState = "stopped"
)

// LocationKind classifies how a session's network location resolved.
// It is set once by the upstream geo-resolution step so detection rules
// never have to reason about sentinel strings or coordinate presence.
type LocationKind string

const (
	// LocationKindPublic means the IP resolved to real-world coordinates.
	LocationKindPublic LocationKind = "public"

	// LocationKindPrivate means the IP is in a non-routable or carrier-NAT
	// range (RFC1918, loopback, link-local, CGNAT) and has no public location.
	LocationKindPrivate LocationKind = "private"

	// LocationKindUnresolved means geolocation was attempted but produced
	// no usable result.
	LocationKindUnresolved LocationKind = "unresolved"
)

// LocalNetworkSentinel is the country value written by geo resolution for
// private and carrier-NAT addresses. It is kept for wire compatibility with
// older producers that carry no LocationKind field; Location() treats it as
// authoritative even when coordinates are present.
const LocalNetworkSentinel = "Local Network"

// Session is a snapshot of one playback session on a media server.
// It is externally owned and read-only to the detection engine.
type Session struct {
	ID           string       `json:"id"`
	ServerUserID string       `json:"serverUserId"`
	DeviceID     string       `json:"deviceId,omitempty"`
	State        SessionState `json:"state"`
	StartedAt    time.Time    `json:"startedAt"`
	StoppedAt    *time.Time   `json:"stoppedAt,omitempty"`

	IPAddress  string   `json:"ipAddress"`
	GeoCity    string   `json:"geoCity,omitempty"`
	GeoRegion  string   `json:"geoRegion,omitempty"`
	GeoCountry string   `json:"geoCountry,omitempty"`
	GeoLat     *float64 `json:"geoLat,omitempty"`
	GeoLon     *float64 `json:"geoLon,omitempty"`

	// LocationKind is filled by the geo resolver. Sessions ingested from
	// producers that predate the field leave it empty; Location() derives
	// the kind from the legacy sentinel and coordinates in that case.
	LocationKind LocationKind `json:"locationKind,omitempty"`
}

// Active reports whether the session is currently streaming.
// A session is active while it has not stopped: state is playing or paused
// and no stop time has been recorded.
func (s *Session) Active() bool {
	return s.State != SessionStateStopped && s.StoppedAt == nil
}

// Location returns the session's location classification.
//
// The legacy "Local Network" sentinel wins over coordinate presence: geo
// resolution has been observed writing stale coordinates alongside the
// sentinel for CGNAT addresses, and treating those as public would produce
// false impossible-travel violations.
func (s *Session) Location() LocationKind {
	if s.LocationKind != "" {
		return s.LocationKind
	}
	if s.GeoCountry == LocalNetworkSentinel {
		return LocationKindPrivate
	}
	if s.GeoLat != nil && s.GeoLon != nil {
		return LocationKindPublic
	}
	return LocationKindUnresolved
}

// HasCoordinates reports whether the session carries usable public
// coordinates. Private sessions never have usable coordinates, even when
// lat/lon happen to be present.
func (s *Session) HasCoordinates() bool {
	return s.Location() == LocationKindPublic && s.GeoLat != nil && s.GeoLon != nil
}

// LocationLabel returns a human-readable location string such as
// "Austin, Texas, US". Private sessions are labelled with the sentinel.
func (s *Session) LocationLabel() string {
	if s.Location() == LocationKindPrivate {
		return LocalNetworkSentinel
	}

	parts := make([]string, 0, 3)
	for _, p := range []string{s.GeoCity, s.GeoRegion, s.GeoCountry} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "Unknown"
	}

	label := parts[0]
	for _, p := range parts[1:] {
		label += ", " + p
	}
	return label
}
