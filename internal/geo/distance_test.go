// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

package geo

import (
	"math"
	"testing"

	"github.com/ramphex/Tracearr-sub001/internal/models"
)

func TestHaversineDistanceKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantKm                 float64
		tolerance              float64
	}{
		{
			name: "identical points",
			lat1: 40.7128, lon1: -74.0060,
			lat2: 40.7128, lon2: -74.0060,
			wantKm: 0, tolerance: 0.001,
		},
		{
			name: "new york to los angeles",
			lat1: 40.7128, lon1: -74.0060,
			lat2: 34.0522, lon2: -118.2437,
			wantKm: 3936, tolerance: 40,
		},
		{
			name: "new york to tokyo",
			lat1: 40.7128, lon1: -74.0060,
			lat2: 35.6762, lon2: 139.6503,
			wantKm: 10850, tolerance: 110,
		},
		{
			name: "london to paris",
			lat1: 51.5074, lon1: -0.1278,
			lat2: 48.8566, lon2: 2.3522,
			wantKm: 344, tolerance: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineDistanceKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("HaversineDistanceKm() = %v, want %v +/- %v", got, tt.wantKm, tt.tolerance)
			}

			reversed := HaversineDistanceKm(tt.lat2, tt.lon2, tt.lat1, tt.lon1)
			if math.Abs(got-reversed) > 1e-9 {
				t.Errorf("distance not symmetric: %v vs %v", got, reversed)
			}
		})
	}
}

func TestImpliedSpeedKmh(t *testing.T) {
	tests := []struct {
		name         string
		distanceKm   float64
		deltaSeconds float64
		want         float64
	}{
		{name: "100km in one hour", distanceKm: 100, deltaSeconds: 3600, want: 100},
		{name: "50km in 30 minutes", distanceKm: 50, deltaSeconds: 1800, want: 100},
		{name: "zero distance", distanceKm: 0, deltaSeconds: 3600, want: 0},
		{name: "zero distance zero time", distanceKm: 0, deltaSeconds: 0, want: 0},
		{name: "negative distance", distanceKm: -5, deltaSeconds: 3600, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ImpliedSpeedKmh(tt.distanceKm, tt.deltaSeconds); got != tt.want {
				t.Errorf("ImpliedSpeedKmh(%v, %v) = %v, want %v", tt.distanceKm, tt.deltaSeconds, got, tt.want)
			}
		})
	}

	if got := ImpliedSpeedKmh(100, 0); !math.IsInf(got, 1) {
		t.Errorf("zero time with distance should be +Inf, got %v", got)
	}
	if got := ImpliedSpeedKmh(100, -10); !math.IsInf(got, 1) {
		t.Errorf("negative time with distance should be +Inf, got %v", got)
	}
}

func TestIsPrivateLocation(t *testing.T) {
	lat, lon := 40.7128, -74.0060

	tests := []struct {
		name    string
		session *models.Session
		want    bool
	}{
		{
			name:    "classified private",
			session: &models.Session{LocationKind: models.LocationKindPrivate},
			want:    true,
		},
		{
			name:    "legacy sentinel with stale coordinates",
			session: &models.Session{GeoCountry: models.LocalNetworkSentinel, GeoLat: &lat, GeoLon: &lon},
			want:    true,
		},
		{
			name:    "public with coordinates",
			session: &models.Session{GeoCountry: "US", GeoLat: &lat, GeoLon: &lon},
			want:    false,
		},
		{
			name:    "unresolved",
			session: &models.Session{},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPrivateLocation(tt.session); got != tt.want {
				t.Errorf("IsPrivateLocation() = %v, want %v", got, tt.want)
			}
		})
	}
}
