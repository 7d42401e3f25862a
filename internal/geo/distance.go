// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

package geo

import (
	"math"

	"github.com/ramphex/Tracearr-sub001/internal/models"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// HaversineDistanceKm returns the great-circle distance in kilometers
// between two points. The result is symmetric and zero for identical
// points.
func HaversineDistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180.0
	lon1Rad := lon1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0
	lon2Rad := lon2 * math.Pi / 180.0

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// ImpliedSpeedKmh returns the speed required to cover distanceKm in
// deltaSeconds. A non-positive delta with positive distance yields +Inf:
// two observations at the same instant from different places can never be
// legitimate travel. Zero distance yields zero regardless of delta.
func ImpliedSpeedKmh(distanceKm, deltaSeconds float64) float64 {
	if distanceKm <= 0 {
		return 0
	}
	if deltaSeconds <= 0 {
		return math.Inf(1)
	}
	return distanceKm / (deltaSeconds / 3600.0)
}

// IsPrivateLocation reports whether the session's network location is a
// private or carrier-NAT address. The session's location classification
// (including the legacy sentinel) is authoritative over coordinate
// presence.
func IsPrivateLocation(s *models.Session) bool {
	return s.Location() == models.LocationKindPrivate
}
