// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

package detection

import (
	"testing"
	"time"

	"github.com/ramphex/Tracearr-sub001/internal/geo"
	"github.com/ramphex/Tracearr-sub001/internal/models"
)

func impossibleTravelRule(maxSpeedKmh float64, excludePrivate bool) *models.Rule {
	return activeRule(models.RuleTypeImpossibleTravel, models.ImpossibleTravelParams{
		MaxSpeedKmh:       maxSpeedKmh,
		ExcludePrivateIPs: excludePrivate,
	})
}

func TestImpossibleTravel_NewYorkToTokyoInOneHour(t *testing.T) {
	prior := testSession("s-prior",
		withCoords(coordsTokyo),
		withDevice("device-b"),
		withStartedAt(testNow.Add(-time.Hour)),
	)
	trigger := testSession("s-trigger", withCoords(coordsNewYork), withDevice("device-a"))

	result := evaluateImpossibleTravel(trigger, impossibleTravelRule(500, false), []*models.Session{prior})
	if !result.Violated {
		t.Fatal("crossing the Pacific in an hour should violate")
	}

	if result.Data["travelSeconds"] != 3600.0 {
		t.Errorf("travelSeconds = %v, want 3600", result.Data["travelSeconds"])
	}
	if result.Data["maxSpeedKmh"] != 500.0 {
		t.Errorf("maxSpeedKmh = %v, want 500", result.Data["maxSpeedKmh"])
	}
	distanceKm, ok := result.Data["distanceKm"].(float64)
	if !ok || distanceKm < 10000 || distanceKm > 11500 {
		t.Errorf("distanceKm = %v, want roughly 10850", result.Data["distanceKm"])
	}
	speedKmh, ok := result.Data["speedKmh"].(float64)
	if !ok || speedKmh <= 500 {
		t.Errorf("speedKmh = %v, want > 500", result.Data["speedKmh"])
	}
}

func TestImpossibleTravel_SpeedEqualToMaxDoesNotViolate(t *testing.T) {
	prior := testSession("s-prior",
		withCoords(coordsBoston),
		withDevice("device-b"),
		withStartedAt(testNow.Add(-time.Hour)),
	)
	trigger := testSession("s-trigger", withCoords(coordsNewYork), withDevice("device-a"))

	distanceKm := geo.HaversineDistanceKm(
		coordsBoston[0], coordsBoston[1],
		coordsNewYork[0], coordsNewYork[1],
	)
	exactSpeed := geo.ImpliedSpeedKmh(distanceKm, 3600)

	result := evaluateImpossibleTravel(trigger, impossibleTravelRule(exactSpeed, false), []*models.Session{prior})
	if result.Violated {
		t.Errorf("speed exactly at the threshold must not violate (speed %v)", exactSpeed)
	}
}

func TestImpossibleTravel_NoPriorSession(t *testing.T) {
	trigger := testSession("s-trigger", withCoords(coordsNewYork))

	result := evaluateImpossibleTravel(trigger, impossibleTravelRule(500, false), nil)
	if result.Violated {
		t.Error("no prior session must not violate")
	}
}

func TestImpossibleTravel_SameDeviceIgnored(t *testing.T) {
	// Same device moving between IPs is a network change, not travel.
	prior := testSession("s-prior",
		withCoords(coordsTokyo),
		withDevice("device-a"),
		withStartedAt(testNow.Add(-time.Hour)),
	)
	trigger := testSession("s-trigger", withCoords(coordsNewYork), withDevice("device-a"))

	result := evaluateImpossibleTravel(trigger, impossibleTravelRule(500, false), []*models.Session{prior})
	if result.Violated {
		t.Error("prior session on the same device must not violate")
	}
}

func TestImpossibleTravel_PicksMostRecentPrior(t *testing.T) {
	older := testSession("s-older",
		withCoords(coordsTokyo),
		withDevice("device-b"),
		withStartedAt(testNow.Add(-6*time.Hour)),
	)
	recent := testSession("s-recent",
		withCoords(coordsBoston),
		withDevice("device-c"),
		withStartedAt(testNow.Add(-2*time.Hour)),
	)
	future := testSession("s-future",
		withCoords(coordsLondon),
		withDevice("device-d"),
		withStartedAt(testNow.Add(time.Hour)),
	)
	trigger := testSession("s-trigger", withCoords(coordsNewYork), withDevice("device-a"))

	result := evaluateImpossibleTravel(trigger, impossibleTravelRule(500, false), []*models.Session{older, future, recent})
	// Boston -> New York over two hours is well under 500 km/h.
	if result.Violated {
		t.Error("comparison should use the most recent prior session, not the farthest")
	}
	if from := result.Data["from"]; from != recent.LocationLabel() {
		t.Errorf("from = %v, want %v", from, recent.LocationLabel())
	}
}

func TestImpossibleTravel_ExcludePrivateIPs(t *testing.T) {
	prior := testSession("s-prior",
		withPrivateLocation(),
		withDevice("device-b"),
		withStartedAt(testNow.Add(-time.Hour)),
	)
	trigger := testSession("s-trigger", withCoords(coordsNewYork), withDevice("device-a"))

	result := evaluateImpossibleTravel(trigger, impossibleTravelRule(500, true), []*models.Session{prior})
	if result.Violated {
		t.Error("private prior session with exclusion enabled must not violate")
	}
}

func TestImpossibleTravel_MissingCoordinates(t *testing.T) {
	prior := testSession("s-prior", withDevice("device-b"), withStartedAt(testNow.Add(-time.Hour)))
	trigger := testSession("s-trigger", withCoords(coordsNewYork), withDevice("device-a"))

	result := evaluateImpossibleTravel(trigger, impossibleTravelRule(500, false), []*models.Session{prior})
	if result.Violated {
		t.Error("prior session without coordinates must not violate")
	}
}

func TestImpossibleTravel_ZeroTimeDelta(t *testing.T) {
	// Two sessions from distant cities at the same instant: infinite
	// implied speed violates, but the payload reports null, not Inf.
	prior := testSession("s-prior",
		withCoords(coordsTokyo),
		withDevice("device-b"),
		withStartedAt(testNow),
	)
	trigger := testSession("s-trigger", withCoords(coordsNewYork), withDevice("device-a"))

	result := evaluateImpossibleTravel(trigger, impossibleTravelRule(500, false), []*models.Session{prior})
	if !result.Violated {
		t.Fatal("simultaneous distant sessions should violate")
	}
	if result.Data["speedKmh"] != nil {
		t.Errorf("speedKmh = %v, want nil for infinite speed", result.Data["speedKmh"])
	}
}

func TestImpossibleTravel_MisconfiguredParamsFailOpen(t *testing.T) {
	prior := testSession("s-prior",
		withCoords(coordsTokyo),
		withDevice("device-b"),
		withStartedAt(testNow.Add(-time.Hour)),
	)
	trigger := testSession("s-trigger", withCoords(coordsNewYork), withDevice("device-a"))

	rule := activeRule(models.RuleTypeImpossibleTravel, models.ConcurrentStreamsParams{MaxStreams: 3})
	result := evaluateImpossibleTravel(trigger, rule, []*models.Session{prior})
	if result.Violated {
		t.Error("wrong params type must fail open")
	}
}
