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

func simultaneousLocationsRule(minDistanceKm float64, excludePrivate bool) *models.Rule {
	return activeRule(models.RuleTypeSimultaneousLocations, models.SimultaneousLocationsParams{
		MinDistanceKm:     minDistanceKm,
		ExcludePrivateIPs: excludePrivate,
	})
}

func TestSimultaneousLocations_DistantActiveSessions(t *testing.T) {
	trigger := testSession("s-trigger", withCoords(coordsNewYork))
	other := testSession("s-other", withCoords(coordsLondon))

	result := evaluateSimultaneousLocations(trigger, simultaneousLocationsRule(100, false), []*models.Session{other})
	if !result.Violated {
		t.Fatal("active sessions an ocean apart should violate")
	}
	if result.Data["minDistanceKm"] != 100.0 {
		t.Errorf("minDistanceKm = %v, want 100", result.Data["minDistanceKm"])
	}
	distanceKm, ok := result.Data["distanceKm"].(float64)
	if !ok || distanceKm < 5000 || distanceKm > 6000 {
		t.Errorf("distanceKm = %v, want roughly 5570", result.Data["distanceKm"])
	}
}

func TestSimultaneousLocations_ReportsFarthestPair(t *testing.T) {
	trigger := testSession("s-trigger", withCoords(coordsNewYork))
	near := testSession("s-near", withCoords(coordsBoston))
	far := testSession("s-far", withCoords(coordsTokyo))

	result := evaluateSimultaneousLocations(trigger, simultaneousLocationsRule(100, false), []*models.Session{near, far})
	if !result.Violated {
		t.Fatal("expected violation")
	}

	wantDist := geo.HaversineDistanceKm(coordsNewYork[0], coordsNewYork[1], coordsTokyo[0], coordsTokyo[1])
	gotDist, _ := result.Data["distanceKm"].(float64)
	if diff := gotDist - wantDist; diff > 1 || diff < -1 {
		t.Errorf("distanceKm = %v, want about %v (the farthest pair)", gotDist, wantDist)
	}
}

func TestSimultaneousLocations_DistanceEqualToMinDoesNotViolate(t *testing.T) {
	trigger := testSession("s-trigger", withCoords(coordsNewYork))
	other := testSession("s-other", withCoords(coordsBoston))

	exact := geo.HaversineDistanceKm(coordsNewYork[0], coordsNewYork[1], coordsBoston[0], coordsBoston[1])
	result := evaluateSimultaneousLocations(trigger, simultaneousLocationsRule(exact, false), []*models.Session{other})
	if result.Violated {
		t.Error("distance exactly at the threshold must not violate")
	}
}

func TestSimultaneousLocations_StoppedSessionsIgnored(t *testing.T) {
	trigger := testSession("s-trigger", withCoords(coordsNewYork))
	stopped := testSession("s-stopped", withCoords(coordsTokyo), withStopped(testNow.Add(-time.Minute)))

	result := evaluateSimultaneousLocations(trigger, simultaneousLocationsRule(100, false), []*models.Session{stopped})
	if result.Violated {
		t.Error("stopped sessions are not simultaneous")
	}
}

func TestSimultaneousLocations_PrivateTriggerExcluded(t *testing.T) {
	trigger := testSession("s-trigger", withPrivateLocation())
	other := testSession("s-other", withCoords(coordsTokyo))

	result := evaluateSimultaneousLocations(trigger, simultaneousLocationsRule(100, true), []*models.Session{other})
	if result.Violated {
		t.Error("private trigger with exclusion enabled must not violate")
	}
}

func TestSimultaneousLocations_PrivateContextSkipped(t *testing.T) {
	trigger := testSession("s-trigger", withCoords(coordsNewYork))
	private := testSession("s-private", withPrivateLocation())

	result := evaluateSimultaneousLocations(trigger, simultaneousLocationsRule(100, true), []*models.Session{private})
	if result.Violated {
		t.Error("private context session with exclusion enabled must not violate")
	}
}

func TestSimultaneousLocations_NoCoordinatesFailsQuietly(t *testing.T) {
	trigger := testSession("s-trigger")
	other := testSession("s-other", withCoords(coordsTokyo))

	result := evaluateSimultaneousLocations(trigger, simultaneousLocationsRule(100, false), []*models.Session{other})
	if result.Violated {
		t.Error("trigger without coordinates must not violate")
	}
}
