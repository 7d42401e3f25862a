// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

package detection

import (
	"testing"
	"time"

	"github.com/ramphex/Tracearr-sub001/internal/models"
)

func concurrentStreamsRule(maxStreams int, excludePrivate bool) *models.Rule {
	return activeRule(models.RuleTypeConcurrentStreams, models.ConcurrentStreamsParams{
		MaxStreams:        maxStreams,
		ExcludePrivateIPs: excludePrivate,
	})
}

func TestConcurrentStreams_OverLimit(t *testing.T) {
	trigger := testSession("s-trigger")
	context := []*models.Session{
		testSession("s-a"),
		testSession("s-b"),
	}

	result := evaluateConcurrentStreams(trigger, concurrentStreamsRule(2, false), context)
	if !result.Violated {
		t.Fatal("3 active streams with a limit of 2 should violate")
	}
	if result.Data["activeStreamCount"] != 3 {
		t.Errorf("activeStreamCount = %v, want 3", result.Data["activeStreamCount"])
	}
	if result.Data["maxStreams"] != 2 {
		t.Errorf("maxStreams = %v, want 2", result.Data["maxStreams"])
	}
}

func TestConcurrentStreams_CountEqualToMaxDoesNotViolate(t *testing.T) {
	trigger := testSession("s-trigger")
	context := []*models.Session{
		testSession("s-a"),
		testSession("s-b"),
	}

	result := evaluateConcurrentStreams(trigger, concurrentStreamsRule(3, false), context)
	if result.Violated {
		t.Error("stream count exactly at the limit must not violate")
	}
}

func TestConcurrentStreams_StoppedAndPausedHandling(t *testing.T) {
	trigger := testSession("s-trigger")
	context := []*models.Session{
		// Paused still holds a stream slot.
		func() *models.Session {
			s := testSession("s-paused")
			s.State = models.SessionStatePaused
			return s
		}(),
		testSession("s-stopped", withStopped(testNow.Add(-time.Minute))),
	}

	result := evaluateConcurrentStreams(trigger, concurrentStreamsRule(5, false), context)
	if result.Data["activeStreamCount"] != 2 {
		t.Errorf("activeStreamCount = %v, want 2 (trigger + paused)", result.Data["activeStreamCount"])
	}
}

func TestConcurrentStreams_TriggerNotDoubleCounted(t *testing.T) {
	trigger := testSession("s-trigger")
	// The trigger also present in context must count once.
	context := []*models.Session{trigger, testSession("s-a")}

	result := evaluateConcurrentStreams(trigger, concurrentStreamsRule(5, false), context)
	if result.Data["activeStreamCount"] != 2 {
		t.Errorf("activeStreamCount = %v, want 2", result.Data["activeStreamCount"])
	}
}

func TestConcurrentStreams_ExcludePrivateIPs(t *testing.T) {
	// Two LAN streams and one public stream: only the public one counts.
	trigger := testSession("s-trigger", withPrivateLocation())
	context := []*models.Session{
		testSession("s-lan", withPrivateLocation()),
		testSession("s-wan", withCoords(coordsNewYork)),
	}

	result := evaluateConcurrentStreams(trigger, concurrentStreamsRule(1, true), context)
	if result.Violated {
		t.Error("one public stream within the limit must not violate")
	}
	if result.Data["activeStreamCount"] != 1 {
		t.Errorf("activeStreamCount = %v, want 1", result.Data["activeStreamCount"])
	}
}
