// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

type mockPruner struct {
	calls chan time.Time
	err   error
}

func (m *mockPruner) PruneBefore(_ context.Context, cutoff time.Time) (int64, error) {
	select {
	case m.calls <- cutoff:
	default:
	}
	if m.err != nil {
		return 0, m.err
	}
	return 1, nil
}

func TestPruneService_PrunesWithRetentionCutoff(t *testing.T) {
	pruner := &mockPruner{calls: make(chan time.Time, 1)}
	retention := 72 * time.Hour
	svc := NewPruneService(pruner, 5*time.Millisecond, retention)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	var cutoff time.Time
	select {
	case cutoff = <-pruner.calls:
	case <-time.After(time.Second):
		t.Fatal("pruner was not called")
	}

	want := time.Now().Add(-retention)
	if diff := cutoff.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Errorf("cutoff = %v, want about %v", cutoff, want)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve returned %v, want context.Canceled", err)
	}
}

func TestPruneService_ContinuesAfterPruneFailure(t *testing.T) {
	pruner := &mockPruner{calls: make(chan time.Time, 2), err: errors.New("db wedged")}
	svc := NewPruneService(pruner, 5*time.Millisecond, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	for i := 0; i < 2; i++ {
		select {
		case <-pruner.calls:
		case <-time.After(time.Second):
			t.Fatalf("pruner call %d never happened", i+1)
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve returned %v, want context.Canceled", err)
	}
}
