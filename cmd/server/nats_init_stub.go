// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

//go:build !nats

package main

import (
	"fmt"

	"github.com/ramphex/Tracearr-sub001/internal/config"
	"github.com/ramphex/Tracearr-sub001/internal/detection"
	"github.com/ramphex/Tracearr-sub001/internal/geo"
	"github.com/ramphex/Tracearr-sub001/internal/supervisor"
)

// initNATS fails when the binary was built without NATS support but the
// configuration asks for event ingest. Build with -tags=nats.
func initNATS(_ *config.Config, _ *supervisor.Tree, _ *detection.Engine, _ *detection.RuleSet, _ detection.ContextProvider, _ *geo.Resolver) (func(), error) {
	return nil, fmt.Errorf("NATS ingest enabled but binary built without NATS support: rebuild with -tags=nats")
}
