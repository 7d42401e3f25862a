// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

// Package config defines Tracearr's configuration model and its layered
// loading: built-in defaults, then an optional YAML file, then
// environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/ramphex/Tracearr-sub001/internal/logging"
	"github.com/ramphex/Tracearr-sub001/internal/models"
)

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	GeoIP     GeoIPConfig     `koanf:"geoip"`
	NATS      NATSConfig      `koanf:"nats"`
	Detection DetectionConfig `koanf:"detection"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig controls the HTTP listener serving health and metrics.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// Addr returns the listen address in host:port form.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig controls the session history store.
type DatabaseConfig struct {
	// Path to the DuckDB file. Empty uses an in-memory database.
	Path string `koanf:"path"`
}

// GeoIPConfig controls IP geolocation.
type GeoIPConfig struct {
	// DatabasePath points at a MaxMind GeoLite2/GeoIP2 City mmdb file.
	// Empty disables resolution; sessions arrive pre-annotated or stay
	// unresolved.
	DatabasePath string `koanf:"database_path"`
}

// NATSConfig controls session event ingest and violation publishing.
type NATSConfig struct {
	Enabled         bool   `koanf:"enabled"`
	URL             string `koanf:"url"`
	SessionsTopic   string `koanf:"sessions_topic"`
	ViolationsTopic string `koanf:"violations_topic"`
	QueueGroup      string `koanf:"queue_group"`
	DurableName     string `koanf:"durable_name"`
}

// DetectionConfig controls the rule engine and its context window.
type DetectionConfig struct {
	Enabled bool `koanf:"enabled"`

	// LookbackHours bounds how far behind a trigger non-active sessions
	// still count as context. Must cover the largest rule window.
	LookbackHours int `koanf:"lookback_hours"`

	// MaxContextSessions caps the context slice per evaluation.
	MaxContextSessions int `koanf:"max_context_sessions"`

	Rules []RuleConfig `koanf:"rules"`
}

// RuleConfig is the on-disk form of a detection rule. Params are kept
// raw here and decoded against the rule type at load time.
type RuleConfig struct {
	ID           string         `koanf:"id"`
	Type         string         `koanf:"type"`
	ServerUserID string         `koanf:"server_user_id"`
	Active       *bool          `koanf:"active"`
	Params       map[string]any `koanf:"params"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Output string `koanf:"output"`
}

// Validate checks cross-field constraints not expressible per-rule.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Detection.LookbackHours <= 0 {
		return fmt.Errorf("detection.lookback_hours must be positive, got %d", c.Detection.LookbackHours)
	}
	if c.Detection.MaxContextSessions <= 0 {
		return fmt.Errorf("detection.max_context_sessions must be positive, got %d", c.Detection.MaxContextSessions)
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		return fmt.Errorf("nats.url required when nats.enabled")
	}
	seen := make(map[string]struct{}, len(c.Detection.Rules))
	for i, r := range c.Detection.Rules {
		if r.ID == "" {
			return fmt.Errorf("detection.rules[%d]: id required", i)
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("detection.rules[%d]: duplicate id %q", i, r.ID)
		}
		seen[r.ID] = struct{}{}
		if r.Type == "" {
			return fmt.Errorf("detection.rules[%d] (%s): type required", i, r.ID)
		}
	}
	return nil
}

// EngineRules converts configured rules into engine rules, decoding and
// validating params against each rule type. Rules of unknown types are
// returned as-is with nil params; the engine skips them, so a config
// written for a newer release still loads.
func (c *DetectionConfig) EngineRules() ([]*models.Rule, error) {
	rules := make([]*models.Rule, 0, len(c.Rules))
	for i, rc := range c.Rules {
		rule := &models.Rule{
			ID:       rc.ID,
			Type:     models.RuleType(rc.Type),
			IsActive: rc.Active == nil || *rc.Active,
		}
		if rc.ServerUserID != "" {
			id := rc.ServerUserID
			rule.ServerUserID = &id
		}

		raw, err := json.Marshal(rc.Params)
		if err != nil {
			return nil, fmt.Errorf("detection.rules[%d] (%s): encoding params: %w", i, rc.ID, err)
		}

		params, err := models.DecodeRuleParams(rule.Type, raw)
		switch {
		case err == nil:
			rule.Params = params
		case errors.Is(err, models.ErrUnknownRuleType):
			// Forward compatible: keep the rule, engine skips it.
			logging.Warn().
				Str("rule_id", rc.ID).
				Str("type", rc.Type).
				Interface("known_types", models.KnownRuleTypes).
				Msg("unknown rule type, rule will not be evaluated")
		default:
			return nil, fmt.Errorf("detection.rules[%d] (%s): %w", i, rc.ID, err)
		}

		rules = append(rules, rule)
	}
	return rules, nil
}
