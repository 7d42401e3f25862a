// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

// Package history implements the Session Context Provider: a DuckDB
// backed store of session snapshots that supplies the detection engine
// with a user's prior and active sessions.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ramphex/Tracearr-sub001/internal/metrics"
	"github.com/ramphex/Tracearr-sub001/internal/models"
)

// Config bounds the context window handed to the engine.
type Config struct {
	// Lookback is how far behind a trigger's start time non-active
	// sessions are still considered context.
	Lookback time.Duration

	// MaxSessions caps the context slice per evaluation.
	MaxSessions int
}

// DefaultConfig covers the widest rule window shipped by default
// (device_velocity at 24h) with headroom for custom rules.
func DefaultConfig() Config {
	return Config{
		Lookback:    72 * time.Hour,
		MaxSessions: 500,
	}
}

// Store is a DuckDB-backed session snapshot store.
type Store struct {
	db  *sql.DB
	cfg Config
}

// NewStore creates a store over db, applying defaults for zero config
// values.
func NewStore(db *sql.DB, cfg Config) *Store {
	if cfg.Lookback <= 0 {
		cfg.Lookback = DefaultConfig().Lookback
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultConfig().MaxSessions
	}
	return &Store{db: db, cfg: cfg}
}

// Init creates the sessions table and its index.
func (s *Store) Init(ctx context.Context) error {
	const table = `
		CREATE TABLE IF NOT EXISTS sessions (
			id VARCHAR PRIMARY KEY,
			server_user_id VARCHAR NOT NULL,
			device_id VARCHAR,
			state VARCHAR NOT NULL,
			started_at TIMESTAMP NOT NULL,
			stopped_at TIMESTAMP,
			ip_address VARCHAR,
			geo_city VARCHAR,
			geo_region VARCHAR,
			geo_country VARCHAR,
			geo_lat DOUBLE,
			geo_lon DOUBLE,
			location_kind VARCHAR
		)`
	const index = `
		CREATE INDEX IF NOT EXISTS idx_sessions_user_started
			ON sessions (server_user_id, started_at)`

	if _, err := s.db.ExecContext(ctx, table); err != nil {
		return fmt.Errorf("creating sessions table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("creating sessions index: %w", err)
	}
	return nil
}

// RecordSession upserts a session snapshot. Heartbeats and stop events
// overwrite the stored row so the store always reflects the latest
// state per session.
func (s *Store) RecordSession(ctx context.Context, session *models.Session) error {
	start := time.Now()

	const query = `
		INSERT INTO sessions (
			id, server_user_id, device_id, state, started_at, stopped_at,
			ip_address, geo_city, geo_region, geo_country, geo_lat, geo_lon,
			location_kind
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			state = excluded.state,
			stopped_at = excluded.stopped_at,
			ip_address = excluded.ip_address,
			geo_city = excluded.geo_city,
			geo_region = excluded.geo_region,
			geo_country = excluded.geo_country,
			geo_lat = excluded.geo_lat,
			geo_lon = excluded.geo_lon,
			location_kind = excluded.location_kind`

	_, err := s.db.ExecContext(ctx, query,
		session.ID,
		session.ServerUserID,
		nullString(session.DeviceID),
		string(session.State),
		session.StartedAt,
		nullTime(session.StoppedAt),
		nullString(session.IPAddress),
		nullString(session.GeoCity),
		nullString(session.GeoRegion),
		nullString(session.GeoCountry),
		nullFloat(session.GeoLat),
		nullFloat(session.GeoLon),
		nullString(string(session.LocationKind)),
	)

	metrics.ContextQueryDuration.WithLabelValues("record_session").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ContextQueryErrors.WithLabelValues("record_session").Inc()
		return fmt.Errorf("upserting session %s: %w", session.ID, err)
	}
	return nil
}

// ContextSessions returns the user's other sessions relevant to
// evaluating trigger: still-active sessions regardless of age, plus any
// session started within the lookback window before the trigger, newest
// first.
func (s *Store) ContextSessions(ctx context.Context, serverUserID string, trigger *models.Session) ([]*models.Session, error) {
	start := time.Now()
	cutoff := trigger.StartedAt.Add(-s.cfg.Lookback)

	const query = `
		SELECT
			id, server_user_id, device_id, state, started_at, stopped_at,
			ip_address, geo_city, geo_region, geo_country, geo_lat, geo_lon,
			location_kind
		FROM sessions
		WHERE server_user_id = ?
		  AND id != ?
		  AND (stopped_at IS NULL OR started_at >= ?)
		ORDER BY started_at DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, serverUserID, trigger.ID, cutoff, s.cfg.MaxSessions)
	metrics.ContextQueryDuration.WithLabelValues("context_sessions").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ContextQueryErrors.WithLabelValues("context_sessions").Inc()
		return nil, fmt.Errorf("querying context sessions for %s: %w", serverUserID, err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning context session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		metrics.ContextQueryErrors.WithLabelValues("context_sessions").Inc()
		return nil, fmt.Errorf("iterating context sessions: %w", err)
	}

	return sessions, nil
}

func scanSession(rows *sql.Rows) (*models.Session, error) {
	var (
		session      models.Session
		deviceID     sql.NullString
		stoppedAt    sql.NullTime
		ipAddress    sql.NullString
		geoCity      sql.NullString
		geoRegion    sql.NullString
		geoCountry   sql.NullString
		geoLat       sql.NullFloat64
		geoLon       sql.NullFloat64
		locationKind sql.NullString
	)

	err := rows.Scan(
		&session.ID,
		&session.ServerUserID,
		&deviceID,
		&session.State,
		&session.StartedAt,
		&stoppedAt,
		&ipAddress,
		&geoCity,
		&geoRegion,
		&geoCountry,
		&geoLat,
		&geoLon,
		&locationKind,
	)
	if err != nil {
		return nil, err
	}

	session.DeviceID = deviceID.String
	session.IPAddress = ipAddress.String
	session.GeoCity = geoCity.String
	session.GeoRegion = geoRegion.String
	session.GeoCountry = geoCountry.String
	session.LocationKind = models.LocationKind(locationKind.String)
	if stoppedAt.Valid {
		t := stoppedAt.Time
		session.StoppedAt = &t
	}
	if geoLat.Valid {
		v := geoLat.Float64
		session.GeoLat = &v
	}
	if geoLon.Valid {
		v := geoLon.Float64
		session.GeoLon = &v
	}

	return &session, nil
}

// PruneBefore deletes stopped sessions older than cutoff. The supervised
// prune service calls it periodically; active sessions are never pruned.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE stopped_at IS NOT NULL AND started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned sessions: %w", err)
	}
	return n, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
