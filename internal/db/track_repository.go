package db

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/unklstewy/airscope/pkg/fusion"
	"github.com/unklstewy/airscope/pkg/geo"
)

// TrackRepository handles database operations for track recording.
type TrackRepository struct {
	db       *DB
	observer geo.Point
}

// NewTrackRepository creates a repository recording tracks relative to
// the given observer location.
func NewTrackRepository(db *DB, observer geo.Point) *TrackRepository {
	return &TrackRepository{
		db:       db,
		observer: observer.Clamped(),
	}
}

// UpsertTrack inserts or updates one merged track and appends a position
// history row. Observer-relative range and bearing are computed at write
// time so queries do not need the observer location.
func (r *TrackRepository) UpsertTrack(ctx context.Context, ft *fusion.FusedTrack, now time.Time) error {
	pos := geo.Point{Latitude: ft.Latitude, Longitude: ft.Longitude}
	rangeNM := geo.DistanceNauticalMiles(r.observer, pos)
	bearing := geo.InitialBearing(r.observer, pos)

	prev, err := r.previousPosition(ctx, ft.ICAO)
	if err != nil {
		return fmt.Errorf("failed to query previous position: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO tracks (
			icao, callsign, latitude, longitude, altitude_ft,
			ground_speed_kts, heading_deg, vertical_rate_fpm,
			squawk, on_ground, primary_source,
			range_nm, bearing_deg,
			first_seen, last_seen, position_count, is_active
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $14, 1, TRUE
		)
		ON CONFLICT (icao) DO UPDATE SET
			callsign = EXCLUDED.callsign,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			altitude_ft = EXCLUDED.altitude_ft,
			ground_speed_kts = EXCLUDED.ground_speed_kts,
			heading_deg = EXCLUDED.heading_deg,
			vertical_rate_fpm = EXCLUDED.vertical_rate_fpm,
			squawk = EXCLUDED.squawk,
			on_ground = EXCLUDED.on_ground,
			primary_source = EXCLUDED.primary_source,
			range_nm = EXCLUDED.range_nm,
			bearing_deg = EXCLUDED.bearing_deg,
			last_seen = EXCLUDED.last_seen,
			position_count = tracks.position_count + 1,
			is_active = TRUE`,
		ft.ICAO, ft.Callsign,
		ft.Latitude, ft.Longitude, ft.Altitude,
		ft.GroundSpeed, ft.Heading, ft.VerticalRate,
		ft.Squawk, ft.OnGround, ft.PrimarySource,
		rangeNM, bearing,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert track: %w", err)
	}

	// Skip the history row when the aircraft has not moved since the
	// previous sample; parked aircraft would otherwise dominate the
	// position table.
	if prev != nil && positionsEqual(ft, prev) {
		return nil
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO track_positions (
			icao, latitude, longitude, altitude_ft,
			ground_speed_kts, heading_deg, vertical_rate_fpm,
			range_nm, bearing_deg, source, observed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		ft.ICAO, ft.Latitude, ft.Longitude, ft.Altitude,
		ft.GroundSpeed, ft.Heading, ft.VerticalRate,
		rangeNM, bearing, ft.PrimarySource, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert position history: %w", err)
	}
	return nil
}

// trackPosition is a previously recorded position, used to suppress
// redundant history rows.
type trackPosition struct {
	Latitude   float64
	Longitude  float64
	AltitudeFt int
}

// previousPosition fetches the stored position for an ICAO, or nil if
// the track is new.
func (r *TrackRepository) previousPosition(ctx context.Context, icao string) (*trackPosition, error) {
	var prev trackPosition
	err := r.db.QueryRowContext(ctx,
		`SELECT latitude, longitude, altitude_ft FROM tracks WHERE icao = $1`,
		icao,
	).Scan(&prev.Latitude, &prev.Longitude, &prev.AltitudeFt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &prev, nil
}

// positionsEqual reports whether the track's position matches a stored
// one closely enough to skip a history row. The tolerance is roughly
// ten meters of position and any altitude change at all.
func positionsEqual(ft *fusion.FusedTrack, prev *trackPosition) bool {
	const positionTolerance = 0.0001 // degrees

	return math.Abs(ft.Latitude-prev.Latitude) < positionTolerance &&
		math.Abs(ft.Longitude-prev.Longitude) < positionTolerance &&
		ft.Altitude == prev.AltitudeFt
}

// RecentPositions returns the stored position history for one aircraft,
// newest first, capped at limit rows.
func (r *TrackRepository) RecentPositions(ctx context.Context, icao string, limit int) ([]PositionRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT latitude, longitude, altitude_ft, ground_speed_kts,
		        heading_deg, range_nm, bearing_deg, observed_at
		 FROM track_positions
		 WHERE icao = $1
		 ORDER BY observed_at DESC
		 LIMIT $2`,
		icao, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var out []PositionRecord
	for rows.Next() {
		var p PositionRecord
		if err := rows.Scan(&p.Latitude, &p.Longitude, &p.AltitudeFt,
			&p.GroundSpeedKts, &p.HeadingDeg, &p.RangeNM, &p.BearingDeg,
			&p.ObservedAt); err != nil {
			return nil, fmt.Errorf("failed to scan position row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// PositionRecord is one stored position sample.
type PositionRecord struct {
	Latitude       float64
	Longitude      float64
	AltitudeFt     int
	GroundSpeedKts float64
	HeadingDeg     float64
	RangeNM        float64
	BearingDeg     float64
	ObservedAt     time.Time
}
