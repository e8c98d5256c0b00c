// Package track maintains the set of known aircraft tracks: sparse
// report merging, trail history, staleness, and removal. The store is
// owned by the frame loop and is not safe for concurrent use; feed
// workers hand it data through snapshots, never directly.
package track

import "time"

// Report is a sparse update for a single aircraft. Pointer fields
// distinguish "not supplied" (nil) from a real value, so a report only
// overwrites the fields it carries.
type Report struct {
	// ICAO is the 24-bit transponder address in hex. Reports without an
	// identifier cannot be tracked and are dropped by callers.
	ICAO string

	// Callsign is the flight identifier, when broadcast.
	Callsign *string

	// Latitude and Longitude are the position in decimal degrees. A
	// report carries both or neither.
	Latitude  *float64
	Longitude *float64

	// Altitude is barometric altitude in feet.
	Altitude *int

	// Heading is the ground track in degrees from true north.
	Heading *float64

	// GroundSpeed is in knots.
	GroundSpeed *float64

	// VerticalRate is the climb/descent rate in feet per minute.
	VerticalRate *int

	// Squawk is the assigned transponder code.
	Squawk *string

	// OnGround reports whether the aircraft is on the surface.
	OnGround *bool

	// Alert, Emergency, and SPI are transponder status flags.
	Alert     *bool
	Emergency *bool
	SPI       *bool
}

// HasPosition reports whether the report carries a complete position.
func (r Report) HasPosition() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// TrailPoint is one historical position sample on a track's trail.
type TrailPoint struct {
	// Latitude and Longitude are in decimal degrees.
	Latitude  float64
	Longitude float64

	// Timestamp is when the sample was recorded.
	Timestamp time.Time
}

// Track is the merged, current state of one aircraft.
type Track struct {
	// ICAO is the 24-bit transponder address in hex.
	ICAO string

	// Callsign is the most recent flight identifier.
	Callsign string

	// Latitude and Longitude are the current position in decimal degrees.
	Latitude  float64
	Longitude float64

	// Altitude is barometric altitude in feet. Only meaningful when
	// AltitudeKnown is set; zero is a real altitude, not a sentinel.
	Altitude int

	// AltitudeKnown reports whether any report has carried an altitude.
	AltitudeKnown bool

	// Heading is the ground track in degrees from true north.
	Heading float64

	// GroundSpeed is in knots.
	GroundSpeed float64

	// VerticalRate is the climb/descent rate in feet per minute.
	VerticalRate int

	// Squawk is the assigned transponder code.
	Squawk string

	// OnGround reports whether the aircraft is on the surface.
	OnGround bool

	// Alert, Emergency, and SPI are transponder status flags.
	Alert     bool
	Emergency bool
	SPI       bool

	// LastSeen is when any report last mentioned this aircraft.
	LastSeen time.Time

	// Trail is the position history, oldest first.
	Trail []TrailPoint

	// LastTrailSample is when the newest trail point was recorded.
	LastTrailSample time.Time
}

// Apply merges a sparse report into the track. Fields the report omits
// are left unchanged; absence means "no new data", never "cleared".
func (t *Track) Apply(r Report) {
	if r.Callsign != nil {
		t.Callsign = *r.Callsign
	}
	if r.HasPosition() {
		t.Latitude = *r.Latitude
		t.Longitude = *r.Longitude
	}
	if r.Altitude != nil {
		t.Altitude = *r.Altitude
		t.AltitudeKnown = true
	}
	if r.Heading != nil {
		t.Heading = *r.Heading
	}
	if r.GroundSpeed != nil {
		t.GroundSpeed = *r.GroundSpeed
	}
	if r.VerticalRate != nil {
		t.VerticalRate = *r.VerticalRate
	}
	if r.Squawk != nil {
		t.Squawk = *r.Squawk
	}
	if r.OnGround != nil {
		t.OnGround = *r.OnGround
	}
	if r.Alert != nil {
		t.Alert = *r.Alert
	}
	if r.Emergency != nil {
		t.Emergency = *r.Emergency
	}
	if r.SPI != nil {
		t.SPI = *r.SPI
	}
}
