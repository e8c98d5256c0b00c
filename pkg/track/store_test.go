package track

import (
	"math"
	"reflect"
	"testing"
	"time"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }
func sp(v string) *string   { return &v }
func bp(v bool) *bool       { return &v }

var t0 = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func positionReport(icao string, lat, lon float64) Report {
	return Report{ICAO: icao, Latitude: fp(lat), Longitude: fp(lon)}
}

func TestUpsertIgnoresPositionlessUnknown(t *testing.T) {
	s := NewStore(Config{})
	s.Upsert(Report{ICAO: "A1B2C3", Callsign: sp("UAL123"), Altitude: ip(35000)}, t0)

	if s.Len() != 0 {
		t.Fatalf("created a track without a position: %d tracks", s.Len())
	}
}

func TestUpsertCreatesTrackWithPosition(t *testing.T) {
	s := NewStore(Config{})
	s.Upsert(positionReport("A1B2C3", 37.5, -97.2), t0)

	tr, ok := s.Get("A1B2C3")
	if !ok {
		t.Fatal("track not created")
	}
	if tr.Latitude != 37.5 || tr.Longitude != -97.2 {
		t.Errorf("position = (%v, %v), want (37.5, -97.2)", tr.Latitude, tr.Longitude)
	}
	if !tr.LastSeen.Equal(t0) {
		t.Errorf("LastSeen = %v, want %v", tr.LastSeen, t0)
	}
}

func TestUpsertSparseMerge(t *testing.T) {
	s := NewStore(Config{})

	full := positionReport("A1B2C3", 37.5, -97.2)
	full.Callsign = sp("UAL123")
	full.Altitude = ip(35000)
	full.Heading = fp(270.0)
	full.GroundSpeed = fp(450.0)
	full.Squawk = sp("1200")
	s.Upsert(full, t0)

	// A later report with only altitude must not disturb anything else.
	s.Upsert(Report{ICAO: "A1B2C3", Altitude: ip(34000)}, t0.Add(time.Second))

	tr, _ := s.Get("A1B2C3")
	if tr.Altitude != 34000 {
		t.Errorf("Altitude = %d, want 34000", tr.Altitude)
	}
	if tr.Callsign != "UAL123" {
		t.Errorf("Callsign cleared by sparse update: %q", tr.Callsign)
	}
	if tr.Latitude != 37.5 || tr.Longitude != -97.2 {
		t.Errorf("position cleared by sparse update: (%v, %v)", tr.Latitude, tr.Longitude)
	}
	if tr.Heading != 270.0 || tr.GroundSpeed != 450.0 || tr.Squawk != "1200" {
		t.Errorf("fields cleared by sparse update: %+v", tr)
	}
	if !tr.LastSeen.Equal(t0.Add(time.Second)) {
		t.Errorf("LastSeen not refreshed: %v", tr.LastSeen)
	}
}

func TestApplyStatusFlags(t *testing.T) {
	tr := &Track{ICAO: "A1B2C3"}
	tr.Apply(Report{ICAO: "A1B2C3", OnGround: bp(true), Emergency: bp(true), SPI: bp(true), Alert: bp(true)})
	if !tr.OnGround || !tr.Emergency || !tr.SPI || !tr.Alert {
		t.Errorf("status flags not applied: %+v", tr)
	}

	// A report with no flags leaves them alone.
	tr.Apply(Report{ICAO: "A1B2C3", Altitude: ip(100)})
	if !tr.Emergency {
		t.Error("Emergency flag cleared by sparse update")
	}
}

func TestAltitudeUnknownUntilReported(t *testing.T) {
	s := NewStore(Config{})
	s.Upsert(positionReport("A1B2C3", 37.5, -97.2), t0)

	tr, _ := s.Get("A1B2C3")
	if tr.AltitudeKnown {
		t.Error("AltitudeKnown set before any altitude report")
	}

	// Zero feet is a real altitude, not a missing one.
	s.Upsert(Report{ICAO: "A1B2C3", Altitude: ip(0)}, t0.Add(time.Second))
	tr, _ = s.Get("A1B2C3")
	if !tr.AltitudeKnown {
		t.Error("AltitudeKnown not set by an altitude report of 0 ft")
	}
	if tr.Altitude != 0 {
		t.Errorf("Altitude = %d, want 0", tr.Altitude)
	}
}

func TestRecordTrailSampleInterval(t *testing.T) {
	s := NewStore(Config{TrailInterval: 2 * time.Second})
	s.Upsert(positionReport("A1B2C3", 37.5, -97.2), t0)

	s.RecordTrailSample("A1B2C3", t0)
	// The next two fall inside the sampling interval and are skipped.
	s.RecordTrailSample("A1B2C3", t0.Add(500*time.Millisecond))
	s.RecordTrailSample("A1B2C3", t0.Add(1900*time.Millisecond))
	s.RecordTrailSample("A1B2C3", t0.Add(2*time.Second))
	s.RecordTrailSample("A1B2C3", t0.Add(5*time.Second))

	tr, _ := s.Get("A1B2C3")
	if len(tr.Trail) != 3 {
		t.Fatalf("trail length = %d, want 3", len(tr.Trail))
	}

	// Unknown ICAO is a no-op.
	s.RecordTrailSample("FFFFFF", t0)
}

func TestPruneTrailsFrontTruncation(t *testing.T) {
	s := NewStore(Config{TrailInterval: time.Second})
	s.Upsert(positionReport("A1B2C3", 37.5, -97.2), t0)

	for i := 0; i < 10; i++ {
		s.RecordTrailSample("A1B2C3", t0.Add(time.Duration(i)*10*time.Second))
	}

	// At t0+90s with a 45s max age, samples older than t0+45s go away.
	s.PruneTrails(45*time.Second, t0.Add(90*time.Second))

	tr, _ := s.Get("A1B2C3")
	if len(tr.Trail) != 5 {
		t.Fatalf("trail length = %d, want 5", len(tr.Trail))
	}
	if got := tr.Trail[0].Timestamp; !got.Equal(t0.Add(50 * time.Second)) {
		t.Errorf("oldest surviving sample at %v, want %v", got, t0.Add(50*time.Second))
	}
}

func TestRemoveAbsent(t *testing.T) {
	s := NewStore(Config{})
	s.Upsert(positionReport("AAA111", 37.0, -97.0), t0)
	s.Upsert(positionReport("BBB222", 38.0, -96.0), t0)
	s.Upsert(positionReport("CCC333", 39.0, -95.0), t0)

	removed := s.RemoveAbsent(map[string]struct{}{"BBB222": {}})

	if want := []string{"AAA111", "CCC333"}; !reflect.DeepEqual(removed, want) {
		t.Errorf("removed = %v, want %v", removed, want)
	}
	if s.Len() != 1 {
		t.Errorf("store has %d tracks, want 1", s.Len())
	}
	if _, ok := s.Get("BBB222"); !ok {
		t.Error("surviving track removed")
	}
}

func TestRemoveStale(t *testing.T) {
	s := NewStore(Config{})
	s.Upsert(positionReport("AAA111", 37.0, -97.0), t0)
	s.Upsert(positionReport("BBB222", 38.0, -96.0), t0.Add(100*time.Second))

	removed := s.RemoveStale(DefaultTrackTimeout, t0.Add(200*time.Second))

	if want := []string{"AAA111"}; !reflect.DeepEqual(removed, want) {
		t.Errorf("removed = %v, want %v", removed, want)
	}
	if _, ok := s.Get("BBB222"); !ok {
		t.Error("fresh track removed")
	}
}

func TestStalenessOpacity(t *testing.T) {
	cfg := DefaultStalenessConfig()

	tests := []struct {
		name string
		age  time.Duration
		want float64
	}{
		{"just seen", 0, 1.0},
		{"at fresh threshold", 10 * time.Second, 1.0},
		{"midway", 20 * time.Second, 0.55},
		{"at fully stale", 30 * time.Second, 0.1},
		{"long gone", 5 * time.Minute, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cfg.Opacity(t0, t0.Add(tt.age))
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Opacity(age=%v) = %v, want %v", tt.age, got, tt.want)
			}
		})
	}
}

func TestAllSortedByICAO(t *testing.T) {
	s := NewStore(Config{})
	s.Upsert(positionReport("CCC333", 39.0, -95.0), t0)
	s.Upsert(positionReport("AAA111", 37.0, -97.0), t0)
	s.Upsert(positionReport("BBB222", 38.0, -96.0), t0)

	var got []string
	for _, tr := range s.All() {
		got = append(got, tr.ICAO)
	}
	if want := []string{"AAA111", "BBB222", "CCC333"}; !reflect.DeepEqual(got, want) {
		t.Errorf("All() order = %v, want %v", got, want)
	}
}
