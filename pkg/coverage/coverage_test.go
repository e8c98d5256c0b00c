package coverage

import (
	"math"
	"testing"

	"github.com/unklstewy/airscope/pkg/geo"
)

var receiver = geo.Point{Latitude: 37.6872, Longitude: -97.3301}

// pointAt returns a position at the given bearing and range from the
// test receiver, using the same flat approximation the polygon uses so
// sector assignment is predictable.
func pointAt(bearingDeg, rangeNM float64) geo.Point {
	b := bearingDeg * geo.DegreesToRadians
	return geo.Point{
		Latitude:  receiver.Latitude + rangeNM*math.Cos(b)/60.0,
		Longitude: receiver.Longitude + rangeNM*math.Sin(b)/(60.0*math.Cos(receiver.Latitude*geo.DegreesToRadians)),
	}
}

func TestSectorBucketing(t *testing.T) {
	tests := []struct {
		bearing float64
		sector  int
	}{
		{0, 0},
		{5, 0},
		{10, 1},
		{95, 9},
		{180, 18},
		{275, 27},
		{359.9, 35},
		{360, 0},
		{-10, 35},
	}

	for _, tt := range tests {
		if got := sectorFor(tt.bearing); got != tt.sector {
			t.Errorf("sectorFor(%v) = %d, want %d", tt.bearing, got, tt.sector)
		}
	}
}

func TestObserveUpdatesSectorStats(t *testing.T) {
	a := NewAggregator(receiver)

	// Two aircraft due north at different ranges.
	a.Observe("AAA111", pointAt(0, 50))
	a.Observe("BBB222", pointAt(0, 100))

	north := a.Sectors()[0]
	if north.AircraftCount != 2 {
		t.Errorf("AircraftCount = %d, want 2", north.AircraftCount)
	}
	if math.Abs(north.MaxRangeNM-100) > 1.0 {
		t.Errorf("MaxRangeNM = %v, want ~100", north.MaxRangeNM)
	}
	if math.Abs(north.AvgRangeNM-75) > 1.0 {
		t.Errorf("AvgRangeNM = %v, want ~75", north.AvgRangeNM)
	}
}

func TestObserveDeduplicatesPerSector(t *testing.T) {
	a := NewAggregator(receiver)

	// The same aircraft reporting repeatedly in one sector counts once,
	// but a farther repeat still extends the max range. Bearing 95 is
	// the center of sector 9, clear of the bucket boundaries.
	a.Observe("AAA111", pointAt(95, 40))
	a.Observe("AAA111", pointAt(95, 60))
	a.Observe("AAA111", pointAt(95, 30))

	east := a.Sectors()[9]
	if east.AircraftCount != 1 {
		t.Errorf("AircraftCount = %d, want 1", east.AircraftCount)
	}
	if math.Abs(east.MaxRangeNM-60) > 1.0 {
		t.Errorf("MaxRangeNM = %v, want ~60", east.MaxRangeNM)
	}
	if math.Abs(east.AvgRangeNM-40) > 1.0 {
		t.Errorf("AvgRangeNM = %v, want ~40 (repeats excluded from mean)", east.AvgRangeNM)
	}

	// Crossing into a new sector counts the aircraft again there.
	a.Observe("AAA111", pointAt(115, 45))
	if got := a.Sectors()[11].AircraftCount; got != 1 {
		t.Errorf("new sector AircraftCount = %d, want 1", got)
	}
}

func TestPolygonPoints(t *testing.T) {
	a := NewAggregator(receiver)
	a.Observe("AAA111", pointAt(5, 120))

	points := a.PolygonPoints()
	if len(points) != NumSectors {
		t.Fatalf("got %d points, want %d", len(points), NumSectors)
	}

	// Sector 0's vertex sits at its center bearing (5 degrees), roughly
	// 120 nm north of the receiver.
	v := points[0]
	if v.Latitude <= receiver.Latitude {
		t.Errorf("north-sector vertex not north of receiver: %+v", v)
	}
	latOffsetNM := (v.Latitude - receiver.Latitude) * 60.0
	if math.Abs(latOffsetNM-120*math.Cos(5*geo.DegreesToRadians)) > 2.0 {
		t.Errorf("vertex latitude offset = %v nm", latOffsetNM)
	}

	// Empty sectors collapse to the receiver.
	if points[18] != receiver {
		t.Errorf("empty sector vertex = %+v, want receiver", points[18])
	}
}

func TestStatsAndReset(t *testing.T) {
	a := NewAggregator(receiver)
	a.Observe("AAA111", pointAt(0, 50))
	a.Observe("AAA111", pointAt(95, 80))
	a.Observe("BBB222", pointAt(95, 100))

	st := a.Stats()
	if st.UniqueAircraft != 2 {
		t.Errorf("UniqueAircraft = %d, want 2", st.UniqueAircraft)
	}
	if st.TotalObservations != 3 {
		t.Errorf("TotalObservations = %d, want 3", st.TotalObservations)
	}
	if st.ActiveSectors != 2 {
		t.Errorf("ActiveSectors = %d, want 2", st.ActiveSectors)
	}
	if math.Abs(st.MaxRangeNM-100) > 1.0 {
		t.Errorf("MaxRangeNM = %v, want ~100", st.MaxRangeNM)
	}
	if st.TotalSectors != NumSectors {
		t.Errorf("TotalSectors = %d", st.TotalSectors)
	}

	a.Reset()
	st = a.Stats()
	if st.UniqueAircraft != 0 || st.ActiveSectors != 0 || st.MaxRangeNM != 0 {
		t.Errorf("stats not cleared by reset: %+v", st)
	}
}

func TestAltitudeBands(t *testing.T) {
	var b AltitudeBands
	b.Add(500, true)
	b.Add(9999, true)
	b.Add(10000, true)
	b.Add(24999, true)
	b.Add(25000, true)
	b.Add(41000, true)
	b.Add(0, false)

	if b.Below10k != 2 || b.From10kTo25k != 2 || b.From25kTo40k != 1 || b.Above40k != 1 || b.Unknown != 1 {
		t.Errorf("bands = %+v", b)
	}
	if b.Total() != 7 {
		t.Errorf("Total = %d, want 7", b.Total())
	}
}
