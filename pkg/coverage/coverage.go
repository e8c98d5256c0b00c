// Package coverage estimates receiver coverage from observed aircraft
// positions. The area around the receiver is divided into 36 ten-degree
// bearing sectors; each sector tracks the maximum and mean range at
// which aircraft have been seen. The resulting polygon is a coarse
// visualization aid, not a navigation product.
package coverage

import (
	"math"

	"github.com/unklstewy/airscope/pkg/geo"
)

// NumSectors is the number of ten-degree bearing sectors.
const NumSectors = 36

const degreesPerSector = 360.0 / NumSectors

// Sector accumulates range statistics for one bearing slice.
type Sector struct {
	// MaxRangeNM is the farthest observation in nautical miles.
	MaxRangeNM float64

	// AircraftCount is the number of distinct aircraft seen in this
	// sector.
	AircraftCount int

	// AvgRangeNM is the mean range of first observations, maintained
	// incrementally.
	AvgRangeNM float64
}

// observe folds a new distinct-aircraft observation into the sector.
func (s *Sector) observe(rangeNM float64) {
	if rangeNM > s.MaxRangeNM {
		s.MaxRangeNM = rangeNM
	}
	s.AircraftCount++
	s.AvgRangeNM += (rangeNM - s.AvgRangeNM) / float64(s.AircraftCount)
}

// Stats summarizes the coverage picture.
type Stats struct {
	// MaxRangeNM is the farthest observation across all sectors.
	MaxRangeNM float64

	// AvgMaxRangeNM is the mean of per-sector maximum ranges over
	// active sectors.
	AvgMaxRangeNM float64

	// ActiveSectors is how many sectors have at least one observation.
	ActiveSectors int

	// TotalSectors is always NumSectors.
	TotalSectors int

	// UniqueAircraft is the number of distinct aircraft observed.
	UniqueAircraft int

	// TotalObservations counts distinct (aircraft, sector) pairs.
	TotalObservations int
}

// Aggregator accumulates coverage observations for one receiver. It is
// owned by the frame loop and is not safe for concurrent use.
type Aggregator struct {
	receiver geo.Point
	sectors  [NumSectors]Sector

	// sectorsSeen records which sectors each aircraft has already been
	// counted in, so repeat updates do not inflate counts.
	sectorsSeen map[string]map[int]struct{}

	overallMaxNM float64
}

// NewAggregator creates an empty aggregator for a receiver location.
func NewAggregator(receiver geo.Point) *Aggregator {
	return &Aggregator{
		receiver:    receiver.Clamped(),
		sectorsSeen: make(map[string]map[int]struct{}),
	}
}

// Receiver returns the receiver location.
func (a *Aggregator) Receiver() geo.Point {
	return a.receiver
}

// sectorFor buckets a bearing in degrees into a sector index.
func sectorFor(bearing float64) int {
	idx := int(geo.NormalizeBearing(bearing) / degreesPerSector)
	if idx >= NumSectors {
		idx = NumSectors - 1
	}
	return idx
}

// Observe records an aircraft position. Each aircraft contributes to a
// sector's count and mean only the first time it appears there; repeat
// observations in the same sector can still extend the max range.
func (a *Aggregator) Observe(icao string, position geo.Point) {
	bearing := geo.InitialBearing(a.receiver, position)
	rangeNM := geo.DistanceNauticalMiles(a.receiver, position)
	sector := sectorFor(bearing)

	seen, ok := a.sectorsSeen[icao]
	if !ok {
		seen = make(map[int]struct{})
		a.sectorsSeen[icao] = seen
	}
	if _, counted := seen[sector]; !counted {
		seen[sector] = struct{}{}
		a.sectors[sector].observe(rangeNM)
	} else if rangeNM > a.sectors[sector].MaxRangeNM {
		a.sectors[sector].MaxRangeNM = rangeNM
	}

	if rangeNM > a.overallMaxNM {
		a.overallMaxNM = rangeNM
	}
}

// Sectors returns a copy of the per-sector statistics.
func (a *Aggregator) Sectors() [NumSectors]Sector {
	return a.sectors
}

// PolygonPoints converts each sector's max range into one boundary
// vertex at the sector's center bearing, using the flat-earth
// approximation of 60 nautical miles per degree with the longitude
// corrected by the cosine of the receiver latitude. Sectors with no
// observations collapse to the receiver location.
func (a *Aggregator) PolygonPoints() []geo.Point {
	points := make([]geo.Point, 0, NumSectors)
	lonScale := 60.0 * math.Cos(a.receiver.Latitude*geo.DegreesToRadians)
	for i, s := range a.sectors {
		if s.MaxRangeNM <= 0 {
			points = append(points, a.receiver)
			continue
		}
		bearing := (float64(i)*degreesPerSector + degreesPerSector/2.0) * geo.DegreesToRadians
		points = append(points, geo.Point{
			Latitude:  a.receiver.Latitude + s.MaxRangeNM*math.Cos(bearing)/60.0,
			Longitude: a.receiver.Longitude + s.MaxRangeNM*math.Sin(bearing)/lonScale,
		})
	}
	return points
}

// Stats computes summary statistics over all sectors.
func (a *Aggregator) Stats() Stats {
	st := Stats{
		MaxRangeNM:     a.overallMaxNM,
		TotalSectors:   NumSectors,
		UniqueAircraft: len(a.sectorsSeen),
	}
	var maxSum float64
	for _, s := range a.sectors {
		if s.MaxRangeNM > 0 {
			st.ActiveSectors++
			maxSum += s.MaxRangeNM
		}
		st.TotalObservations += s.AircraftCount
	}
	if st.ActiveSectors > 0 {
		st.AvgMaxRangeNM = maxSum / float64(st.ActiveSectors)
	}
	return st
}

// Reset clears all accumulated coverage data.
func (a *Aggregator) Reset() {
	a.sectors = [NumSectors]Sector{}
	a.sectorsSeen = make(map[string]map[int]struct{})
	a.overallMaxNM = 0
}
