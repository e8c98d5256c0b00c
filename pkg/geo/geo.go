// Package geo provides shared geodesic math and aviation constants:
// haversine distance, initial bearing, dead-reckoning position projection,
// and the coordinate clamping rules used throughout airscope.
//
// All functions are pure and operate on WGS84 decimal degrees.
package geo

import "math"

// Constants for geodesic calculations
const (
	// DegreesToRadians converts degrees to radians
	DegreesToRadians = math.Pi / 180.0

	// RadiansToDegrees converts radians to degrees
	RadiansToDegrees = 180.0 / math.Pi

	// EarthRadiusNM is the Earth's mean radius in nautical miles (WGS84)
	EarthRadiusNM = 3440.065

	// NMToKm converts nautical miles to kilometers
	NMToKm = 1.852

	// FeetToMeters converts feet to meters
	FeetToMeters = 0.3048

	// MetersToFeet converts meters to feet
	MetersToFeet = 3.28084

	// MercatorLatLimit is the maximum latitude representable in the
	// Web Mercator projection. Latitudes are clamped to this range.
	MercatorLatLimit = 85.0511

	// FlightLevelThreshold is the altitude in feet at or above which
	// altitudes are expressed as flight levels.
	FlightLevelThreshold = 18000

	// GroundTrafficAltitude is the altitude in feet below which an
	// aircraft is considered ground traffic.
	GroundTrafficAltitude = 100
)

// Point represents a position on Earth's surface.
// Uses the WGS84 coordinate system (same as GPS).
type Point struct {
	// Latitude in decimal degrees (-90 to +90)
	// Positive = North, Negative = South
	Latitude float64

	// Longitude in decimal degrees (-180 to +180)
	// Positive = East, Negative = West
	Longitude float64
}

// ClampLatitude clamps a latitude to the Mercator-safe range
// [-85.0511, +85.0511]. Out-of-range values are clamped, never rejected.
func ClampLatitude(lat float64) float64 {
	if lat > MercatorLatLimit {
		return MercatorLatLimit
	}
	if lat < -MercatorLatLimit {
		return -MercatorLatLimit
	}
	return lat
}

// ClampLongitude clamps a longitude to [-180, +180].
func ClampLongitude(lon float64) float64 {
	if lon > 180.0 {
		return 180.0
	}
	if lon < -180.0 {
		return -180.0
	}
	return lon
}

// Clamped returns a copy of the point with latitude and longitude clamped
// to their valid ranges.
func (p Point) Clamped() Point {
	return Point{
		Latitude:  ClampLatitude(p.Latitude),
		Longitude: ClampLongitude(p.Longitude),
	}
}

// NormalizeBearing ensures a bearing is in the range [0, 360).
func NormalizeBearing(bearing float64) float64 {
	b := math.Mod(bearing, 360.0)
	if b < 0 {
		b += 360.0
	}
	return b
}

// DistanceNauticalMiles calculates the great-circle distance between two
// points using the Haversine formula. Returns distance in nautical miles.
func DistanceNauticalMiles(from, to Point) float64 {
	lat1Rad := from.Latitude * DegreesToRadians
	lat2Rad := to.Latitude * DegreesToRadians
	dLat := (to.Latitude - from.Latitude) * DegreesToRadians
	dLon := (to.Longitude - from.Longitude) * DegreesToRadians

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusNM * c
}

// InitialBearing calculates the initial bearing (forward azimuth) from one
// point to another along a great circle. Returns bearing in degrees
// [0, 360), where 0 = North, 90 = East, 180 = South, 270 = West.
//
// For identical points the bearing is undefined; 0 is returned by convention.
func InitialBearing(from, to Point) float64 {
	if from.Latitude == to.Latitude && from.Longitude == to.Longitude {
		return 0.0
	}

	lat1 := from.Latitude * DegreesToRadians
	lat2 := to.Latitude * DegreesToRadians
	dLon := (to.Longitude - from.Longitude) * DegreesToRadians

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	bearing := math.Atan2(y, x) * RadiansToDegrees

	return NormalizeBearing(bearing)
}

// ProjectPosition predicts a future position given a current position,
// heading, ground speed, and time horizon. Uses great-circle (spherical)
// trigonometry so the result stays accurate over long distances.
//
// Parameters:
//   - origin: current position in decimal degrees
//   - headingDeg: heading in degrees (0 = north, clockwise)
//   - speedKnots: ground speed in knots
//   - minutes: time horizon in minutes
//
// Projecting zero minutes returns the origin unchanged.
func ProjectPosition(origin Point, headingDeg, speedKnots, minutes float64) Point {
	// 1 knot = 1 nautical mile per hour
	distanceNM := speedKnots / 60.0 * minutes
	if distanceNM == 0 {
		return origin
	}

	headingRad := headingDeg * DegreesToRadians
	angularDistance := distanceNM / EarthRadiusNM

	lat1 := origin.Latitude * DegreesToRadians
	lon1 := origin.Longitude * DegreesToRadians

	// lat2 = asin(sin(lat1)*cos(d) + cos(lat1)*sin(d)*cos(heading))
	lat2 := math.Asin(
		math.Sin(lat1)*math.Cos(angularDistance) +
			math.Cos(lat1)*math.Sin(angularDistance)*math.Cos(headingRad),
	)

	// lon2 = lon1 + atan2(sin(heading)*sin(d)*cos(lat1), cos(d)-sin(lat1)*sin(lat2))
	lon2 := lon1 + math.Atan2(
		math.Sin(headingRad)*math.Sin(angularDistance)*math.Cos(lat1),
		math.Cos(angularDistance)-math.Sin(lat1)*math.Sin(lat2),
	)

	newLon := lon2 * RadiansToDegrees
	if newLon > 180.0 {
		newLon -= 360.0
	} else if newLon < -180.0 {
		newLon += 360.0
	}

	return Point{
		Latitude:  lat2 * RadiansToDegrees,
		Longitude: newLon,
	}
}
