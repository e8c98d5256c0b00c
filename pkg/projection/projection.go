// Package projection converts geographic coordinates to a planar pixel
// space at a discrete slippy-map tile zoom level, and back.
//
// The scheme is Web-Mercator-like: longitude maps linearly to X, and
// latitude maps to Y through a cosine compensation evaluated at the
// projector's reference latitude rather than at each point's own latitude.
// This is a deliberate simplification, not a bug: it keeps projected
// positions frame-consistent with tile rendering at the cost of true
// Mercator curvature, and is accurate for viewport spans up to a few
// hundred nautical miles around the reference point.
package projection

import (
	"fmt"
	"math"

	"github.com/unklstewy/airscope/pkg/geo"
)

const (
	// TileSize is the edge length of a map tile in pixels.
	TileSize = 256

	// MinZoomLevel is the most zoomed-out tile level (whole world).
	MinZoomLevel = 0

	// MaxZoomLevel is the most zoomed-in tile level.
	MaxZoomLevel = 19
)

// ZoomLevel is a discrete slippy-map tile zoom level in [0, 19].
// Tile pixel density doubles with each level.
type ZoomLevel uint8

// NewZoomLevel validates and returns a discrete zoom level.
// Levels outside [0, 19] are rejected.
func NewZoomLevel(level int) (ZoomLevel, error) {
	if level < MinZoomLevel || level > MaxZoomLevel {
		return 0, fmt.Errorf("zoom level %d outside valid range [%d, %d]", level, MinZoomLevel, MaxZoomLevel)
	}
	return ZoomLevel(level), nil
}

// PixelsPerDegree returns the horizontal pixel density at this zoom level:
// 2^level * tileSize / 360.
func (z ZoomLevel) PixelsPerDegree() float64 {
	return float64(uint64(1)<<z) * TileSize / 360.0
}

// CanPromote reports whether a finer zoom level exists.
func (z ZoomLevel) CanPromote() bool {
	return z < MaxZoomLevel
}

// CanDemote reports whether a coarser zoom level exists.
func (z ZoomLevel) CanDemote() bool {
	return z > MinZoomLevel
}

// Projector converts between geographic coordinates and planar pixel
// coordinates at a fixed zoom level, relative to a fixed reference point.
// The reference point maps to pixel-space origin (0, 0); X grows eastward
// and Y grows northward.
//
// A Projector is a pure value: construct one per frame from the current
// view state and use it for every point in that frame so all projected
// positions share the same frame of reference.
type Projector struct {
	// Zoom is the discrete tile zoom level in effect.
	Zoom ZoomLevel

	// Reference is the geographic anchor mapped to pixel origin. Its
	// latitude also fixes the cosine compensation for the Y axis.
	Reference geo.Point
}

// NewProjector builds a projector for the given zoom level and reference
// point. The reference is clamped to the Mercator-safe range.
func NewProjector(zoom ZoomLevel, reference geo.Point) Projector {
	return Projector{
		Zoom:      zoom,
		Reference: reference.Clamped(),
	}
}

// ToPixel converts a geographic point to pixel coordinates relative to the
// reference point. The point is clamped to valid ranges first.
func (p Projector) ToPixel(pt geo.Point) (x, y float64) {
	pt = pt.Clamped()
	ppd := p.Zoom.PixelsPerDegree()
	latScale := math.Cos(p.Reference.Latitude * geo.DegreesToRadians)

	x = (pt.Longitude - p.Reference.Longitude) * ppd
	y = (pt.Latitude - p.Reference.Latitude) * ppd / latScale
	return x, y
}

// ToGeo converts pixel coordinates back to a geographic point. It is the
// exact inverse of ToPixel for points within valid ranges: the round trip
// ToGeo(ToPixel(p)) recovers p to within floating-point tolerance.
func (p Projector) ToGeo(x, y float64) geo.Point {
	ppd := p.Zoom.PixelsPerDegree()
	latScale := math.Cos(p.Reference.Latitude * geo.DegreesToRadians)

	return geo.Point{
		Latitude:  p.Reference.Latitude + y*latScale/ppd,
		Longitude: p.Reference.Longitude + x/ppd,
	}
}
