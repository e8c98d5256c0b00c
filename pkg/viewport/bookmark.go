package viewport

import (
	"fmt"

	"github.com/unklstewy/airscope/pkg/geo"
	"github.com/unklstewy/airscope/pkg/projection"
)

// Bookmark is a saved view position that can be restored later. Only the
// discrete level is stored; the continuous zoom resets to 1.0 on restore.
type Bookmark struct {
	// Name is the user-visible label for this bookmark.
	Name string `json:"name"`

	// Latitude is the saved center latitude in degrees.
	Latitude float64 `json:"latitude"`

	// Longitude is the saved center longitude in degrees.
	Longitude float64 `json:"longitude"`

	// ZoomLevel is the saved discrete tile zoom level.
	ZoomLevel uint8 `json:"zoom_level"`
}

// CaptureBookmark snapshots the current center and discrete level under
// the given name.
func (c *Controller) CaptureBookmark(name string) Bookmark {
	return Bookmark{
		Name:      name,
		Latitude:  c.state.Center.Latitude,
		Longitude: c.state.Center.Longitude,
		ZoomLevel: uint8(c.state.Level),
	}
}

// ApplyBookmark jumps the view to a saved position. The continuous zoom
// resets to 1.0 and a tile request is emitted for the new location.
func (c *Controller) ApplyBookmark(b Bookmark) error {
	level, err := projection.NewZoomLevel(int(b.ZoomLevel))
	if err != nil {
		return fmt.Errorf("apply bookmark %q: %w", b.Name, err)
	}

	c.state.Center = geo.Point{Latitude: b.Latitude, Longitude: b.Longitude}.Clamped()
	c.state.Level = level
	c.state.ContinuousZoom = 1.0
	c.emitTileRequest()
	return nil
}
