// Package viewport owns the map view state: the discrete tile zoom level,
// the continuous zoom factor layered on top of it, and the geographic
// center. It decides when to promote or demote the discrete level while
// keeping the geographic point under the cursor fixed on screen.
//
// The controller performs no I/O. When new tiles are needed it emits a
// TileRequest through a caller-supplied callback; the tile loader is an
// external collaborator.
package viewport

import (
	"github.com/unklstewy/airscope/pkg/geo"
	"github.com/unklstewy/airscope/pkg/projection"
)

// Default tuning values for zoom behavior.
const (
	// DefaultScrollSensitivity is the zoom delta multiplier for mouse
	// wheel line scrolling.
	DefaultScrollSensitivity = 0.1

	// DefaultPinchSensitivity is the zoom delta multiplier for trackpad
	// pixel scrolling.
	DefaultPinchSensitivity = 0.002

	// DefaultMinZoom is the minimum continuous zoom factor.
	DefaultMinZoom = 0.1

	// DefaultMaxZoom is the maximum continuous zoom factor.
	DefaultMaxZoom = 10.0

	// PromoteThreshold is the continuous zoom at which the discrete tile
	// level increments (continuous zoom halves to compensate).
	PromoteThreshold = 1.5

	// DemoteThreshold is the continuous zoom at which the discrete tile
	// level decrements (continuous zoom doubles to compensate).
	//
	// The gap between PromoteThreshold and DemoteThreshold is the
	// hysteresis band: a continuous zoom hovering near 1.0 never crosses
	// either threshold, so the discrete level cannot oscillate. A single
	// shared threshold at 1.0 would thrash.
	DemoteThreshold = 0.75

	// DefaultTileRadius is the tile download radius, in tiles, requested
	// around the view center after a level change.
	DefaultTileRadius = 3

	// DefaultPanTileThreshold is the center movement, in degrees, beyond
	// which a pan triggers a fresh tile request (~100m at the equator).
	DefaultPanTileThreshold = 0.001
)

// TileRequest asks the tile loader for tiles around a center point.
type TileRequest struct {
	// Center is the geographic point to load tiles around.
	Center geo.Point

	// Zoom is the discrete tile zoom level to load.
	Zoom projection.ZoomLevel

	// Radius is the download radius in tiles.
	Radius int
}

// Config tunes zoom and pan behavior. Zero values are replaced with
// defaults by NewController.
type Config struct {
	// ScrollSensitivity scales line-scroll deltas into zoom factors.
	ScrollSensitivity float64

	// PinchSensitivity scales pixel-scroll (trackpad) deltas into zoom
	// factors.
	PinchSensitivity float64

	// MinZoom and MaxZoom bound the continuous zoom factor.
	MinZoom float64
	MaxZoom float64

	// TileRadius is the download radius in tiles for emitted requests.
	TileRadius int

	// PanTileThreshold is the pan distance in degrees that triggers a
	// tile request.
	PanTileThreshold float64
}

// DefaultConfig returns the standard zoom configuration.
func DefaultConfig() Config {
	return Config{
		ScrollSensitivity: DefaultScrollSensitivity,
		PinchSensitivity:  DefaultPinchSensitivity,
		MinZoom:           DefaultMinZoom,
		MaxZoom:           DefaultMaxZoom,
		TileRadius:        DefaultTileRadius,
		PanTileThreshold:  DefaultPanTileThreshold,
	}
}

// State is the complete view state for one frame.
type State struct {
	// Center is the geographic point at the middle of the viewport.
	Center geo.Point

	// Level is the current discrete tile zoom level.
	Level projection.ZoomLevel

	// ContinuousZoom is the multiplicative scale factor layered on top
	// of the discrete level (1.0 = tiles at native scale).
	ContinuousZoom float64

	// Reference is the geographic anchor mapped to pixel-space origin.
	// It is fixed at construction and shared with the tile system so
	// projected positions stay internally consistent frame to frame.
	Reference geo.Point
}

// Controller mutates view state in response to zoom and pan input.
// It is owned by the frame loop and is not safe for concurrent use.
type Controller struct {
	state  State
	cfg    Config
	width  float64
	height float64

	// requestTiles is invoked whenever the discrete level changes or a
	// pan crosses the tile threshold. Nil means no listener.
	requestTiles func(TileRequest)

	// lastTileCenter is the center at the time of the last tile request,
	// used for the pan threshold check.
	lastTileCenter geo.Point
}

// NewController creates a controller centered on the given point at the
// given discrete level, with continuous zoom 1.0. The center becomes the
// fixed projection reference point.
func NewController(center geo.Point, level projection.ZoomLevel, cfg Config) *Controller {
	if cfg.ScrollSensitivity == 0 {
		cfg.ScrollSensitivity = DefaultScrollSensitivity
	}
	if cfg.PinchSensitivity == 0 {
		cfg.PinchSensitivity = DefaultPinchSensitivity
	}
	if cfg.MinZoom == 0 {
		cfg.MinZoom = DefaultMinZoom
	}
	if cfg.MaxZoom == 0 {
		cfg.MaxZoom = DefaultMaxZoom
	}
	if cfg.TileRadius == 0 {
		cfg.TileRadius = DefaultTileRadius
	}
	if cfg.PanTileThreshold == 0 {
		cfg.PanTileThreshold = DefaultPanTileThreshold
	}

	center = center.Clamped()
	return &Controller{
		state: State{
			Center:         center,
			Level:          level,
			ContinuousZoom: 1.0,
			Reference:      center,
		},
		cfg:            cfg,
		lastTileCenter: center,
	}
}

// SetViewportSize records the viewport dimensions in screen pixels.
// Cursor anchoring needs them to locate the screen center.
func (c *Controller) SetViewportSize(width, height float64) {
	c.width = width
	c.height = height
}

// OnTileRequest registers the callback invoked when new tiles are needed.
func (c *Controller) OnTileRequest(fn func(TileRequest)) {
	c.requestTiles = fn
}

// State returns a copy of the current view state.
func (c *Controller) State() State {
	return c.state
}

// Projector returns a projector for the current discrete level and the
// fixed reference point.
func (c *Controller) Projector() projection.Projector {
	return projection.NewProjector(c.state.Level, c.state.Reference)
}

// GeoAtScreen returns the geographic point currently under the given
// screen pixel, accounting for both the discrete level and the continuous
// zoom factor.
func (c *Controller) GeoAtScreen(screenX, screenY float64) geo.Point {
	offX, offY := c.screenOffset(screenX, screenY)
	cz := c.state.ContinuousZoom

	proj := c.Projector()
	cx, cy := proj.ToPixel(c.state.Center)
	return proj.ToGeo(cx+offX/cz, cy+offY/cz)
}

// HandleScroll applies a scroll or pinch zoom event anchored at the given
// cursor position. The continuous zoom is multiplied by
// (1 - delta*sensitivity), clamped to the configured bounds; positive
// delta zooms out, negative delta zooms in. If the result crosses a
// promotion or demotion threshold the discrete level changes and the
// continuous zoom is compensated so the visual scale is continuous at the
// instant of transition.
//
// Whatever happens, the geographic point under the cursor before the event
// is still under the cursor after it.
func (c *Controller) HandleScroll(delta, cursorX, cursorY float64) {
	c.zoomBy(delta*c.cfg.ScrollSensitivity, cursorX, cursorY)
}

// HandlePinch applies a trackpad pixel-scroll zoom event anchored at the
// given cursor position. Pixel deltas are much larger than line deltas,
// so they carry their own, smaller sensitivity.
func (c *Controller) HandlePinch(deltaPixels, cursorX, cursorY float64) {
	c.zoomBy(deltaPixels*c.cfg.PinchSensitivity, cursorX, cursorY)
}

func (c *Controller) zoomBy(scaledDelta, cursorX, cursorY float64) {
	czBefore := c.state.ContinuousZoom

	cz := czBefore * (1.0 - scaledDelta)
	if cz < c.cfg.MinZoom {
		cz = c.cfg.MinZoom
	}
	if cz > c.cfg.MaxZoom {
		cz = c.cfg.MaxZoom
	}
	c.state.ContinuousZoom = cz

	oldLevel := c.state.Level
	levelChanged := c.checkLevelTransition()

	c.state.Center = c.anchoredCenter(cursorX, cursorY, czBefore, c.state.ContinuousZoom, oldLevel, c.state.Level).Clamped()

	if levelChanged {
		c.emitTileRequest()
	}
}

// Pan moves the view center by a screen-pixel delta. Positive dx moves the
// center east, positive dy moves it north. A tile request is emitted when
// the accumulated movement since the last request exceeds the configured
// threshold.
func (c *Controller) Pan(dxPixels, dyPixels float64) {
	cz := c.state.ContinuousZoom
	proj := c.Projector()

	cx, cy := proj.ToPixel(c.state.Center)
	c.state.Center = proj.ToGeo(cx+dxPixels/cz, cy+dyPixels/cz).Clamped()

	dLat := c.state.Center.Latitude - c.lastTileCenter.Latitude
	dLon := c.state.Center.Longitude - c.lastTileCenter.Longitude
	if dLat > c.cfg.PanTileThreshold || dLat < -c.cfg.PanTileThreshold ||
		dLon > c.cfg.PanTileThreshold || dLon < -c.cfg.PanTileThreshold {
		c.emitTileRequest()
	}
}

// checkLevelTransition promotes or demotes the discrete level when the
// continuous zoom crosses a threshold, halving or doubling the continuous
// zoom to compensate for the changed tile pixel density. Reports whether
// the level changed.
func (c *Controller) checkLevelTransition() bool {
	if c.state.ContinuousZoom >= PromoteThreshold && c.state.Level.CanPromote() {
		c.state.ContinuousZoom /= 2.0
		c.state.Level++
		return true
	}
	if c.state.ContinuousZoom <= DemoteThreshold && c.state.Level.CanDemote() {
		c.state.ContinuousZoom *= 2.0
		c.state.Level--
		return true
	}
	return false
}

// anchoredCenter solves for the map center that keeps the geographic point
// under the cursor stationary across a zoom change, including across a
// discrete level transition.
//
// The cursor's world-pixel offset from the view center shrinks or grows
// with the continuous zoom, so the same screen offset corresponds to
// different world offsets before and after the event. The cursor's
// geographic position is computed with the pre-event zoom, then the new
// center is placed so that point projects back to the same screen pixel
// with the post-event zoom.
func (c *Controller) anchoredCenter(cursorX, cursorY, czBefore, czAfter float64, oldLevel, newLevel projection.ZoomLevel) geo.Point {
	offX, offY := c.screenOffset(cursorX, cursorY)

	projOld := projection.NewProjector(oldLevel, c.state.Reference)
	cx, cy := projOld.ToPixel(c.state.Center)
	cursorGeo := projOld.ToGeo(cx+offX/czBefore, cy+offY/czBefore)

	projNew := projection.NewProjector(newLevel, c.state.Reference)
	gx, gy := projNew.ToPixel(cursorGeo)
	return projNew.ToGeo(gx-offX/czAfter, gy-offY/czAfter)
}

// screenOffset converts a screen pixel to an offset from the screen
// center, flipping Y so that up on screen is north in world space.
func (c *Controller) screenOffset(screenX, screenY float64) (float64, float64) {
	return screenX - c.width/2.0, -(screenY - c.height/2.0)
}

// emitTileRequest notifies the tile listener, if any, and records the
// center for the pan threshold.
func (c *Controller) emitTileRequest() {
	c.lastTileCenter = c.state.Center
	if c.requestTiles != nil {
		c.requestTiles(TileRequest{
			Center: c.state.Center,
			Zoom:   c.state.Level,
			Radius: c.cfg.TileRadius,
		})
	}
}
