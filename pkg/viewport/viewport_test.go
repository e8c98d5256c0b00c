package viewport

import (
	"math"
	"testing"

	"github.com/unklstewy/airscope/pkg/geo"
	"github.com/unklstewy/airscope/pkg/projection"
)

const anchorTolerance = 1e-9 // degrees

func newTestController(center geo.Point, level projection.ZoomLevel) *Controller {
	c := NewController(center, level, DefaultConfig())
	c.SetViewportSize(800, 600)
	return c
}

func TestScrollAdjustsContinuousZoom(t *testing.T) {
	tests := []struct {
		name      string
		deltas    []float64
		wantZoom  float64
		wantLevel projection.ZoomLevel
	}{
		{"single zoom in", []float64{-1.0}, 1.1, 8},
		{"single zoom out", []float64{1.0}, 0.9, 8},
		{"zoom in then out", []float64{-1.0, 1.0}, 0.99, 8},
		// A huge delta clamps to the max zoom, which then crosses the
		// promotion threshold once.
		{"clamped at max then promoted", []float64{-1000.0}, DefaultMaxZoom / 2, 9},
		// Likewise a huge zoom-out clamps to the min and demotes once.
		{"clamped at min then demoted", []float64{100.0}, DefaultMinZoom * 2, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(geo.Point{Latitude: 37.6872, Longitude: -97.3301}, 8)
			for _, d := range tt.deltas {
				c.HandleScroll(d, 400, 300)
			}
			st := c.State()
			if math.Abs(st.ContinuousZoom-tt.wantZoom) > 1e-12 {
				t.Errorf("ContinuousZoom = %v, want %v", st.ContinuousZoom, tt.wantZoom)
			}
			if st.Level != tt.wantLevel {
				t.Errorf("Level = %d, want %d", st.Level, tt.wantLevel)
			}
		})
	}
}

// TestPinchMatchesEquivalentScroll checks that pixel-scroll input with
// the pinch sensitivity lands on the same zoom as line-scroll input with
// the same scaled delta.
func TestPinchMatchesEquivalentScroll(t *testing.T) {
	center := geo.Point{Latitude: 37.6872, Longitude: -97.3301}

	scroll := newTestController(center, 8)
	pinch := newTestController(center, 8)

	// 1.0 lines * 0.1 == 50 pixels * 0.002.
	scroll.HandleScroll(1.0, 200, 150)
	pinch.HandlePinch(50.0, 200, 150)

	ss, ps := scroll.State(), pinch.State()
	if math.Abs(ss.ContinuousZoom-ps.ContinuousZoom) > 1e-12 {
		t.Errorf("pinch zoom %v != scroll zoom %v", ps.ContinuousZoom, ss.ContinuousZoom)
	}
	if math.Abs(ss.Center.Latitude-ps.Center.Latitude) > anchorTolerance ||
		math.Abs(ss.Center.Longitude-ps.Center.Longitude) > anchorTolerance {
		t.Errorf("pinch center %+v != scroll center %+v", ps.Center, ss.Center)
	}
}

func TestCursorAnchoring(t *testing.T) {
	tests := []struct {
		name    string
		delta   float64
		cursorX float64
		cursorY float64
	}{
		{"zoom in at center", -1.0, 400, 300},
		{"zoom out at center", 1.0, 400, 300},
		{"zoom in at corner", -1.0, 50, 50},
		{"zoom out at corner", 1.0, 750, 550},
		{"zoom in off-center", -2.0, 600, 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(geo.Point{Latitude: 51.5074, Longitude: -0.1278}, 10)

			before := c.GeoAtScreen(tt.cursorX, tt.cursorY)
			c.HandleScroll(tt.delta, tt.cursorX, tt.cursorY)
			after := c.GeoAtScreen(tt.cursorX, tt.cursorY)

			if math.Abs(after.Latitude-before.Latitude) > anchorTolerance {
				t.Errorf("cursor latitude moved: before %v, after %v", before.Latitude, after.Latitude)
			}
			if math.Abs(after.Longitude-before.Longitude) > anchorTolerance {
				t.Errorf("cursor longitude moved: before %v, after %v", before.Longitude, after.Longitude)
			}
		})
	}
}

func TestCursorAnchoringAcrossLevelTransition(t *testing.T) {
	c := newTestController(geo.Point{Latitude: 51.5074, Longitude: -0.1278}, 10)

	// Push continuous zoom just below the promotion threshold, then one
	// more scroll crosses it.
	c.HandleScroll(-4.5, 400, 300)
	if got := c.State().Level; got != 10 {
		t.Fatalf("level changed prematurely: got %d", got)
	}

	cursorX, cursorY := 200.0, 450.0
	before := c.GeoAtScreen(cursorX, cursorY)
	c.HandleScroll(-1.0, cursorX, cursorY)
	after := c.GeoAtScreen(cursorX, cursorY)

	if got := c.State().Level; got != 11 {
		t.Fatalf("expected promotion to level 11, got %d", got)
	}
	if math.Abs(after.Latitude-before.Latitude) > anchorTolerance ||
		math.Abs(after.Longitude-before.Longitude) > anchorTolerance {
		t.Errorf("cursor point moved across transition: before %+v, after %+v", before, after)
	}
}

func TestLevelPromotionHalvesContinuousZoom(t *testing.T) {
	c := newTestController(geo.Point{Latitude: 51.5074, Longitude: -0.1278}, 10)

	// Three scroll-in events whose factors multiply to exactly 1.6:
	// 1.0 * 1.25 * 1.12 * (8/7). The last event crosses the 1.5
	// threshold, so the level increments and the continuous zoom halves.
	c.HandleScroll(-2.5, 400, 300)
	c.HandleScroll(-1.2, 400, 300)
	c.HandleScroll(-10.0/7.0, 400, 300)

	st := c.State()
	if st.Level != 11 {
		t.Errorf("Level = %d, want 11", st.Level)
	}
	if math.Abs(st.ContinuousZoom-0.8) > 1e-9 {
		t.Errorf("ContinuousZoom = %v, want 0.8", st.ContinuousZoom)
	}
}

func TestLevelDemotionDoublesContinuousZoom(t *testing.T) {
	c := newTestController(geo.Point{Latitude: 51.5074, Longitude: -0.1278}, 10)

	// 1.0 * 0.7 crosses the 0.75 demotion threshold.
	c.HandleScroll(3.0, 400, 300)

	st := c.State()
	if st.Level != 9 {
		t.Errorf("Level = %d, want 9", st.Level)
	}
	if math.Abs(st.ContinuousZoom-1.4) > 1e-9 {
		t.Errorf("ContinuousZoom = %v, want 1.4", st.ContinuousZoom)
	}
}

func TestHysteresisPreventsOscillation(t *testing.T) {
	c := newTestController(geo.Point{Latitude: 37.6872, Longitude: -97.3301}, 8)

	// Alternate zoom ins and outs whose factors are exact reciprocals
	// (1.1 and 1/1.1), so the continuous zoom returns to ~1.0 after each
	// pair. It stays inside the (0.75, 1.5) band the whole time, so the
	// level must never change.
	for i := 0; i < 50; i++ {
		c.HandleScroll(-1.0, 400, 300)
		c.HandleScroll(10.0/11.0, 400, 300)
	}

	st := c.State()
	if st.Level != 8 {
		t.Errorf("Level oscillated: got %d, want 8", st.Level)
	}
	if st.ContinuousZoom <= DemoteThreshold || st.ContinuousZoom >= PromoteThreshold {
		t.Errorf("ContinuousZoom %v escaped the hysteresis band", st.ContinuousZoom)
	}
}

func TestNoPromotionAtMaxLevel(t *testing.T) {
	c := newTestController(geo.Point{Latitude: 37.6872, Longitude: -97.3301}, projection.MaxZoomLevel)

	c.HandleScroll(-10.0, 400, 300)

	st := c.State()
	if st.Level != projection.MaxZoomLevel {
		t.Errorf("Level = %d, want %d", st.Level, projection.MaxZoomLevel)
	}
	if st.ContinuousZoom < PromoteThreshold {
		t.Errorf("ContinuousZoom = %v, expected it to remain above the promote threshold", st.ContinuousZoom)
	}
}

func TestNoDemotionAtMinLevel(t *testing.T) {
	c := newTestController(geo.Point{Latitude: 37.6872, Longitude: -97.3301}, projection.MinZoomLevel)

	c.HandleScroll(5.0, 400, 300)

	st := c.State()
	if st.Level != projection.MinZoomLevel {
		t.Errorf("Level = %d, want %d", st.Level, projection.MinZoomLevel)
	}
	if st.ContinuousZoom > DemoteThreshold {
		t.Errorf("ContinuousZoom = %v, expected it to remain at or below the demote threshold", st.ContinuousZoom)
	}
}

func TestReferenceStaysFixed(t *testing.T) {
	start := geo.Point{Latitude: 51.5074, Longitude: -0.1278}
	c := newTestController(start, 10)

	c.HandleScroll(-2.5, 200, 100)
	c.HandleScroll(-2.5, 600, 500)
	c.Pan(500, -300)
	c.HandleScroll(4.0, 400, 300)

	if got := c.State().Reference; got != start {
		t.Errorf("Reference = %+v, want %+v", got, start)
	}
}

func TestTileRequestOnLevelChange(t *testing.T) {
	c := newTestController(geo.Point{Latitude: 51.5074, Longitude: -0.1278}, 10)

	var requests []TileRequest
	c.OnTileRequest(func(r TileRequest) { requests = append(requests, r) })

	// Within the hysteresis band: no request.
	c.HandleScroll(-1.0, 400, 300)
	if len(requests) != 0 {
		t.Fatalf("unexpected tile request before level change: %+v", requests)
	}

	// Crosses the promotion threshold: exactly one request at the new level.
	c.HandleScroll(-4.0, 400, 300)
	if len(requests) != 1 {
		t.Fatalf("expected 1 tile request, got %d", len(requests))
	}
	if requests[0].Zoom != 11 {
		t.Errorf("request Zoom = %d, want 11", requests[0].Zoom)
	}
	if requests[0].Radius != DefaultTileRadius {
		t.Errorf("request Radius = %d, want %d", requests[0].Radius, DefaultTileRadius)
	}
}

func TestPanMovesCenter(t *testing.T) {
	c := newTestController(geo.Point{Latitude: 37.6872, Longitude: -97.3301}, 8)
	start := c.State().Center

	c.Pan(100, 50)
	moved := c.State().Center
	if moved.Longitude <= start.Longitude {
		t.Errorf("expected eastward pan to increase longitude: %v -> %v", start.Longitude, moved.Longitude)
	}
	if moved.Latitude <= start.Latitude {
		t.Errorf("expected northward pan to increase latitude: %v -> %v", start.Latitude, moved.Latitude)
	}

	// Panning back returns to the start.
	c.Pan(-100, -50)
	back := c.State().Center
	if math.Abs(back.Latitude-start.Latitude) > anchorTolerance ||
		math.Abs(back.Longitude-start.Longitude) > anchorTolerance {
		t.Errorf("pan round trip drifted: %+v vs %+v", back, start)
	}
}

func TestPanTriggersTileRequestPastThreshold(t *testing.T) {
	c := newTestController(geo.Point{Latitude: 37.6872, Longitude: -97.3301}, 8)

	var requests []TileRequest
	c.OnTileRequest(func(r TileRequest) { requests = append(requests, r) })

	// A tiny pan stays under the threshold.
	c.Pan(0.1, 0)
	if len(requests) != 0 {
		t.Fatalf("unexpected tile request for sub-threshold pan")
	}

	// A large pan crosses it.
	c.Pan(5000, 0)
	if len(requests) != 1 {
		t.Fatalf("expected 1 tile request after large pan, got %d", len(requests))
	}
	if requests[0].Center != c.State().Center {
		t.Errorf("request Center = %+v, want %+v", requests[0].Center, c.State().Center)
	}
}

func TestBookmarkCaptureAndApply(t *testing.T) {
	c := newTestController(geo.Point{Latitude: 51.5074, Longitude: -0.1278}, 10)
	b := c.CaptureBookmark("home")

	if b.Name != "home" || b.ZoomLevel != 10 {
		t.Fatalf("unexpected bookmark: %+v", b)
	}

	// Move somewhere else, disturb the continuous zoom, then restore.
	c.Pan(2000, -1500)
	c.HandleScroll(-3.0, 400, 300)

	var requests []TileRequest
	c.OnTileRequest(func(r TileRequest) { requests = append(requests, r) })

	if err := c.ApplyBookmark(b); err != nil {
		t.Fatalf("ApplyBookmark: %v", err)
	}

	st := c.State()
	if math.Abs(st.Center.Latitude-51.5074) > 1e-12 || math.Abs(st.Center.Longitude+0.1278) > 1e-12 {
		t.Errorf("Center = %+v, want bookmark position", st.Center)
	}
	if st.Level != 10 {
		t.Errorf("Level = %d, want 10", st.Level)
	}
	if st.ContinuousZoom != 1.0 {
		t.Errorf("ContinuousZoom = %v, want 1.0 after restore", st.ContinuousZoom)
	}
	if len(requests) != 1 {
		t.Errorf("expected 1 tile request after restore, got %d", len(requests))
	}
}

func TestApplyBookmarkRejectsInvalidLevel(t *testing.T) {
	c := newTestController(geo.Point{Latitude: 37.6872, Longitude: -97.3301}, 8)
	err := c.ApplyBookmark(Bookmark{Name: "bad", Latitude: 0, Longitude: 0, ZoomLevel: 40})
	if err == nil {
		t.Fatal("expected error for out-of-range bookmark level")
	}
	if got := c.State().Level; got != 8 {
		t.Errorf("Level changed on failed restore: got %d", got)
	}
}
