package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/unklstewy/airscope/pkg/coverage"
	"github.com/unklstewy/airscope/pkg/feed"
	"github.com/unklstewy/airscope/pkg/geo"
)

// render redraws the map and status panel from current track state.
func (a *App) render() {
	a.renderMap()
	a.renderStatus()
}

// cell is one character of the map grid with its color tag.
type cell struct {
	ch    rune
	color string
}

// renderMap projects every track into the map grid. Screen position is
// the track's world-pixel offset from the view center, scaled by the
// continuous zoom.
func (a *App) renderMap() {
	w, h := a.mapSize()
	if w <= 0 || h <= 0 {
		return
	}

	grid := make([][]cell, h)
	for y := range grid {
		grid[y] = make([]cell, w)
		for x := range grid[y] {
			grid[y][x] = cell{ch: ' '}
		}
	}

	put := func(sx, sy int, ch rune, color string) {
		if sx >= 0 && sx < w && sy >= 0 && sy < h {
			grid[sy][sx] = cell{ch: ch, color: color}
		}
	}

	st := a.controller.State()
	proj := a.controller.Projector()
	cx, cy := proj.ToPixel(st.Center)
	cz := st.ContinuousZoom
	toScreen := func(p geo.Point) (int, int) {
		px, py := proj.ToPixel(p)
		sx := float64(w)/2 + (px-cx)*cz
		sy := float64(h)/2 - (py-cy)*cz
		return int(sx), int(sy)
	}

	// Observer marker.
	ox, oy := toScreen(geo.Point{Latitude: a.cfg.Observer.Latitude, Longitude: a.cfg.Observer.Longitude})
	put(ox, oy, '+', "green")

	// Coverage boundary under everything else.
	if a.coverageEnabled && a.cfg.Coverage.ShowPolygon {
		for _, p := range a.coverage.PolygonPoints() {
			sx, sy := toScreen(p)
			put(sx, sy, '.', "darkcyan")
		}
	}

	now := time.Now().UTC()
	for _, t := range a.store.All() {
		if a.showTrails {
			for _, tp := range t.Trail {
				sx, sy := toScreen(geo.Point{Latitude: tp.Latitude, Longitude: tp.Longitude})
				put(sx, sy, '·', "gray")
			}
		}

		sx, sy := toScreen(geo.Point{Latitude: t.Latitude, Longitude: t.Longitude})
		put(sx, sy, headingSymbol(t.Heading), opacityColor(a.staleness.Opacity(t.LastSeen, now), t.Emergency))

		// Dead-reckon stale aircraft forward so the likely current
		// position stays visible while reports are missing.
		if age := now.Sub(t.LastSeen); age > a.staleness.StaleStart && t.GroundSpeed > 0 {
			predicted := geo.ProjectPosition(
				geo.Point{Latitude: t.Latitude, Longitude: t.Longitude},
				t.Heading, t.GroundSpeed, age.Minutes())
			px2, py2 := toScreen(predicted)
			put(px2, py2, '?', "darkgray")
		}

		// Callsign label to the right of the symbol.
		label := t.Callsign
		if label == "" {
			label = t.ICAO
		}
		for i, ch := range label {
			lx := sx + 2 + i
			if lx >= w || sy < 0 || sy >= h {
				break
			}
			if grid[sy][lx].ch == ' ' {
				grid[sy][lx] = cell{ch: ch, color: "gray"}
			}
		}
	}

	var b strings.Builder
	for y := 0; y < h; y++ {
		current := ""
		for x := 0; x < w; x++ {
			c := grid[y][x]
			if c.color != current {
				if c.color == "" {
					b.WriteString("[-]")
				} else {
					b.WriteString("[" + c.color + "]")
				}
				current = c.color
			}
			b.WriteRune(c.ch)
		}
		if current != "" {
			b.WriteString("[-]")
		}
		b.WriteByte('\n')
	}
	a.mapView.SetText(b.String())
}

// headingSymbol picks an arrow for the track's ground track, eight
// directions with north at the top.
func headingSymbol(heading float64) rune {
	idx := int((geo.NormalizeBearing(heading)+22.5)/45.0) % 8
	return [8]rune{'↑', '↗', '→', '↘', '↓', '↙', '←', '↖'}[idx]
}

// opacityColor maps staleness opacity onto terminal colors. Emergency
// aircraft stay red regardless of age.
func opacityColor(opacity float64, emergency bool) string {
	if emergency {
		return "red"
	}
	switch {
	case opacity > 0.8:
		return "white"
	case opacity > 0.4:
		return "gray"
	default:
		return "darkgray"
	}
}

// renderStatus refreshes the sidebar status panel.
func (a *App) renderStatus() {
	st := a.controller.State()

	var b strings.Builder
	fmt.Fprintf(&b, "[yellow]VIEW[-]\n")
	fmt.Fprintf(&b, "[gray]Center:[-] [white]%.4f, %.4f[-]\n", st.Center.Latitude, st.Center.Longitude)
	fmt.Fprintf(&b, "[gray]Level:[-]  [white]%d[-]  [gray]Zoom:[-] [white]%.2fx[-]\n", st.Level, st.ContinuousZoom)
	fmt.Fprintf(&b, "[gray]Tracks:[-] [white]%d[-]\n\n", a.store.Len())

	fmt.Fprintf(&b, "[yellow]FEEDS[-]\n")
	for _, c := range a.cells {
		snap := c.Get()
		color := "white"
		switch snap.Status {
		case feed.StatusConnected:
			color = "green"
		case feed.StatusError:
			color = "red"
		case feed.StatusConnecting:
			color = "yellow"
		}
		fmt.Fprintf(&b, "[gray]%s:[-] [%s]%s[-]", snap.Source, color, snap.Status)
		if snap.Status == feed.StatusConnected {
			fmt.Fprintf(&b, " [gray](%d ac)[-]", len(snap.Reports))
		}
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	if !a.singleSource {
		fmt.Fprintf(&b, "[yellow]FUSION[-]\n")
		for _, ss := range a.merger.Stats() {
			fmt.Fprintf(&b, "[gray]%s:[-] [white]%d primary[-] [gray]/ %d seen[-]\n",
				ss.Name, ss.Primary, ss.Aircraft)
		}
		b.WriteByte('\n')
	}

	if a.coverageEnabled {
		cs := a.coverage.Stats()
		fmt.Fprintf(&b, "[yellow]COVERAGE[-]\n")
		fmt.Fprintf(&b, "[gray]Max range:[-] [white]%.0f nm[-]\n", cs.MaxRangeNM)
		fmt.Fprintf(&b, "[gray]Sectors:[-]   [white]%d/%d[-]\n", cs.ActiveSectors, cs.TotalSectors)
		fmt.Fprintf(&b, "[gray]Aircraft:[-]  [white]%d[-]\n\n", cs.UniqueAircraft)
	}

	fmt.Fprintf(&b, "[yellow]ALTITUDES[-]\n")
	bands := a.altitudeBands()
	fmt.Fprintf(&b, "[gray]<10k:[-]    [white]%d[-]\n", bands.Below10k)
	fmt.Fprintf(&b, "[gray]10-25k:[-]  [white]%d[-]\n", bands.From10kTo25k)
	fmt.Fprintf(&b, "[gray]25-40k:[-]  [white]%d[-]\n", bands.From25kTo40k)
	fmt.Fprintf(&b, "[gray]>40k:[-]    [white]%d[-]\n", bands.Above40k)
	fmt.Fprintf(&b, "[gray]unknown:[-] [white]%d[-]\n", bands.Unknown)

	a.status.SetText(b.String())
}

// altitudeBands histograms the current tracks by altitude.
func (a *App) altitudeBands() coverage.AltitudeBands {
	var bands coverage.AltitudeBands
	for _, t := range a.store.All() {
		bands.Add(t.Altitude, t.AltitudeKnown)
	}
	return bands
}
