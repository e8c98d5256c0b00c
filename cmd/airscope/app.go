package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/unklstewy/airscope/pkg/config"
	"github.com/unklstewy/airscope/pkg/coverage"
	"github.com/unklstewy/airscope/pkg/feed"
	"github.com/unklstewy/airscope/pkg/fusion"
	"github.com/unklstewy/airscope/pkg/geo"
	"github.com/unklstewy/airscope/pkg/projection"
	"github.com/unklstewy/airscope/pkg/track"
	"github.com/unklstewy/airscope/pkg/viewport"
)

// framePeriod is the display refresh interval.
const framePeriod = 250 * time.Millisecond

// App is the main application. All track, fusion, and view state is
// owned by the frame loop; feed workers only touch their snapshot cells.
type App struct {
	cfg        *config.Config
	configPath string

	controller *viewport.Controller
	store      *track.Store
	merger     *fusion.Merger
	coverage   *coverage.Aggregator
	staleness  track.StalenessConfig

	cells        []*feed.Cell
	ingested     []time.Time
	singleSource bool
	trailMaxAge  time.Duration

	showTrails      bool
	coverageEnabled bool

	tviewApp *tview.Application
	mapView  *tview.TextView
	status   *tview.TextView
	controls *tview.TextView
	logs     *tview.TextView

	cancel context.CancelFunc
}

// NewApp builds the application from configuration.
func NewApp(cfg *config.Config, configPath string) *App {
	observer := geo.Point{Latitude: cfg.Observer.Latitude, Longitude: cfg.Observer.Longitude}

	level, err := projection.NewZoomLevel(cfg.Map.DefaultZoomLevel)
	if err != nil {
		level = projection.ZoomLevel(10)
	}

	controller := viewport.NewController(observer, level, viewport.Config{
		ScrollSensitivity: cfg.Map.ScrollSensitivity,
		MinZoom:           cfg.Map.MinZoom,
		MaxZoom:           cfg.Map.MaxZoom,
		TileRadius:        cfg.Map.TileRadius,
	})

	sources := cfg.EnabledSources()
	fusionSources := make([]fusion.SourceConfig, 0, len(sources))
	for _, src := range sources {
		fusionSources = append(fusionSources, fusion.SourceConfig{
			Name:     src.Name,
			Endpoint: src.BaseURL,
			Enabled:  src.Enabled,
			Priority: src.Priority,
			ReceiverLocation: geo.Point{
				Latitude:  src.ReceiverLatitude,
				Longitude: src.ReceiverLongitude,
			},
		})
	}

	a := &App{
		cfg:        cfg,
		configPath: configPath,
		controller: controller,
		store: track.NewStore(track.Config{
			TrailInterval: time.Duration(cfg.Trails.IntervalSeconds * float64(time.Second)),
		}),
		merger:   fusion.NewMerger(fusionSources),
		coverage: coverage.NewAggregator(observer),
		staleness: track.StalenessConfig{
			StaleStart: time.Duration(cfg.Staleness.StaleStartSeconds * float64(time.Second)),
			StaleFull:  time.Duration(cfg.Staleness.StaleFullSeconds * float64(time.Second)),
			MinOpacity: cfg.Staleness.MinOpacity,
		},
		singleSource:    len(sources) == 1,
		trailMaxAge:     time.Duration(cfg.Trails.MaxAgeSeconds * float64(time.Second)),
		showTrails:      true,
		coverageEnabled: cfg.Coverage.Enabled,
	}

	a.setupUI()

	controller.OnTileRequest(func(r viewport.TileRequest) {
		a.addLog("DEBUG", fmt.Sprintf("Tiles needed: level %d around %.4f, %.4f (radius %d)",
			r.Zoom, r.Center.Latitude, r.Center.Longitude, r.Radius))
	})

	return a
}

// Run starts the feed workers and the UI event loop. Blocks until quit.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	defer cancel()

	observer := geo.Point{Latitude: a.cfg.Observer.Latitude, Longitude: a.cfg.Observer.Longitude}
	interval := time.Duration(a.cfg.Feed.UpdateIntervalSeconds) * time.Second
	for _, src := range a.cfg.EnabledSources() {
		cell := &feed.Cell{}
		a.cells = append(a.cells, cell)
		a.ingested = append(a.ingested, time.Time{})
		client := feed.NewClient(src.Name, src.BaseURL, src.RequestsPerSecond)
		if src.APIKey != "" {
			client.SetAPIKey(src.APIKey)
		}
		worker := feed.NewWorker(client, cell, observer, a.cfg.Feed.SearchRadiusNM, interval)
		go worker.Run(ctx)
		a.addLog("INFO", fmt.Sprintf("Started feed %s (priority %d)", src.Name, src.Priority))
	}

	go a.frameLoop(ctx)

	return a.tviewApp.Run()
}

// frameLoop drives the per-frame update: ingest snapshots, update the
// track store, then redraw.
func (a *App) frameLoop(ctx context.Context) {
	ticker := time.NewTicker(framePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.tviewApp.QueueUpdateDraw(func() {
				a.updateFrame(time.Now().UTC())
				a.render()
			})
		}
	}
}

// updateFrame ingests the latest feed snapshots and advances track
// state. Store mutation runs before trail sampling, staleness, and
// coverage read it; all within this single frame-loop call.
func (a *App) updateFrame(now time.Time) {
	for i, cell := range a.cells {
		snap, ok := cell.TryGet()
		if !ok || snap.Status != feed.StatusConnected {
			// Worker mid-publish or not connected; use last frame's data.
			continue
		}
		// Frames run faster than fetches; a snapshot already merged on
		// an earlier frame carries nothing new.
		if !snap.FetchedAt.After(a.ingested[i]) {
			continue
		}
		a.ingested[i] = snap.FetchedAt

		if a.singleSource {
			current := make(map[string]struct{}, len(snap.Reports))
			for _, r := range snap.Reports {
				if r.ICAO == "" {
					continue
				}
				current[r.ICAO] = struct{}{}
				a.store.Upsert(r, snap.FetchedAt)
			}
			// A single source's snapshot is the whole picture, so
			// anything missing from it is gone.
			a.store.RemoveAbsent(current)
		} else {
			for _, r := range snap.Reports {
				a.merger.Merge(snap.Source, r, snap.FetchedAt)
			}
		}
	}

	if !a.singleSource {
		// Fused tracks are never removed, only dimmed by staleness;
		// partial feeds must not erase wider-coverage data.
		for _, ft := range a.merger.Tracks() {
			a.store.Upsert(fusedReport(ft), ft.LastSeen)
		}
	}

	for _, t := range a.store.All() {
		a.store.RecordTrailSample(t.ICAO, now)
		if a.coverageEnabled {
			a.coverage.Observe(t.ICAO, geo.Point{Latitude: t.Latitude, Longitude: t.Longitude})
		}
	}
	a.store.PruneTrails(a.trailMaxAge, now)
}

// fusedReport flattens a fused track into a report for the display
// store. The sparse-merge rules have already run inside the fusion
// engine; altitude is carried over only once some source has reported
// one, so 0 ft stays distinguishable from missing.
func fusedReport(ft *fusion.FusedTrack) track.Report {
	lat, lon := ft.Latitude, ft.Longitude
	hdg := ft.Heading
	gs := ft.GroundSpeed
	vr := ft.VerticalRate
	cs := ft.Callsign
	sq := ft.Squawk
	og := ft.OnGround
	alert, emergency, spi := ft.Alert, ft.Emergency, ft.SPI
	var alt *int
	if ft.AltitudeKnown {
		a := ft.Altitude
		alt = &a
	}
	return track.Report{
		ICAO:         ft.ICAO,
		Callsign:     &cs,
		Latitude:     &lat,
		Longitude:    &lon,
		Altitude:     alt,
		Heading:      &hdg,
		GroundSpeed:  &gs,
		VerticalRate: &vr,
		Squawk:       &sq,
		OnGround:     &og,
		Alert:        &alert,
		Emergency:    &emergency,
		SPI:          &spi,
	}
}

// setupUI builds the tview layout: map area plus a sidebar with status,
// controls, and logs.
func (a *App) setupUI() {
	a.tviewApp = tview.NewApplication()

	a.mapView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false).
		SetWrap(false)
	a.mapView.SetBorder(true).SetTitle(" airscope ")

	a.status = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	a.status.SetBorder(true).SetTitle(" Status ")

	a.controls = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	a.controls.SetBorder(true).SetTitle(" Controls ")
	a.controls.SetText(`[yellow]MAP[-]
  [white]wheel[-]     Zoom at cursor
  [white]+/-[-]       Zoom at center
  [white]arrows[-]    Pan
  [white]0[-]         Home view

[yellow]OVERLAYS[-]
  [white]t[-]         Trails
  [white]c[-]         Coverage

[yellow]BOOKMARKS[-]
  [white]b[-]         Save current view
  [white]1-9[-]       Jump to bookmark

[yellow]CONTROL[-]
  [white]q[-]         Quit`)

	a.logs = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetMaxLines(100)
	a.logs.SetBorder(true).SetTitle(" Logs ")

	sidebar := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.status, 0, 4, false).
		AddItem(a.controls, 0, 3, false).
		AddItem(a.logs, 0, 3, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.mapView, 0, 7, true).
		AddItem(sidebar, 0, 3, false)

	a.tviewApp.SetRoot(root, true)
	a.tviewApp.EnableMouse(true)
	a.tviewApp.SetInputCapture(a.handleKeyboard)
	a.tviewApp.SetMouseCapture(a.handleMouse)
}

// mapSize returns the inner drawable size of the map view and keeps the
// zoom controller's notion of the viewport in sync with it.
func (a *App) mapSize() (w, h int) {
	_, _, w, h = a.mapView.GetInnerRect()
	a.controller.SetViewportSize(float64(w), float64(h))
	return w, h
}

// handleMouse zooms at the cursor on wheel events over the map.
func (a *App) handleMouse(event *tcell.EventMouse, action tview.MouseAction) (*tcell.EventMouse, tview.MouseAction) {
	if action != tview.MouseScrollUp && action != tview.MouseScrollDown {
		return event, action
	}

	x, y := event.Position()
	ix, iy, w, h := a.mapView.GetInnerRect()
	if x < ix || x >= ix+w || y < iy || y >= iy+h {
		return event, action
	}
	a.controller.SetViewportSize(float64(w), float64(h))

	delta := 1.0
	if action == tview.MouseScrollUp {
		delta = -1.0
	}
	a.controller.HandleScroll(delta, float64(x-ix), float64(y-iy))
	return nil, action
}

// handleKeyboard handles keyboard input.
func (a *App) handleKeyboard(event *tcell.EventKey) *tcell.EventKey {
	key := event.Key()
	r := event.Rune()

	w, h := a.mapSize()
	centerX, centerY := float64(w)/2, float64(h)/2

	switch {
	case key == tcell.KeyEscape || r == 'q':
		a.Stop()
		return nil

	case r == '+' || r == '=':
		a.controller.HandleScroll(-1.0, centerX, centerY)
		return nil
	case r == '-':
		a.controller.HandleScroll(1.0, centerX, centerY)
		return nil
	case r == '0':
		a.homeView()
		return nil

	case key == tcell.KeyUp:
		a.controller.Pan(0, 4)
		return nil
	case key == tcell.KeyDown:
		a.controller.Pan(0, -4)
		return nil
	case key == tcell.KeyLeft:
		a.controller.Pan(-8, 0)
		return nil
	case key == tcell.KeyRight:
		a.controller.Pan(8, 0)
		return nil

	case r == 't':
		a.showTrails = !a.showTrails
		return nil
	case r == 'c':
		a.coverageEnabled = !a.coverageEnabled
		if !a.coverageEnabled {
			a.coverage.Reset()
		}
		a.addLog("INFO", fmt.Sprintf("Coverage analysis %s", onOff(a.coverageEnabled)))
		return nil

	case r == 'b':
		a.saveBookmark()
		return nil
	case r >= '1' && r <= '9':
		a.jumpToBookmark(int(r - '1'))
		return nil
	}

	return event
}

// homeView returns to the observer location at the configured level.
func (a *App) homeView() {
	if err := a.controller.ApplyBookmark(viewport.Bookmark{
		Name:      "home",
		Latitude:  a.cfg.Observer.Latitude,
		Longitude: a.cfg.Observer.Longitude,
		ZoomLevel: uint8(a.cfg.Map.DefaultZoomLevel),
	}); err != nil {
		a.addLog("ERROR", err.Error())
	}
}

// saveBookmark appends the current view to the config file.
func (a *App) saveBookmark() {
	b := a.controller.CaptureBookmark(fmt.Sprintf("bookmark-%d", len(a.cfg.Bookmarks)+1))
	a.cfg.Bookmarks = append(a.cfg.Bookmarks, config.Bookmark{
		Name:      b.Name,
		Latitude:  b.Latitude,
		Longitude: b.Longitude,
		ZoomLevel: b.ZoomLevel,
	})
	if err := a.cfg.Save(a.configPath); err != nil {
		a.addLog("ERROR", fmt.Sprintf("Failed to save bookmark: %v", err))
		return
	}
	a.addLog("INFO", fmt.Sprintf("Saved %s at %.4f, %.4f (level %d)",
		b.Name, b.Latitude, b.Longitude, b.ZoomLevel))
}

// jumpToBookmark restores a saved view by index.
func (a *App) jumpToBookmark(idx int) {
	if idx < 0 || idx >= len(a.cfg.Bookmarks) {
		return
	}
	b := a.cfg.Bookmarks[idx]
	if err := a.controller.ApplyBookmark(viewport.Bookmark{
		Name:      b.Name,
		Latitude:  b.Latitude,
		Longitude: b.Longitude,
		ZoomLevel: b.ZoomLevel,
	}); err != nil {
		a.addLog("ERROR", err.Error())
		return
	}
	a.addLog("INFO", fmt.Sprintf("Jumped to %s", b.Name))
}

// addLog appends a line to the log panel.
func (a *App) addLog(level, message string) {
	var color string
	switch level {
	case "ERROR":
		color = "red"
	case "WARN":
		color = "yellow"
	case "DEBUG":
		color = "gray"
	default:
		color = "white"
	}
	fmt.Fprintf(a.logs, "[gray]%s[-] [%s]%-5s[-] %s\n",
		time.Now().Format("15:04:05"), color, level, message)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// Stop shuts down the application.
func (a *App) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
	a.tviewApp.Stop()
}
