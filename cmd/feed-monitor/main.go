package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unklstewy/airscope/pkg/config"
	"github.com/unklstewy/airscope/pkg/coverage"
	"github.com/unklstewy/airscope/pkg/feed"
	"github.com/unklstewy/airscope/pkg/fusion"
	"github.com/unklstewy/airscope/pkg/geo"
)

// refresh drives the dashboard update rate.
const refresh = 1 * time.Second

// maxListed caps the fused aircraft table length.
const maxListed = 15

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	connectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// feedCell pairs a source's configuration with its snapshot mailbox.
type feedCell struct {
	source config.SourceConfig
	cell   *feed.Cell

	// lastFetch is the FetchedAt of the newest snapshot already merged,
	// so refresh ticks faster than the poll interval do not recount it.
	lastFetch time.Time
}

type model struct {
	observer geo.Point
	feeds    []feedCell
	merger   *fusion.Merger
	coverage *coverage.Aggregator
	started  time.Time

	showCoverage bool
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return tick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "c":
			m.showCoverage = !m.showCoverage
		case "r":
			m.coverage.Reset()
		}

	case tickMsg:
		m.ingest()
		return m, tick()
	}

	return m, nil
}

// ingest merges any snapshot not seen on an earlier tick, stamping
// merges with the snapshot's fetch time rather than the tick time.
func (m *model) ingest() {
	for i := range m.feeds {
		fc := &m.feeds[i]
		snap := fc.cell.Get()
		if snap.Status != feed.StatusConnected || !snap.FetchedAt.After(fc.lastFetch) {
			continue
		}
		fc.lastFetch = snap.FetchedAt
		for _, r := range snap.Reports {
			m.merger.Merge(snap.Source, r, snap.FetchedAt)
		}
	}

	for _, ft := range m.merger.Tracks() {
		m.coverage.Observe(ft.ICAO, geo.Point{Latitude: ft.Latitude, Longitude: ft.Longitude})
	}
}

func (m model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("AIRSCOPE FEED MONITOR"))
	s.WriteString(dimStyle.Render(fmt.Sprintf("  up %s", time.Since(m.started).Round(time.Second))))
	s.WriteString("\n\n")

	s.WriteString(headerStyle.Render("Feeds"))
	s.WriteString("\n")
	for _, fc := range m.feeds {
		snap := fc.cell.Get()

		var status string
		switch snap.Status {
		case feed.StatusConnected:
			status = connectedStyle.Render("connected")
		case feed.StatusError:
			status = errorStyle.Render("error")
		case feed.StatusConnecting:
			status = pendingStyle.Render("connecting")
		default:
			status = dimStyle.Render("disconnected")
		}

		line := fmt.Sprintf("  %-18s pri %3d  %-24s", fc.source.Name, fc.source.Priority, status)
		s.WriteString(line)
		switch {
		case snap.Status == feed.StatusConnected:
			s.WriteString(dimStyle.Render(fmt.Sprintf(" %3d aircraft, fetched %s ago",
				len(snap.Reports), time.Since(snap.FetchedAt).Round(time.Second))))
		case snap.Err != "":
			s.WriteString(errorStyle.Render(" " + snap.Err))
		}
		s.WriteString("\n")
	}
	s.WriteString("\n")

	s.WriteString(headerStyle.Render("Fusion"))
	s.WriteString("\n")
	for _, ss := range m.merger.Stats() {
		s.WriteString(fmt.Sprintf("  %-18s %5d reports  %4d aircraft  %4d primary\n",
			ss.Name, ss.Reports, ss.Aircraft, ss.Primary))
	}
	s.WriteString("\n")

	s.WriteString(m.renderAircraft())

	if m.showCoverage {
		s.WriteString(m.renderCoverage())
	}

	s.WriteString(helpStyle.Render("C: Coverage  R: Reset Coverage  Q: Quit"))
	s.WriteString("\n")
	return s.String()
}

// renderAircraft lists the closest fused aircraft.
func (m model) renderAircraft() string {
	var s strings.Builder

	tracks := m.merger.Tracks()
	type row struct {
		ft      *fusion.FusedTrack
		rangeNM float64
	}
	rows := make([]row, 0, len(tracks))
	for _, ft := range tracks {
		rows = append(rows, row{
			ft:      ft,
			rangeNM: geo.DistanceNauticalMiles(m.observer, geo.Point{Latitude: ft.Latitude, Longitude: ft.Longitude}),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].rangeNM < rows[j].rangeNM })

	s.WriteString(headerStyle.Render("Aircraft"))
	s.WriteString(fmt.Sprintf(" (%d fused)\n", len(tracks)))
	if len(rows) == 0 {
		s.WriteString(dimStyle.Render("  No fused aircraft yet\n\n"))
		return s.String()
	}

	s.WriteString(dimStyle.Render("  ICAO    CALLSIGN  ALT      GS    RANGE   SOURCE\n"))
	for i, r := range rows {
		if i >= maxListed {
			s.WriteString(dimStyle.Render(fmt.Sprintf("  ... and %d more\n", len(rows)-maxListed)))
			break
		}
		callsign := r.ft.Callsign
		if callsign == "" {
			callsign = "--------"
		}
		line := fmt.Sprintf("  %-7s %-9s %6d  %4.0fkt %5.1fnm  %s",
			r.ft.ICAO, callsign, r.ft.Altitude, r.ft.GroundSpeed, r.rangeNM, r.ft.PrimarySource)
		if r.ft.Emergency {
			line = errorStyle.Render(line + "  EMERGENCY")
		}
		s.WriteString(line)
		s.WriteString("\n")
	}
	s.WriteString("\n")
	return s.String()
}

// renderCoverage shows the receiver coverage summary.
func (m model) renderCoverage() string {
	var s strings.Builder

	st := m.coverage.Stats()
	s.WriteString(headerStyle.Render("Coverage"))
	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("  Max range: %5.1f nm   Avg sector max: %5.1f nm\n",
		st.MaxRangeNM, st.AvgMaxRangeNM))
	s.WriteString(fmt.Sprintf("  Sectors:   %2d/%d      Aircraft: %d\n",
		st.ActiveSectors, st.TotalSectors, st.UniqueAircraft))

	// One character per ten-degree sector, north first.
	var bar strings.Builder
	for _, sec := range m.coverage.Sectors() {
		switch {
		case sec.MaxRangeNM <= 0:
			bar.WriteRune('.')
		case sec.MaxRangeNM < 50:
			bar.WriteRune('-')
		case sec.MaxRangeNM < 100:
			bar.WriteRune('=')
		default:
			bar.WriteRune('#')
		}
	}
	s.WriteString("  Sectors N→: ")
	s.WriteString(dimStyle.Render(bar.String()))
	s.WriteString("\n\n")
	return s.String()
}

func main() {
	configPath := flag.String("config", "configs/config.json", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	sources := cfg.EnabledSources()
	if len(sources) == 0 {
		log.Fatal("No enabled sources in configuration")
	}

	observer := geo.Point{Latitude: cfg.Observer.Latitude, Longitude: cfg.Observer.Longitude}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fusionSources := make([]fusion.SourceConfig, 0, len(sources))
	feeds := make([]feedCell, 0, len(sources))
	interval := time.Duration(cfg.Feed.UpdateIntervalSeconds) * time.Second
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

		cell := &feed.Cell{}
		feeds = append(feeds, feedCell{source: src, cell: cell})
		client := feed.NewClient(src.Name, src.BaseURL, src.RequestsPerSecond)
		if src.APIKey != "" {
			client.SetAPIKey(src.APIKey)
		}
		worker := feed.NewWorker(client, cell, observer, cfg.Feed.SearchRadiusNM, interval)
		go worker.Run(ctx)
	}

	m := model{
		observer: observer,
		feeds:    feeds,
		merger:   fusion.NewMerger(fusionSources),
		coverage: coverage.NewAggregator(observer),
		started:  time.Now(),
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
