// Package fusion merges aircraft reports from multiple feeds into a
// single coherent picture. Each feed has a configured priority; for any
// given aircraft, the highest-priority source that has reported it owns
// the displayed fields, while lower-priority sources still count toward
// liveness. Fusion never removes aircraft: partial feeds must not erase
// data contributed by feeds with wider coverage.
package fusion

import (
	"sort"
	"time"

	"github.com/unklstewy/airscope/pkg/geo"
	"github.com/unklstewy/airscope/pkg/track"
)

// DefaultPriority is assigned to sources configured without an explicit
// priority.
const DefaultPriority = 100

// SourceConfig describes one configured data feed.
type SourceConfig struct {
	// Name identifies the feed in reports, stats, and logs.
	Name string `json:"name"`

	// Endpoint is the feed URL or host:port.
	Endpoint string `json:"endpoint"`

	// Enabled turns the feed on without removing its configuration.
	Enabled bool `json:"enabled"`

	// Priority ranks this feed against others; higher wins field
	// ownership. Equal priority resolves in favor of the most recent
	// report.
	Priority uint8 `json:"priority"`

	// ReceiverLocation is the feed's antenna position, used for
	// coverage analysis. Zero when the feed is a remote aggregator.
	ReceiverLocation geo.Point `json:"receiver_location"`
}

// FusedTrack is the merged state of one aircraft across all sources.
type FusedTrack struct {
	track.Track

	// PrimarySource is the feed currently owning the displayed fields.
	PrimarySource string

	// PrimaryPriority is the configured priority of PrimarySource.
	PrimaryPriority uint8

	// Sources maps each feed that has ever reported this aircraft to
	// the time of its most recent report.
	Sources map[string]time.Time
}

// SourceStats summarizes one feed's contribution to the fused picture.
type SourceStats struct {
	// Name is the feed name.
	Name string

	// Priority is the feed's configured priority.
	Priority uint8

	// Reports is how many reports from this feed were merged.
	Reports int

	// Aircraft is how many current aircraft this feed has reported.
	Aircraft int

	// Primary is how many current aircraft this feed owns.
	Primary int

	// LastReport is when this feed last delivered a report. Zero if it
	// never has.
	LastReport time.Time
}

// Merger fuses per-source reports into FusedTracks. It is owned by the
// frame loop and is not safe for concurrent use.
type Merger struct {
	tracks     map[string]*FusedTrack
	priorities map[string]uint8
	lowest     uint8
	reports    map[string]int
	lastReport map[string]time.Time
}

// NewMerger creates a merger for the given source configurations.
// Reports naming a source absent from the configuration are still
// merged, at the lowest configured priority; data is never dropped over
// a configuration gap.
func NewMerger(sources []SourceConfig) *Merger {
	m := &Merger{
		tracks:     make(map[string]*FusedTrack),
		priorities: make(map[string]uint8),
		lowest:     DefaultPriority,
		reports:    make(map[string]int),
		lastReport: make(map[string]time.Time),
	}
	for i, src := range sources {
		m.priorities[src.Name] = src.Priority
		if i == 0 || src.Priority < m.lowest {
			m.lowest = src.Priority
		}
	}
	return m
}

// SetPriority changes the configured priority of a source, adding it if
// it was not configured. Existing ownership is not revisited: a source
// raised above the current primary takes over an aircraft on its next
// report for it. Used when the source configuration is reloaded.
func (m *Merger) SetPriority(source string, priority uint8) {
	m.priorities[source] = priority
	first := true
	for _, p := range m.priorities {
		if first || p < m.lowest {
			m.lowest = p
		}
		first = false
	}
}

// priorityFor resolves a source name to its configured priority, falling
// back to the lowest configured priority for unknown names.
func (m *Merger) priorityFor(source string) uint8 {
	if p, ok := m.priorities[source]; ok {
		return p
	}
	return m.lowest
}

// Merge folds one report from the named source into the fused picture.
// Reports without an ICAO address are dropped: there is nothing to merge
// them into. A positionless report for an unseen aircraft is also
// dropped, so a fused track always has a position; for a known aircraft
// it is a partial update. A report at or above the current primary's
// priority takes over field ownership and sparsely overwrites the fields
// it supplies; a lower-priority report only refreshes liveness.
func (m *Merger) Merge(source string, r track.Report, now time.Time) {
	if r.ICAO == "" {
		return
	}
	m.reports[source]++
	m.lastReport[source] = now
	priority := m.priorityFor(source)

	ft, ok := m.tracks[r.ICAO]
	if !ok {
		if !r.HasPosition() {
			return
		}
		ft = &FusedTrack{
			Track:           track.Track{ICAO: r.ICAO},
			PrimarySource:   source,
			PrimaryPriority: priority,
			Sources:         make(map[string]time.Time),
		}
		ft.Apply(r)
		ft.LastSeen = now
		ft.Sources[source] = now
		m.tracks[r.ICAO] = ft
		return
	}

	ft.Sources[source] = now
	ft.LastSeen = now
	if priority >= ft.PrimaryPriority {
		ft.PrimarySource = source
		ft.PrimaryPriority = priority
		ft.Apply(r)
	}
}

// Get returns the fused track for an ICAO address, if known.
func (m *Merger) Get(icao string) (*FusedTrack, bool) {
	ft, ok := m.tracks[icao]
	return ft, ok
}

// Len returns the number of fused tracks.
func (m *Merger) Len() int {
	return len(m.tracks)
}

// Tracks returns every fused track, sorted by ICAO.
func (m *Merger) Tracks() []*FusedTrack {
	out := make([]*FusedTrack, 0, len(m.tracks))
	for _, ft := range m.tracks {
		out = append(out, ft)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ICAO < out[j].ICAO })
	return out
}

// Stats returns per-source contribution counts, sorted by descending
// priority then name.
func (m *Merger) Stats() []SourceStats {
	names := make(map[string]struct{}, len(m.priorities))
	for name := range m.priorities {
		names[name] = struct{}{}
	}
	for name := range m.reports {
		names[name] = struct{}{}
	}

	out := make([]SourceStats, 0, len(names))
	for name := range names {
		st := SourceStats{
			Name:       name,
			Priority:   m.priorityFor(name),
			Reports:    m.reports[name],
			LastReport: m.lastReport[name],
		}
		for _, ft := range m.tracks {
			if _, ok := ft.Sources[name]; ok {
				st.Aircraft++
			}
			if ft.PrimarySource == name {
				st.Primary++
			}
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Name < out[j].Name
	})
	return out
}
