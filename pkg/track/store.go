package track

import (
	"sort"
	"time"
)

// Default trail and lifetime tuning.
const (
	// DefaultTrailInterval is the minimum spacing between trail samples.
	DefaultTrailInterval = 2 * time.Second

	// DefaultTrailMaxAge is how long trail points are kept.
	DefaultTrailMaxAge = 5 * time.Minute

	// DefaultTrackTimeout is how long a track survives without any
	// report before being considered gone.
	DefaultTrackTimeout = 180 * time.Second
)

// Config tunes the store. Zero values are replaced with defaults.
type Config struct {
	// TrailInterval is the minimum time between trail samples per track.
	TrailInterval time.Duration
}

// Store holds all known tracks keyed by ICAO address.
type Store struct {
	tracks        map[string]*Track
	trailInterval time.Duration
}

// NewStore creates an empty track store.
func NewStore(cfg Config) *Store {
	if cfg.TrailInterval == 0 {
		cfg.TrailInterval = DefaultTrailInterval
	}
	return &Store{
		tracks:        make(map[string]*Track),
		trailInterval: cfg.TrailInterval,
	}
}

// Upsert creates or updates the track for the report's ICAO address.
// A report for an unknown aircraft that carries no position is ignored:
// a track is never created without somewhere to draw it. Known tracks
// merge the report sparsely and refresh LastSeen.
func (s *Store) Upsert(r Report, now time.Time) {
	t, ok := s.tracks[r.ICAO]
	if !ok {
		if !r.HasPosition() {
			return
		}
		t = &Track{ICAO: r.ICAO}
		s.tracks[r.ICAO] = t
	}
	t.Apply(r)
	t.LastSeen = now
}

// Get returns the track for the given ICAO address, if known.
func (s *Store) Get(icao string) (*Track, bool) {
	t, ok := s.tracks[icao]
	return t, ok
}

// Len returns the number of tracks.
func (s *Store) Len() int {
	return len(s.tracks)
}

// All returns every track, sorted by ICAO for stable iteration order.
func (s *Store) All() []*Track {
	out := make([]*Track, 0, len(s.tracks))
	for _, t := range s.tracks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ICAO < out[j].ICAO })
	return out
}

// RecordTrailSample appends the track's current position to its trail if
// at least the configured interval has passed since the last sample.
// Update frequency therefore does not affect trail density.
func (s *Store) RecordTrailSample(icao string, now time.Time) {
	t, ok := s.tracks[icao]
	if !ok {
		return
	}
	if !t.LastTrailSample.IsZero() && now.Sub(t.LastTrailSample) < s.trailInterval {
		return
	}
	t.Trail = append(t.Trail, TrailPoint{
		Latitude:  t.Latitude,
		Longitude: t.Longitude,
		Timestamp: now,
	})
	t.LastTrailSample = now
}

// PruneTrails drops trail points older than maxAge. Trails are
// time-ordered, so expired points are truncated from the front without
// scanning the whole trail.
func (s *Store) PruneTrails(maxAge time.Duration, now time.Time) {
	cutoff := now.Add(-maxAge)
	for _, t := range s.tracks {
		i := 0
		for i < len(t.Trail) && t.Trail[i].Timestamp.Before(cutoff) {
			i++
		}
		if i > 0 {
			t.Trail = t.Trail[i:]
		}
	}
}

// RemoveAbsent deletes every track whose ICAO is not in the given set and
// returns the removed identifiers, sorted, so display state keyed by
// ICAO can be cleaned up. Used in single-source mode, where each feed
// snapshot is a complete picture of what the source currently sees.
func (s *Store) RemoveAbsent(current map[string]struct{}) []string {
	var removed []string
	for icao := range s.tracks {
		if _, ok := current[icao]; !ok {
			delete(s.tracks, icao)
			removed = append(removed, icao)
		}
	}
	sort.Strings(removed)
	return removed
}

// RemoveStale deletes tracks not seen for longer than timeout and
// returns the removed identifiers, sorted.
func (s *Store) RemoveStale(timeout time.Duration, now time.Time) []string {
	var removed []string
	for icao, t := range s.tracks {
		if now.Sub(t.LastSeen) > timeout {
			delete(s.tracks, icao)
			removed = append(removed, icao)
		}
	}
	sort.Strings(removed)
	return removed
}
