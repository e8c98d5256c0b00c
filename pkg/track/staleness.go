package track

import "time"

// Default staleness fade thresholds.
const (
	// DefaultStaleStart is the age at which a track begins to fade.
	DefaultStaleStart = 10 * time.Second

	// DefaultStaleFull is the age at which the fade bottoms out.
	DefaultStaleFull = 30 * time.Second

	// DefaultMinOpacity is the opacity floor for fully stale tracks.
	DefaultMinOpacity = 0.1
)

// StalenessConfig controls how track opacity decays with report age.
type StalenessConfig struct {
	// StaleStart is the age below which a track is fully opaque.
	StaleStart time.Duration

	// StaleFull is the age at which opacity reaches MinOpacity.
	StaleFull time.Duration

	// MinOpacity is the floor; stale tracks fade but never vanish.
	MinOpacity float64
}

// DefaultStalenessConfig returns the standard fade thresholds.
func DefaultStalenessConfig() StalenessConfig {
	return StalenessConfig{
		StaleStart: DefaultStaleStart,
		StaleFull:  DefaultStaleFull,
		MinOpacity: DefaultMinOpacity,
	}
}

// Opacity returns the display opacity in [MinOpacity, 1.0] for a track
// last seen at the given time: 1.0 while fresh, linearly interpolated
// down to MinOpacity between StaleStart and StaleFull, and MinOpacity
// thereafter. Pure function of elapsed time.
func (c StalenessConfig) Opacity(lastSeen, now time.Time) float64 {
	elapsed := now.Sub(lastSeen)
	if elapsed <= c.StaleStart {
		return 1.0
	}
	if elapsed >= c.StaleFull {
		return c.MinOpacity
	}
	frac := float64(elapsed-c.StaleStart) / float64(c.StaleFull-c.StaleStart)
	return 1.0 - frac*(1.0-c.MinOpacity)
}
