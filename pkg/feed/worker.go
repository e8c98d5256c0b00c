package feed

import (
	"context"
	"log"
	"time"

	"github.com/unklstewy/airscope/pkg/geo"
)

// Worker timing defaults.
const (
	// DefaultPollInterval is the time between successful fetches.
	DefaultPollInterval = 1 * time.Second

	// RetryDelay is the fixed backoff after a failed fetch.
	RetryDelay = 5 * time.Second
)

// Worker polls one feed in a background goroutine and publishes each
// result to its cell. The frame loop never calls into the worker; the
// cell is the only contact surface.
type Worker struct {
	client   *Client
	cell     *Cell
	center   geo.Point
	radiusNM float64
	interval time.Duration
}

// NewWorker creates a worker polling the given area. interval <= 0 uses
// DefaultPollInterval.
func NewWorker(client *Client, cell *Cell, center geo.Point, radiusNM float64, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Worker{
		client:   client,
		cell:     cell,
		center:   center.Clamped(),
		radiusNM: radiusNM,
		interval: interval,
	}
}

// Run polls until ctx is cancelled. Fetch failures are logged and
// retried after a fixed delay; the previous good report list stays in
// the cell so the display degrades to stale data rather than blanking.
func (w *Worker) Run(ctx context.Context) {
	source := w.client.Source()
	w.cell.Publish(Snapshot{Source: source, Status: StatusConnecting})

	for {
		reports, err := w.client.Fetch(ctx, w.center, w.radiusNM)
		if err != nil {
			if ctx.Err() != nil {
				w.cell.setStatus(StatusDisconnected, "")
				return
			}

			delay := RetryDelay
			if rle, ok := AsRateLimitError(err); ok && rle.RetryAfter > 0 {
				delay = rle.RetryAfter
			}
			log.Printf("feed %s: fetch failed, retrying in %s: %v", source, delay, err)
			w.cell.setStatus(StatusError, err.Error())

			if !sleepCtx(ctx, delay) {
				w.cell.setStatus(StatusDisconnected, "")
				return
			}
			continue
		}

		w.cell.Publish(Snapshot{
			Source:    source,
			Status:    StatusConnected,
			Reports:   reports,
			FetchedAt: time.Now().UTC(),
		})

		if !sleepCtx(ctx, w.interval) {
			w.cell.setStatus(StatusDisconnected, "")
			return
		}
	}
}

// sleepCtx waits for d, returning false if ctx is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
