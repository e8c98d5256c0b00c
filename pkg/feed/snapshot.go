package feed

import (
	"sync"
	"time"

	"github.com/unklstewy/airscope/pkg/track"
)

// Status is the connection state of one feed.
type Status int

const (
	// StatusDisconnected means the worker has not attempted a fetch yet.
	StatusDisconnected Status = iota

	// StatusConnecting means a fetch is in flight with no prior success.
	StatusConnecting

	// StatusConnected means the last fetch succeeded.
	StatusConnected

	// StatusError means the last fetch failed; Snapshot.Err has details.
	StatusError
)

// String returns the status name for logs and the status display.
func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is the latest state published by one feed worker: the most
// recent aircraft list plus connection state. Reports is a complete
// picture of what the source currently sees, not a delta.
type Snapshot struct {
	// Source is the feed name that produced this snapshot.
	Source string

	// Status is the feed connection state.
	Status Status

	// Err is the failure message when Status is StatusError.
	Err string

	// Reports is the aircraft list from the last successful fetch.
	Reports []track.Report

	// FetchedAt is when Reports was retrieved.
	FetchedAt time.Time
}

// Cell is the mutex-guarded mailbox between one feed worker and the
// frame loop. The worker is the only writer; the frame loop is the only
// reader, so each source's updates are observed in order.
type Cell struct {
	mu   sync.Mutex
	snap Snapshot
}

// Publish replaces the current snapshot.
func (c *Cell) Publish(s Snapshot) {
	c.mu.Lock()
	c.snap = s
	c.mu.Unlock()
}

// setStatus updates connection state without touching the report list.
func (c *Cell) setStatus(status Status, errMsg string) {
	c.mu.Lock()
	c.snap.Status = status
	c.snap.Err = errMsg
	c.mu.Unlock()
}

// Get returns the current snapshot, blocking briefly if the worker is
// mid-publish.
func (c *Cell) Get() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// TryGet returns the current snapshot without blocking. When the worker
// holds the lock the frame loop skips this source for a frame rather
// than stalling the render.
func (c *Cell) TryGet() (Snapshot, bool) {
	if !c.mu.TryLock() {
		return Snapshot{}, false
	}
	defer c.mu.Unlock()
	return c.snap, true
}
