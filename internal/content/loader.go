package content

import (
	"context"
	"sync"
	"time"

	"companion/internal/schedule"

	"github.com/sirupsen/logrus"
)

// Loader refreshes the content snapshot on a fixed interval and swaps the
// agenda into the schedule index. Until the first refresh completes the
// index is empty and every derived view degrades to its empty behavior.
type Loader struct {
	client   *Client
	index    *schedule.Index
	interval time.Duration
	logger   *logrus.Logger

	mu   sync.RWMutex
	snap Snapshot
}

func NewLoader(client *Client, index *schedule.Index, interval time.Duration, logger *logrus.Logger) *Loader {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Loader{
		client:   client,
		index:    index,
		interval: interval,
		logger:   logger,
	}
}

// Refresh fetches a new snapshot and installs it. Called once before the
// scheduler is armed, then periodically by Run.
func (l *Loader) Refresh(ctx context.Context) {
	snap := l.client.FetchSnapshot(ctx)

	l.mu.Lock()
	l.snap = snap
	l.mu.Unlock()

	l.index.Swap(snap.Agenda)

	l.logger.WithFields(logrus.Fields{
		"days":          len(snap.Agenda),
		"speakers":      len(snap.Speakers),
		"locations":     len(snap.Locations),
		"announcements": len(snap.Announcements),
	}).Info("Content snapshot refreshed")
}

// Run refreshes until the context is cancelled.
func (l *Loader) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Content loader stopped")
			return
		case <-ticker.C:
			l.Refresh(ctx)
		}
	}
}

// Snapshot returns the current content snapshot.
func (l *Loader) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap
}
