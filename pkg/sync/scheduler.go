package sync

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
)

// DefaultInterval is the time between the end of one pass and the start of
// the next.
const DefaultInterval = 10 * time.Second

// Scheduler runs passes one after the other until it's cancelled.
type Scheduler struct {
	// Pass runs a single synchronization pass.
	Pass func() error

	Interval time.Duration
	Clock    clockwork.Clock

	// Trigger, if set, starts the next pass early. Values received while a
	// pass is running are handled once it completes.
	Trigger <-chan struct{}
}

// Run runs a pass immediately, then again every Interval after the previous
// pass completes. Failed passes are logged and the loop continues.
// Cancelling ctx stops the loop between passes. A running pass is always
// allowed to finish.
func (s Scheduler) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := s.Pass(); err != nil {
			log.WithError(err).Warn("Synchronization pass failed. Will retry on the next tick.")
		}

		timer := s.Clock.NewTimer(s.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-s.Trigger:
			log.Debug("Source changed. Starting pass early.")
			timer.Stop()
		case <-timer.Chan():
		}
	}
}
