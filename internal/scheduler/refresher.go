// Package scheduler runs the periodic snapshot refresh.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// DefaultInterval is how often staleness is checked.
const DefaultInterval = 10 * time.Second

// Ticker is refreshed on every run. usecase.SnapshotCache implements it.
type Ticker interface {
	Tick(ctx context.Context) error
}

// Refresher calls Tick on a fixed interval. Failed ticks are logged and retried
// on the next run without backoff. Runs never overlap.
type Refresher struct {
	scheduler *gocron.Scheduler
	target    Ticker
	interval  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new Refresher.
func New(target Ticker, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Refresher{
		scheduler: gocron.NewScheduler(time.UTC),
		target:    target,
		interval:  interval,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start schedules the refresh job and starts the underlying scheduler.
func (r *Refresher) Start() error {
	_, err := r.scheduler.Every(r.interval).SingletonMode().Do(r.run)
	if err != nil {
		return err
	}
	r.scheduler.StartAsync()
	log.Printf("scheduler: checking snapshot staleness every %s", r.interval)
	return nil
}

// Stop cancels an in-flight refresh and stops future runs.
func (r *Refresher) Stop() {
	r.cancel()
	r.scheduler.Stop()
}

func (r *Refresher) run() {
	if err := r.target.Tick(r.ctx); err != nil {
		log.Printf("scheduler: refresh failed, retrying in %s: %v", r.interval, err)
	}
}
