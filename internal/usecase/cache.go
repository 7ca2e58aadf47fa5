package usecase

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"go.ngs.io/pollen-api/internal/adapter/grid"
	"go.ngs.io/pollen-api/internal/domain"
	"go.ngs.io/pollen-api/internal/observability"
)

// Defaults for CacheConfig.
const (
	DefaultStaleAfter   = 12 * time.Hour
	DefaultFetchTimeout = 5 * time.Minute
)

// Fetcher produces a complete new snapshot.
type Fetcher interface {
	Fetch(ctx context.Context) (*grid.Snapshot, error)
}

// CacheConfig tunes a SnapshotCache. Zero values select the defaults.
type CacheConfig struct {
	StaleAfter   time.Duration
	FetchTimeout time.Duration
	Now          func() time.Time
}

// SnapshotCache holds the forecast grid currently being served.
// Readers borrow the current snapshot; a refresh builds the next one off to the
// side and swaps the pointer under the write lock.
type SnapshotCache struct {
	fetcher      Fetcher
	staleAfter   time.Duration
	fetchTimeout time.Duration
	now          func() time.Time

	mu      sync.RWMutex // Protects current.
	current *grid.Snapshot

	refreshes singleflight.Group
}

// NewSnapshotCache performs the initial fetch. There is no data to fall back to,
// so an error here should stop the process.
func NewSnapshotCache(ctx context.Context, fetcher Fetcher, cfg CacheConfig) (*SnapshotCache, error) {
	c := &SnapshotCache{
		fetcher:      fetcher,
		staleAfter:   cfg.StaleAfter,
		fetchTimeout: cfg.FetchTimeout,
		now:          cfg.Now,
	}
	if c.staleAfter <= 0 {
		c.staleAfter = DefaultStaleAfter
	}
	if c.fetchTimeout <= 0 {
		c.fetchTimeout = DefaultFetchTimeout
	}
	if c.now == nil {
		c.now = time.Now
	}

	snap, err := c.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("initial fetch failed: %w", err)
	}
	c.swap(snap)
	return c, nil
}

// Snapshot returns the snapshot to use for one whole query.
func (c *SnapshotCache) Snapshot() *grid.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// FetchedAt returns when the current snapshot was fetched.
func (c *SnapshotCache) FetchedAt() time.Time {
	return c.Snapshot().FetchedAt()
}

// StaleAt returns the instant at which snap becomes stale.
func (c *SnapshotCache) StaleAt(snap *grid.Snapshot) time.Time {
	return snap.FetchedAt().Add(c.staleAfter)
}

// TimeUntilStaleFor returns how long snap stays fresh, never negative.
func (c *SnapshotCache) TimeUntilStaleFor(snap *grid.Snapshot) time.Duration {
	d := c.StaleAt(snap).Sub(c.now())
	if d < 0 {
		return 0
	}
	return d
}

// TimeUntilStale is TimeUntilStaleFor applied to the current snapshot.
func (c *SnapshotCache) TimeUntilStale() time.Duration {
	return c.TimeUntilStaleFor(c.Snapshot())
}

// IsStaleFor reports whether snap has reached its staleness deadline.
func (c *SnapshotCache) IsStaleFor(snap *grid.Snapshot) bool {
	return !c.now().Before(c.StaleAt(snap))
}

// IsStale is IsStaleFor applied to the current snapshot.
func (c *SnapshotCache) IsStale() bool {
	return c.IsStaleFor(c.Snapshot())
}

// Series returns length hourly readings at (lon, lat) from the current snapshot.
func (c *SnapshotCache) Series(lon, lat float32, offset, length int) ([]domain.Reading, error) {
	return c.Snapshot().SeriesAt(lon, lat, offset, length)
}

// Tick refreshes the snapshot if it is stale. It is what the scheduler runs.
func (c *SnapshotCache) Tick(ctx context.Context) error {
	if !c.IsStale() {
		return nil
	}
	return c.Refresh(ctx)
}

// Refresh fetches a new snapshot and swaps it in. Concurrent calls share one fetch,
// which runs under the first caller's ctx; a later caller whose ctx ends first
// stops waiting without cancelling it. On failure the current snapshot is kept.
func (c *SnapshotCache) Refresh(ctx context.Context) error {
	ch := c.refreshes.DoChan("refresh", func() (interface{}, error) {
		snap, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.swap(snap)
		return nil, nil
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *SnapshotCache) fetch(ctx context.Context) (*grid.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	started := time.Now()
	snap, err := c.fetcher.Fetch(ctx)
	if err != nil {
		observability.ObserveRefresh(observability.RefreshFailure, time.Since(started))
		return nil, err
	}
	observability.ObserveRefresh(observability.RefreshSuccess, time.Since(started))
	return snap, nil
}

func (c *SnapshotCache) swap(snap *grid.Snapshot) {
	c.mu.Lock()
	c.current = snap
	c.mu.Unlock()

	observability.SetSnapshot(snap.FetchedAt(), snap.TimeSteps())
	log.Printf("Serving snapshot %s: %d time steps from %s, fetched at %s",
		snap.ID(), snap.TimeSteps(), snap.StartTime().Format(time.RFC3339), snap.FetchedAt().Format(time.RFC3339))
}
