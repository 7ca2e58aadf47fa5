package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingTicker struct {
	ticks atomic.Int32
	err   error
}

func (c *countingTicker) Tick(ctx context.Context) error {
	c.ticks.Add(1)
	return c.err
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestRefresher_TicksRepeatedly(t *testing.T) {
	target := &countingTicker{}
	r := New(target, 20*time.Millisecond)
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop()

	waitFor(t, func() bool { return target.ticks.Load() >= 3 })
}

func TestRefresher_KeepsTickingAfterFailure(t *testing.T) {
	target := &countingTicker{err: errors.New("fetch failed")}
	r := New(target, 20*time.Millisecond)
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop()

	waitFor(t, func() bool { return target.ticks.Load() >= 3 })
}

type blockingTicker struct {
	running  atomic.Int32
	overlaps atomic.Int32
	runs     atomic.Int32
}

func (b *blockingTicker) Tick(ctx context.Context) error {
	if b.running.Add(1) > 1 {
		b.overlaps.Add(1)
	}
	defer b.running.Add(-1)
	b.runs.Add(1)
	select {
	case <-time.After(60 * time.Millisecond):
	case <-ctx.Done():
	}
	return nil
}

func TestRefresher_NoOverlap(t *testing.T) {
	target := &blockingTicker{}
	r := New(target, 10*time.Millisecond)
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitFor(t, func() bool { return target.runs.Load() >= 2 })
	r.Stop()

	if n := target.overlaps.Load(); n != 0 {
		t.Errorf("%d overlapping runs", n)
	}
}

func TestRefresher_StopCancelsInFlight(t *testing.T) {
	started := make(chan struct{}, 1)
	canceled := make(chan struct{}, 1)
	target := tickerFunc(func(ctx context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		select {
		case canceled <- struct{}{}:
		default:
		}
		return ctx.Err()
	})

	r := New(target, time.Hour)
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-started
	r.Stop()

	select {
	case <-canceled:
	case <-time.After(3 * time.Second):
		t.Fatal("in-flight tick was not canceled")
	}
}

type tickerFunc func(ctx context.Context) error

func (f tickerFunc) Tick(ctx context.Context) error { return f(ctx) }

func TestNew_DefaultInterval(t *testing.T) {
	r := New(&countingTicker{}, 0)
	if r.interval != DefaultInterval {
		t.Errorf("interval = %v, want %v", r.interval, DefaultInterval)
	}
}
