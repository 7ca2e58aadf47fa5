package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"go.ngs.io/pollen-api/internal/adapter/grid"
	"go.ngs.io/pollen-api/internal/domain"
)

func TestForecastRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{"valid", 60.17, 24.94, false},
		{"integers", 60, 25, false},
		{"one decimal", -33.9, 151.2, false},
		{"bounds", 90, -180, false},
		{"three decimals", 60.171, 24.94, true},
		{"lon precision", 60.17, 24.945, true},
		{"lat too large", 90.01, 0, true},
		{"lon too small", 0, -180.01, true},
		{"NaN", math.NaN(), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := ForecastRequest{Lat: tt.lat, Lon: tt.lon}
			err := req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			var vErr *ValidationError
			if err != nil && !errors.As(err, &vErr) {
				t.Errorf("expected *ValidationError, got %T", err)
			}
		})
	}
}

func TestExecute_StartsAtLocalMidnight(t *testing.T) {
	cache, _, _ := newTestCache(t)
	uc := NewForecastUseCase(cache, nil, 0)

	tests := []struct {
		name      string
		loc       *time.Location
		wantFirst time.Time
		wantAge   time.Duration
	}{
		// t0 is 2025-05-02 15:30 UTC; the snapshot is fresh for 12h.
		{"UTC", nil, time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC), 8*time.Hour + 30*time.Minute},
		{"UTC+3", time.FixedZone("EEST", 3*3600), time.Date(2025, 5, 1, 21, 0, 0, 0, time.UTC), 5*time.Hour + 30*time.Minute},
		{"UTC-7", time.FixedZone("PDT", -7*3600), time.Date(2025, 5, 2, 7, 0, 0, 0, time.UTC), 12 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := uc.Execute(ForecastRequest{Lat: 55, Lon: 25, Location: tt.loc})
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if len(resp.Readings) != DefaultForecastHours {
				t.Fatalf("got %d readings, want %d", len(resp.Readings), DefaultForecastHours)
			}
			if !resp.Readings[0].Time.Equal(tt.wantFirst) {
				t.Errorf("first reading at %v, want %v", resp.Readings[0].Time, tt.wantFirst)
			}
			if resp.MaxAge != tt.wantAge {
				t.Errorf("MaxAge = %v, want %v", resp.MaxAge, tt.wantAge)
			}
			if resp.Attribution != domain.Attribution {
				t.Errorf("Attribution = %q", resp.Attribution)
			}
			if resp.SnapshotID != cache.Snapshot().ID() || !resp.FetchedAt.Equal(t0) {
				t.Errorf("response not tied to current snapshot: %s %v", resp.SnapshotID, resp.FetchedAt)
			}
		})
	}
}

type zoneTable map[[2]float64]*time.Location

func (z zoneTable) Locate(lon, lat float64) *time.Location { return z[[2]float64{lon, lat}] }

func TestExecute_ZoneFromCoordinates(t *testing.T) {
	cache, _, _ := newTestCache(t)
	helsinki, err := time.LoadLocation("Europe/Helsinki")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	uc := NewForecastUseCase(cache, zoneTable{{24.94, 60.17}: helsinki}, 0)

	resp, err := uc.Execute(ForecastRequest{Lat: 60.17, Lon: 24.94})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Timezone != "Europe/Helsinki" {
		t.Errorf("Timezone = %q, want Europe/Helsinki", resp.Timezone)
	}
	first := resp.Readings[0].Time.In(helsinki)
	if first.Hour() != 0 || first.Day() != 2 {
		t.Errorf("first reading at %v, want 2025-05-02 00:00 Helsinki", first)
	}
	// 18:30 local, so the day ends before the snapshot goes stale.
	if want := 5*time.Hour + 30*time.Minute; resp.MaxAge != want {
		t.Errorf("MaxAge = %v, want %v", resp.MaxAge, want)
	}

	// An explicit zone wins over the lookup.
	resp, err = uc.Execute(ForecastRequest{Lat: 60.17, Lon: 24.94, Location: time.UTC})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Timezone != "UTC" || !resp.Readings[0].Time.Equal(time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("override ignored: %s starting %v", resp.Timezone, resp.Readings[0].Time)
	}

	// Points the locator does not know fall back to UTC.
	resp, err = uc.Execute(ForecastRequest{Lat: 55, Lon: 25})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Timezone != "UTC" {
		t.Errorf("Timezone = %q, want UTC", resp.Timezone)
	}
}

func TestExecute_ClampsOffset(t *testing.T) {
	cache, _, clock := newTestCache(t)
	uc := NewForecastUseCase(cache, nil, 0)

	// Three days after the grid starts the window runs past the end; it is pinned to the last 72 hours.
	clock.Set(time.Date(2025, 5, 4, 10, 0, 0, 0, time.UTC))
	resp, err := uc.Execute(ForecastRequest{Lat: 55, Lon: 25})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if want := gridStart.Add(24 * time.Hour); !resp.Readings[0].Time.Equal(want) {
		t.Errorf("late query starts at %v, want %v", resp.Readings[0].Time, want)
	}
	if resp.MaxAge != 0 {
		t.Errorf("stale snapshot MaxAge = %v, want 0", resp.MaxAge)
	}

	// Local midnight before the grid starts.
	clock.Set(time.Date(2025, 5, 1, 5, 0, 0, 0, time.UTC))
	resp, err = uc.Execute(ForecastRequest{Lat: 55, Lon: 25, Location: time.FixedZone("UTC-12", -12*3600)})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !resp.Readings[0].Time.Equal(gridStart) {
		t.Errorf("early query starts at %v, want %v", resp.Readings[0].Time, gridStart)
	}
}

func TestExecute_ShortGrid(t *testing.T) {
	clock := &fakeClock{now: t0}
	fetcher := &fakeFetcher{t: t, clock: clock, start: gridStart, steps: 48}
	cache, err := NewSnapshotCache(context.Background(), fetcher, CacheConfig{Now: clock.Now})
	if err != nil {
		t.Fatalf("NewSnapshotCache: %v", err)
	}

	_, err = NewForecastUseCase(cache, nil, 72).Execute(ForecastRequest{Lat: 55, Lon: 25})
	if !errors.Is(err, grid.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestExecute_InvalidRequest(t *testing.T) {
	cache, _, _ := newTestCache(t)

	_, err := NewForecastUseCase(cache, nil, 0).Execute(ForecastRequest{Lat: 55.123, Lon: 25})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
}

// TestExecute_ConsistentDuringRefresh swaps snapshots while querying. Snapshot k is
// fetched at t0+k minutes and holds the value k everywhere, so every response must
// carry readings that match its own FetchedAt.
func TestExecute_ConsistentDuringRefresh(t *testing.T) {
	cache, fetcher, clock := newTestCache(t)
	uc := NewForecastUseCase(cache, nil, 0)

	var stopWriter sync.WaitGroup
	done := make(chan struct{})
	stopWriter.Add(1)
	go func() {
		defer stopWriter.Done()
		for k := 2; ; k++ {
			select {
			case <-done:
				return
			default:
			}
			clock.Set(t0.Add(time.Duration(k) * time.Minute))
			if err := cache.Refresh(context.Background()); err != nil {
				t.Errorf("Refresh: %v", err)
				return
			}
		}
	}()

	var readers sync.WaitGroup
	for r := 0; r < 8; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for i := 0; i < 200; i++ {
				resp, err := uc.Execute(ForecastRequest{Lat: 55, Lon: 25})
				if err != nil {
					t.Errorf("Execute: %v", err)
					return
				}
				k := int(resp.FetchedAt.Sub(t0) / time.Minute)
				if k == 0 {
					k = 1
				}
				want := domain.ClassifyIndex(float32(k))
				for _, reading := range resp.Readings {
					if reading.Index != want {
						t.Errorf("snapshot fetched at +%dm returned %v, want %v", k, reading.Index, want)
						return
					}
				}
			}
		}()
	}

	readers.Wait()
	close(done)
	stopWriter.Wait()

	if fetcher.callCount() < 2 {
		t.Log("no refresh completed while readers ran")
	}
}
