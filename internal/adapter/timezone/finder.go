// Package timezone resolves the IANA time zone of a WGS84 point.
package timezone

import (
	"fmt"
	"sync"
	"time"

	"github.com/ringsaturn/tzf"
)

// Finder maps coordinates to time zones using the tzf boundary data.
type Finder struct {
	finder tzf.F

	mu        sync.RWMutex
	locations map[string]*time.Location
}

// NewFinder loads the embedded time zone boundaries.
func NewFinder() (*Finder, error) {
	f, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("failed to load time zone boundaries: %w", err)
	}
	return &Finder{finder: f, locations: make(map[string]*time.Location)}, nil
}

// Name returns the IANA zone name at (lon, lat), or "" when none is known.
func (f *Finder) Name(lon, lat float64) string {
	return f.finder.GetTimezoneName(lon, lat)
}

// Locate returns the time zone at (lon, lat). Points without a known or
// loadable zone fall back to UTC.
func (f *Finder) Locate(lon, lat float64) *time.Location {
	name := f.Name(lon, lat)
	if name == "" {
		return time.UTC
	}

	f.mu.RLock()
	loc, ok := f.locations[name]
	f.mu.RUnlock()
	if ok {
		return loc
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		loc = time.UTC
	}
	f.mu.Lock()
	f.locations[name] = loc
	f.mu.Unlock()
	return loc
}
