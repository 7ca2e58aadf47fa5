package usecase

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"go.ngs.io/pollen-api/internal/domain"
)

// DefaultForecastHours is the length of the returned series: today and the next two days.
const DefaultForecastHours = 72

// CoordinateDecimals is the maximum precision accepted for query coordinates.
const CoordinateDecimals = 2

// ValidationError reports a malformed forecast request.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ForecastRequest encapsulates a pollen forecast request
type ForecastRequest struct {
	Lat float64
	Lon float64

	// Location decides where "today" starts. When nil it is looked up from
	// the coordinates.
	Location *time.Location
}

// Validate checks if the request is valid
func (r *ForecastRequest) Validate() error {
	if math.IsNaN(r.Lat) || r.Lat < -90 || r.Lat > 90 {
		return &ValidationError{Msg: fmt.Sprintf("latitude must be between -90 and 90, got %v", r.Lat)}
	}
	if math.IsNaN(r.Lon) || r.Lon < -180 || r.Lon > 180 {
		return &ValidationError{Msg: fmt.Sprintf("longitude must be between -180 and 180, got %v", r.Lon)}
	}
	if !hasMaxDecimals(r.Lat, CoordinateDecimals) || !hasMaxDecimals(r.Lon, CoordinateDecimals) {
		return &ValidationError{Msg: fmt.Sprintf("coordinates accept maximum %d decimal places", CoordinateDecimals)}
	}
	return nil
}

// hasMaxDecimals reports whether v survives rounding to the given number of
// decimals at single precision, the precision the grid is queried with.
func hasMaxDecimals(v float64, decimals int) bool {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', decimals, 32), 32)
	if err != nil {
		return false
	}
	return float32(rounded) == float32(v)
}

// ForecastResponse contains one point forecast
type ForecastResponse struct {
	Attribution string
	Location    string
	Timezone    string
	SnapshotID  string
	FetchedAt   time.Time
	Readings    []domain.Reading
	Days        []DailySummary

	// MaxAge is how long the response may be cached: until the snapshot goes
	// stale or the local day ends, whichever comes first.
	MaxAge time.Duration
}

// ZoneLocator resolves the time zone of a point.
type ZoneLocator interface {
	Locate(lon, lat float64) *time.Location
}

// ForecastUseCase answers point queries against the snapshot cache
type ForecastUseCase struct {
	cache *SnapshotCache
	zones ZoneLocator
	hours int
	now   func() time.Time
}

// NewForecastUseCase creates a new forecast use case. A nil zones treats
// every point as UTC.
func NewForecastUseCase(cache *SnapshotCache, zones ZoneLocator, hours int) *ForecastUseCase {
	if hours <= 0 {
		hours = DefaultForecastHours
	}
	return &ForecastUseCase{cache: cache, zones: zones, hours: hours, now: cache.now}
}

// Execute returns the forecast starting at local midnight for the requested point.
// Everything in the response comes from a single snapshot.
func (uc *ForecastUseCase) Execute(req ForecastRequest) (*ForecastResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	loc := req.Location
	if loc == nil && uc.zones != nil {
		loc = uc.zones.Locate(req.Lon, req.Lat)
	}
	if loc == nil {
		loc = time.UTC
	}

	snap := uc.cache.Snapshot()
	now := uc.now().In(loc)
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)
	nextMidnight := time.Date(y, m, d+1, 0, 0, 0, 0, loc)

	offset := int(midnight.Sub(snap.StartTime()) / time.Hour)
	if maxOffset := snap.TimeSteps() - uc.hours; offset > maxOffset {
		offset = maxOffset
	}
	if offset < 0 {
		offset = 0
	}

	readings, err := snap.SeriesAt(float32(req.Lon), float32(req.Lat), offset, uc.hours)
	if err != nil {
		return nil, fmt.Errorf("failed to extract forecast: %w", err)
	}

	maxAge := uc.cache.TimeUntilStaleFor(snap)
	if untilMidnight := nextMidnight.Sub(now); untilMidnight < maxAge {
		maxAge = untilMidnight
	}
	if maxAge < 0 {
		maxAge = 0
	}

	return &ForecastResponse{
		Attribution: domain.Attribution,
		Location:    fmt.Sprintf("%.*f, %.*f", CoordinateDecimals, req.Lat, CoordinateDecimals, req.Lon),
		Timezone:    loc.String(),
		SnapshotID:  snap.ID(),
		FetchedAt:   snap.FetchedAt(),
		Readings:    readings,
		Days:        Summarize(readings, loc),
		MaxAge:      maxAge,
	}, nil
}
