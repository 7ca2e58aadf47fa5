package grid

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"go.ngs.io/pollen-api/internal/adapter/projection"
	"go.ngs.io/pollen-api/internal/domain"
)

// Cube is a dense (time, lat, lon) array stored in row-major order.
type Cube struct {
	Times  int
	Lats   int
	Lons   int
	Values []float32
}

// At returns the value at (t, lat, lon). Indices must be in range.
func (c *Cube) At(t, lat, lon int) float32 {
	return c.Values[(t*c.Lats+lat)*c.Lons+lon]
}

// Validate checks that the value buffer matches the declared shape.
func (c *Cube) Validate() error {
	if c.Times < 1 || c.Lats < 1 || c.Lons < 1 {
		return fmt.Errorf("cube shape [%d, %d, %d] has an empty dimension", c.Times, c.Lats, c.Lons)
	}
	if want := c.Times * c.Lats * c.Lons; len(c.Values) != want {
		return fmt.Errorf("cube has %d values, expected %d for shape [%d, %d, %d]",
			len(c.Values), want, c.Times, c.Lats, c.Lons)
	}
	return nil
}

func (c *Cube) sameShape(o *Cube) bool {
	return c.Times == o.Times && c.Lats == o.Lats && c.Lons == o.Lons
}

// Params carries everything needed to build a Snapshot.
type Params struct {
	FetchedAt time.Time
	StartTime time.Time // Time of index 0 on the time axis.
	LatAxis   []float32 // Rotated latitudes, strictly ascending.
	LonAxis   []float32 // Rotated longitudes, strictly ascending.
	Index     *Cube     // Raw pollen index (POLI).
	Source    *Cube     // Raw pollen source type (POLISRC).

	// Projector maps query coordinates onto the axes. Defaults to the SILAM Europe rotated pole.
	Projector projection.Projector
}

// Snapshot is one immutable copy of the forecast grid.
// It is safe for concurrent use; nothing mutates it after New returns.
type Snapshot struct {
	id        string
	fetchedAt time.Time
	startTime time.Time
	latAxis   []float32
	lonAxis   []float32
	index     *Cube
	source    *Cube
	projector projection.Projector
}

// New validates p and builds a Snapshot. The axes and cubes are owned by the
// snapshot afterwards and must not be modified by the caller.
func New(p Params) (*Snapshot, error) {
	if p.Index == nil || p.Source == nil {
		return nil, fmt.Errorf("index and source cubes are required")
	}
	if err := p.Index.Validate(); err != nil {
		return nil, fmt.Errorf("invalid index cube: %w", err)
	}
	if err := p.Source.Validate(); err != nil {
		return nil, fmt.Errorf("invalid source cube: %w", err)
	}
	if !p.Index.sameShape(p.Source) {
		return nil, fmt.Errorf("index cube [%d, %d, %d] and source cube [%d, %d, %d] differ in shape",
			p.Index.Times, p.Index.Lats, p.Index.Lons, p.Source.Times, p.Source.Lats, p.Source.Lons)
	}
	if err := validateAxis("lat", p.LatAxis); err != nil {
		return nil, err
	}
	if err := validateAxis("lon", p.LonAxis); err != nil {
		return nil, err
	}
	if len(p.LatAxis) != p.Index.Lats || len(p.LonAxis) != p.Index.Lons {
		return nil, fmt.Errorf("axes [%d lat, %d lon] do not match cube [%d, %d]",
			len(p.LatAxis), len(p.LonAxis), p.Index.Lats, p.Index.Lons)
	}

	proj := p.Projector
	if proj == nil {
		proj = projection.SILAMEurope()
	}

	return &Snapshot{
		id:        uuid.NewString(),
		fetchedAt: p.FetchedAt,
		startTime: p.StartTime,
		latAxis:   p.LatAxis,
		lonAxis:   p.LonAxis,
		index:     p.Index,
		source:    p.Source,
		projector: proj,
	}, nil
}

// ID identifies this snapshot.
func (s *Snapshot) ID() string { return s.id }

// FetchedAt is when the data was obtained.
func (s *Snapshot) FetchedAt() time.Time { return s.fetchedAt }

// StartTime is the time of index 0.
func (s *Snapshot) StartTime() time.Time { return s.startTime }

// TimeSteps is the length of the hourly time axis.
func (s *Snapshot) TimeSteps() int { return s.index.Times }

// EndTime is the time of the last index.
func (s *Snapshot) EndTime() time.Time {
	return s.startTime.Add(time.Duration(s.index.Times-1) * time.Hour)
}

// LatAxis returns a copy of the rotated latitude axis.
func (s *Snapshot) LatAxis() []float32 { return append([]float32(nil), s.latAxis...) }

// LonAxis returns a copy of the rotated longitude axis.
func (s *Snapshot) LonAxis() []float32 { return append([]float32(nil), s.lonAxis...) }

// Locate resolves a WGS84 point to its nearest grid cell.
// The data is indexed (time, lat, lon), so the latitude index comes first.
func (s *Snapshot) Locate(lon, lat float32) (latIdx, lonIdx int) {
	rlon, rlat := s.projector.Project(lon, lat)
	return NearestIndex(s.latAxis, rlat), NearestIndex(s.lonAxis, rlon)
}

// SeriesAt returns length hourly readings for the cell nearest (lon, lat), starting at
// time index offset. The window is not clamped: a *RangeError is returned when it
// does not fit inside the time axis.
func (s *Snapshot) SeriesAt(lon, lat float32, offset, length int) ([]domain.Reading, error) {
	if offset < 0 || length < 0 || offset > s.index.Times-length {
		return nil, &RangeError{Offset: offset, Length: length, TimeSteps: s.index.Times}
	}

	latIdx, lonIdx := s.Locate(lon, lat)

	readings := make([]domain.Reading, 0, length)
	for t := offset; t < offset+length; t++ {
		readings = append(readings, domain.NewReading(
			s.startTime.Add(time.Duration(t)*time.Hour),
			s.index.At(t, latIdx, lonIdx),
			s.source.At(t, latIdx, lonIdx),
		))
	}
	return readings, nil
}
