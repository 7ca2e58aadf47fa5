package domain

import (
	"math"
	"time"
)

// Attribution credits the upstream data providers.
const Attribution = "Data from FMI SILAM (https://silam.fmi.fi/) and EAN (https://www.polleninfo.org/)."

// PollenIndex is the discretized pollen forecast index.
type PollenIndex int

const (
	// IndexUnknown covers missing data and any unrecognized raw value.
	IndexUnknown PollenIndex = iota
	IndexVeryLow
	IndexLow
	IndexModerate
	IndexHigh
	IndexVeryHigh
)

var indexNames = map[PollenIndex][2]string{
	IndexUnknown:  {"Unknown", "unknown"},
	IndexVeryLow:  {"VeryLow", "very low"},
	IndexLow:      {"Low", "low"},
	IndexModerate: {"Moderate", "moderate"},
	IndexHigh:     {"High", "high"},
	IndexVeryHigh: {"VeryHigh", "very high"},
}

// ClassifyIndex converts a raw POLI reading into a PollenIndex.
// The reading is truncated toward zero; values outside 1..5 map to IndexUnknown.
func ClassifyIndex(raw float32) PollenIndex {
	code, ok := truncate(raw)
	if !ok {
		return IndexUnknown
	}
	if code >= int(IndexVeryLow) && code <= int(IndexVeryHigh) {
		return PollenIndex(code)
	}
	return IndexUnknown
}

// Level returns the numeric index level (0 for unknown).
func (p PollenIndex) Level() int {
	if _, ok := indexNames[p]; !ok {
		return 0
	}
	return int(p)
}

// String returns the variant name.
func (p PollenIndex) String() string {
	if n, ok := indexNames[p]; ok {
		return n[0]
	}
	return indexNames[IndexUnknown][0]
}

// Spoken returns a lower-case phrase such as "very high".
func (p PollenIndex) Spoken() string {
	if n, ok := indexNames[p]; ok {
		return n[1]
	}
	return indexNames[IndexUnknown][1]
}

// MarshalText implements encoding.TextMarshaler.
func (p PollenIndex) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// PollenSource is the dominant pollen type behind an index reading.
type PollenSource int

const (
	SourceUnknown PollenSource = -1
	SourceAlder   PollenSource = 1
	SourceBirch   PollenSource = 2
	SourceGrass   PollenSource = 3
	SourceOlive   PollenSource = 4
	SourceMugwort PollenSource = 5
	SourceRagweed PollenSource = 6
)

var sourceNames = map[PollenSource][2]string{
	SourceUnknown: {"Unknown", "unknown"},
	SourceAlder:   {"Alder", "alder"},
	SourceBirch:   {"Birch", "birch"},
	SourceGrass:   {"Grass", "grass"},
	SourceOlive:   {"Olive", "olive"},
	SourceMugwort: {"Mugwort", "mugwort"},
	SourceRagweed: {"Ragweed", "ragweed"},
}

// ClassifySource converts a raw POLISRC reading into a PollenSource.
// The reading is truncated toward zero; values outside 1..6 map to SourceUnknown.
func ClassifySource(raw float32) PollenSource {
	code, ok := truncate(raw)
	if !ok {
		return SourceUnknown
	}
	if _, known := sourceNames[PollenSource(code)]; known {
		return PollenSource(code)
	}
	return SourceUnknown
}

// Code returns the provider's numeric code (-1 for unknown).
func (s PollenSource) Code() int {
	if _, ok := sourceNames[s]; !ok {
		return int(SourceUnknown)
	}
	return int(s)
}

// String returns the variant name.
func (s PollenSource) String() string {
	if n, ok := sourceNames[s]; ok {
		return n[0]
	}
	return sourceNames[SourceUnknown][0]
}

// Spoken returns the lower-case plant name.
func (s PollenSource) Spoken() string {
	if n, ok := sourceNames[s]; ok {
		return n[1]
	}
	return sourceNames[SourceUnknown][1]
}

// MarshalText implements encoding.TextMarshaler.
func (s PollenSource) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Reading is one hourly pollen forecast value at a location.
type Reading struct {
	Time   time.Time    `json:"time"`
	Index  PollenIndex  `json:"pollen_index"`
	Source PollenSource `json:"pollen_index_source"`
}

// NewReading classifies a pair of raw grid values.
func NewReading(t time.Time, rawIndex, rawSource float32) Reading {
	return Reading{
		Time:   t,
		Index:  ClassifyIndex(rawIndex),
		Source: ClassifySource(rawSource),
	}
}

// truncate converts raw to an int, rejecting values with no integer meaning.
// Go leaves float-to-int conversion of NaN and out-of-range values unspecified.
func truncate(raw float32) (int, bool) {
	v := float64(raw)
	if math.IsNaN(v) || math.IsInf(v, 0) || v >= math.MaxInt32 || v <= math.MinInt32 {
		return 0, false
	}
	return int(math.Trunc(v)), true
}
