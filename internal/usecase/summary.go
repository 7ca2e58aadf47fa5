package usecase

import (
	"fmt"
	"time"

	"go.ngs.io/pollen-api/internal/domain"
)

// DailySummary describes the highest reading of one local day
type DailySummary struct {
	Date string         `json:"date"`
	Peak domain.Reading `json:"peak"`
	Text string         `json:"text"`
}

// Summarize splits readings into 24-hour days and reports each day's peak. When
// several hours share the peak level the latest one is reported.
func Summarize(readings []domain.Reading, loc *time.Location) []DailySummary {
	if loc == nil {
		loc = time.UTC
	}

	var days []DailySummary
	for start := 0; start < len(readings); start += 24 {
		end := start + 24
		if end > len(readings) {
			end = len(readings)
		}

		peak := readings[start]
		for _, r := range readings[start+1 : end] {
			if r.Index.Level() >= peak.Index.Level() {
				peak = r
			}
		}

		days = append(days, DailySummary{
			Date: readings[start].Time.In(loc).Format("2006-01-02"),
			Peak: peak,
			Text: describePeak(peak, loc),
		})
	}
	return days
}

func describePeak(peak domain.Reading, loc *time.Location) string {
	if peak.Index == domain.IndexUnknown || peak.Index == domain.IndexVeryLow {
		return "Pollen will be very low all day."
	}
	return fmt.Sprintf("The high will be %s %s at %s.",
		peak.Index.Spoken(), peak.Source.Spoken(), peak.Time.In(loc).Format("3pm"))
}
