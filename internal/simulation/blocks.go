package simulation

import (
	"time"

	"tariff-backtest/internal/model"
)

// Span is a half-open range [Start, End) of sample indices.
type Span struct {
	Start int
	End   int
}

func (s Span) Len() int { return s.End - s.Start }

// DayBlocks partitions a sorted series into calendar days (in the series location).
// A full day holds 24 or 96 samples; the first and last day of a partial year,
// and DST transition days, may hold fewer or more.
func DayBlocks(series *model.PriceSeries) []Span {
	if series.Len() == 0 {
		return nil
	}
	loc := series.Loc()

	days := make([]Span, 0, series.Len()/max(series.SamplesPerDay(), 1)+2)
	var currentDay time.Time
	start := 0
	for i, s := range series.Samples {
		t := s.Timestamp.In(loc)
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)

		// A new day closes the previous one.
		if i > 0 && !day.Equal(currentDay) {
			days = append(days, Span{Start: start, End: i})
			start = i
		}
		if i == start {
			currentDay = day
		}
	}
	days = append(days, Span{Start: start, End: series.Len()})
	return days
}

// SuperBlocks groups consecutive days into blocks of blockLengthDays days.
// The final block is kept even when it is shorter.
func SuperBlocks(days []Span, blockLengthDays int) []Span {
	if blockLengthDays < 1 || len(days) == 0 {
		return nil
	}
	out := make([]Span, 0, (len(days)+blockLengthDays-1)/blockLengthDays)
	for i := 0; i < len(days); i += blockLengthDays {
		last := min(i+blockLengthDays, len(days)) - 1
		out = append(out, Span{Start: days[i].Start, End: days[last].End})
	}
	return out
}
