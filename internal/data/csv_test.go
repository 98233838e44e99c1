package data

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hourlyCSV(start time.Time, prices ...float64) string {
	var b strings.Builder
	b.WriteString("timestamp,price\n")
	for i, p := range prices {
		fmt.Fprintf(&b, "%s,%g\n", start.Add(time.Duration(i)*time.Hour).Format(time.RFC3339), p)
	}
	return b.String()
}

func TestParsePricesSortsAndInfersInterval(t *testing.T) {
	raw := "timestamp,price\n" +
		"2024-01-01T02:00:00Z,0.30\n" +
		"2024-01-01T00:00:00Z,0.10\n" +
		"2024-01-01T01:00:00Z,0.20\n"

	series, err := ParsePrices(raw, DefaultCSVLayout())
	require.NoError(t, err)

	require.Equal(t, 3, series.Len())
	assert.Equal(t, time.Hour, series.Interval)
	assert.Equal(t, 2024, series.Year())
	for i := 1; i < series.Len(); i++ {
		assert.True(t, series.Samples[i-1].Timestamp.Before(series.Samples[i].Timestamp))
	}
	assert.InDelta(t, 0.10, series.Samples[0].Price, 1e-12)
	assert.InDelta(t, 0.30, series.Samples[2].Price, 1e-12)
}

func TestParsePricesQuarterHour(t *testing.T) {
	raw := "2025-03-01 00:00;12,5\n2025-03-01 00:15;13,0\n2025-03-01 00:30;-1,25\n"

	series, err := ParsePrices(raw, CSVLayout{TimestampColumn: 0, PriceColumn: 1, PriceScale: 0.01})
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, series.Interval)
	assert.Equal(t, 96, series.SamplesPerDay())
	require.Equal(t, 3, series.Len())
	assert.InDelta(t, 0.125, series.Samples[0].Price, 1e-12)
	assert.InDelta(t, -0.0125, series.Samples[2].Price, 1e-12)
}

func TestParsePricesHeaderByName(t *testing.T) {
	raw := "\ufeffPrice (EUR/MWh),Region,Start\n" +
		"85.2,DE-LU,2024-06-01T00:00:00+02:00\n" +
		"90.1,DE-LU,2024-06-01T01:00:00+02:00\n"

	series, err := ParsePrices(raw, CSVLayout{
		TimestampHeader: "start",
		PriceHeader:     "Price (EUR/MWh)",
		PriceScale:      0.001,
	})
	require.NoError(t, err)
	require.Equal(t, 2, series.Len())
	assert.InDelta(t, 0.0852, series.Samples[0].Price, 1e-12)
	assert.True(t, series.Samples[0].Timestamp.Equal(time.Date(2024, 5, 31, 22, 0, 0, 0, time.UTC)))
}

func TestParsePricesLocation(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	// Local midnight on Jan 1 is still 2023 in UTC; the year check follows the layout location.
	raw := "2024-01-01 00:00,0.1\n2024-01-01 01:00,0.2\n"
	series, err := ParsePrices(raw, CSVLayout{PriceColumn: 1, Location: berlin})
	require.NoError(t, err)
	assert.Equal(t, 2024, series.Year())
	assert.Equal(t, 2023, series.Samples[0].Timestamp.UTC().Year())
}

func TestParsePricesTakesZoneFromOffsets(t *testing.T) {
	cet := time.FixedZone("", 3600)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, cet)
	prices := make([]float64, 366*24)
	for i := range prices {
		prices[i] = 0.1 + 0.01*float64(i%24)
	}

	series, err := ParsePrices(hourlyCSV(start, prices...), DefaultCSVLayout())
	require.NoError(t, err)

	require.Equal(t, 366*24, series.Len())
	assert.Equal(t, 2024, series.Year())
	_, offset := series.Samples[0].Timestamp.In(series.Loc()).Zone()
	assert.Equal(t, 3600, offset)
	assert.Equal(t, 0, series.Samples[0].Timestamp.In(series.Loc()).Hour())
	last := series.Samples[series.Len()-1].Timestamp
	assert.True(t, last.Equal(time.Date(2024, 12, 31, 23, 0, 0, 0, cet)))

	midnights := 0
	for _, smp := range series.Samples {
		if smp.Timestamp.In(series.Loc()).Hour() == 0 {
			midnights++
		}
	}
	assert.Equal(t, 366, midnights)
}

func TestParsePricesAutumnDSTDay(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	layout := CSVLayout{PriceColumn: 1, Location: berlin, IntervalMinutes: 60}

	// Without offsets the repeated 02:00 hour collapses onto one instant,
	// leaving a duplicate or a two-hour gap depending on the zone lookup.
	local := "2024-10-27 00:00,0.1\n" +
		"2024-10-27 01:00,0.1\n" +
		"2024-10-27 02:00,0.2\n" +
		"2024-10-27 02:00,0.3\n" +
		"2024-10-27 03:00,0.4\n"
	_, err = ParsePrices(local, layout)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIrregularInterval) || errors.Is(err, ErrDuplicate), err.Error())

	stamped := "2024-10-27T01:00:00+02:00,0.1\n" +
		"2024-10-27T02:00:00+02:00,0.2\n" +
		"2024-10-27T02:00:00+01:00,0.3\n" +
		"2024-10-27T03:00:00+01:00,0.4\n"
	series, err := ParsePrices(stamped, layout)
	require.NoError(t, err)
	require.Equal(t, 4, series.Len())
	assert.Equal(t, time.Hour, series.Interval)
	assert.Equal(t, berlin, series.Loc())
}

func TestParsePricesErrors(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		layout   CSVLayout
		wantLine int
		wantErr  error
		contains string
	}{
		{
			name:    "empty text",
			raw:     "",
			wantErr: ErrEmptySeries,
		},
		{
			name:    "header only",
			raw:     "timestamp,price\n",
			wantErr: ErrEmptySeries,
		},
		{
			name:     "too few fields",
			raw:      "2024-01-01T00:00:00Z,0.1\n2024-01-01T01:00:00Z\n",
			wantLine: 2,
			contains: "expected at least 2 fields",
		},
		{
			name:     "bad timestamp",
			raw:      "2024-01-01T00:00:00Z,0.1\nyesterday,0.2\n",
			wantLine: 2,
			contains: "timestamp",
		},
		{
			name:     "bad price",
			raw:      "2024-01-01T00:00:00Z,0.1\n2024-01-01T01:00:00Z,abc\n",
			wantLine: 2,
			contains: "price",
		},
		{
			name:     "non-finite price",
			raw:      "2024-01-01T00:00:00Z,0.1\n2024-01-01T01:00:00Z,NaN\n",
			wantLine: 2,
			contains: "finite",
		},
		{
			name:    "duplicate timestamp",
			raw:     "2024-01-01T00:00:00Z,0.1\n2024-01-01T01:00:00Z,0.2\n2024-01-01T01:00:00Z,0.3\n",
			wantErr: ErrDuplicate,
		},
		{
			name:    "gap",
			raw:     "2024-01-01T00:00:00Z,0.1\n2024-01-01T01:00:00Z,0.2\n2024-01-01T03:00:00Z,0.3\n",
			wantErr: ErrIrregularInterval,
		},
		{
			name:    "two years",
			raw:     "2024-12-31T23:00:00Z,0.1\n2025-01-01T00:00:00Z,0.2\n",
			wantErr: ErrMixedYears,
		},
		{
			name:     "interval mismatch with expectation",
			raw:      "2024-01-01T00:00:00Z,0.1\n2024-01-01T01:00:00Z,0.2\n",
			layout:   CSVLayout{PriceColumn: 1, IntervalMinutes: 15},
			wantErr:  ErrIrregularInterval,
			wantLine: 2,
		},
		{
			name:     "unsupported interval",
			raw:      "2024-01-01T00:00:00Z,0.1\n2024-01-01T00:30:00Z,0.2\n",
			contains: "cannot infer interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout := tt.layout
			if layout == (CSVLayout{}) {
				layout = DefaultCSVLayout()
			}
			_, err := ParsePrices(tt.raw, layout)
			require.Error(t, err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe), "want *ParseError, got %T", err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantLine != 0 {
				assert.Equal(t, tt.wantLine, pe.Line)
			}
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestParsePricesIsPure(t *testing.T) {
	raw := hourlyCSV(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), 0.1, 0.2, 0.3)
	a, err := ParsePrices(raw, DefaultCSVLayout())
	require.NoError(t, err)
	b, err := ParsePrices(raw, DefaultCSVLayout())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, ';', detectDelimiter("\n\na;b,c\n"))
	assert.Equal(t, '\t', detectDelimiter("a\tb\n"))
	assert.Equal(t, ',', detectDelimiter("a,b\n"))
	assert.Equal(t, ',', detectDelimiter(""))
}

func TestWritePricesRoundTrip(t *testing.T) {
	raw := hourlyCSV(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), 0.1234, -0.01, 0.5)
	series, err := ParsePrices(raw, DefaultCSVLayout())
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, WritePrices(&b, series.Samples, time.UTC))

	again, err := ParsePrices(b.String(), DefaultCSVLayout())
	require.NoError(t, err)
	require.Equal(t, series.Len(), again.Len())
	for i := range series.Samples {
		assert.True(t, series.Samples[i].Timestamp.Equal(again.Samples[i].Timestamp))
		assert.Equal(t, series.Samples[i].Price, again.Samples[i].Price)
	}
}
