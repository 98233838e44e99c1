package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"tariff-backtest/internal/model"
)

// CSVLayout describes where the timestamp and price live in a delimited price export.
// The column contract belongs to the data source, so everything here is configurable.
type CSVLayout struct {
	// Delimiter separates fields. Zero means auto-detect (';', '\t' or ',').
	Delimiter rune

	// Zero-based column indices, used unless the matching header name is set.
	TimestampColumn int
	PriceColumn     int

	// Optional header names (case-insensitive). When set, the first row must be a header.
	TimestampHeader string
	PriceHeader     string

	// TimestampLayout is a Go time layout. Empty tries DefaultTimestampLayouts in order.
	TimestampLayout string

	// PriceScale converts the source unit to currency per kWh
	// (e.g. 0.001 for EUR/MWh, 0.01 for ct/kWh). Zero means 1.
	PriceScale float64

	// Location is used for timestamps without an offset and for calendar-year checks.
	// When nil, offset-less timestamps are read as UTC and the zone of the first
	// sample (its own offset, if it carries one) becomes the series location.
	//
	// Offset-less timestamps cannot express the repeated hour of the autumn DST
	// change: both 02:00 rows map onto one instant and the day is rejected.
	// Feeds covering DST days in a local zone need offset-stamped timestamps
	// (e.g. "2024-10-27T02:00:00+01:00").
	Location *time.Location

	// IntervalMinutes is the expected spacing (15 or 60). Zero infers it from the data.
	IntervalMinutes int
}

// DefaultTimestampLayouts are tried in order when CSVLayout.TimestampLayout is empty.
var DefaultTimestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"02.01.2006 15:04",
}

// DefaultCSVLayout reads "timestamp,price" with prices already in currency per kWh.
func DefaultCSVLayout() CSVLayout {
	return CSVLayout{TimestampColumn: 0, PriceColumn: 1}
}

// ParseError reports malformed or unusable price text.
// Line is 1-based; 0 means the error is about the series as a whole.
type ParseError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	if e.Field != "" {
		b.WriteString(e.Field)
		b.WriteString(": ")
	}
	if e.Value != "" {
		fmt.Fprintf(&b, "%q: ", e.Value)
	}
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	ErrEmptySeries       = errors.New("no price samples")
	ErrDuplicate         = errors.New("duplicate timestamp")
	ErrIrregularInterval = errors.New("irregular sample spacing")
	ErrMixedYears        = errors.New("samples span more than one calendar year")
)

type parsedRow struct {
	line   int
	sample model.PriceSample
}

// ParsePrices turns raw delimited text for one calendar year into a sorted PriceSeries.
func ParsePrices(raw string, layout CSVLayout) (*model.PriceSeries, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &ParseError{Err: ErrEmptySeries}
	}

	loc := layout.Location
	if loc == nil {
		loc = time.UTC
	}
	scale := layout.PriceScale
	if scale == 0 {
		scale = 1
	}
	delim := layout.Delimiter
	if delim == 0 {
		delim = detectDelimiter(raw)
	}

	r := csv.NewReader(strings.NewReader(raw))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true

	tsCol, priceCol := layout.TimestampColumn, layout.PriceColumn
	byName := layout.TimestampHeader != "" || layout.PriceHeader != ""

	var rows []parsedRow
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var cerr *csv.ParseError
			if errors.As(err, &cerr) {
				return nil, &ParseError{Line: cerr.Line, Err: cerr.Err}
			}
			return nil, &ParseError{Err: err}
		}
		line, _ := r.FieldPos(0)
		if isBlank(rec) {
			continue
		}

		if first {
			first = false
			if byName {
				tsCol, priceCol, err = resolveHeader(rec, layout, tsCol, priceCol)
				if err != nil {
					return nil, &ParseError{Line: line, Field: "header", Err: err}
				}
				continue
			}
			if priceCol < len(rec) {
				if _, perr := parsePrice(rec[priceCol], delim); perr != nil {
					// Non-numeric price in the first row: header.
					continue
				}
			}
		}

		need := max(tsCol, priceCol) + 1
		if len(rec) < need {
			return nil, &ParseError{
				Line: line,
				Err:  fmt.Errorf("expected at least %d fields, got %d", need, len(rec)),
			}
		}

		ts, err := parseTimestamp(rec[tsCol], layout.TimestampLayout, loc)
		if err != nil {
			return nil, &ParseError{Line: line, Field: "timestamp", Value: rec[tsCol], Err: err}
		}
		price, err := parsePrice(rec[priceCol], delim)
		if err != nil {
			return nil, &ParseError{Line: line, Field: "price", Value: rec[priceCol], Err: err}
		}
		rows = append(rows, parsedRow{line: line, sample: model.PriceSample{Timestamp: ts, Price: price * scale}})
	}

	if len(rows) == 0 {
		return nil, &ParseError{Err: ErrEmptySeries}
	}

	// External feeds are not guaranteed to be sorted.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].sample.Timestamp.Before(rows[j].sample.Timestamp)
	})
	if layout.Location == nil {
		loc = rows[0].sample.Timestamp.Location()
	}

	interval, err := resolveInterval(rows, layout.IntervalMinutes)
	if err != nil {
		return nil, err
	}

	year := rows[0].sample.Timestamp.In(loc).Year()
	samples := make([]model.PriceSample, len(rows))
	for i, row := range rows {
		if row.sample.Timestamp.In(loc).Year() != year {
			return nil, &ParseError{Line: row.line, Field: "timestamp", Value: row.sample.Timestamp.Format(time.RFC3339), Err: ErrMixedYears}
		}
		if i > 0 {
			gap := row.sample.Timestamp.Sub(rows[i-1].sample.Timestamp)
			switch {
			case gap == 0:
				return nil, &ParseError{Line: row.line, Field: "timestamp", Value: row.sample.Timestamp.Format(time.RFC3339), Err: ErrDuplicate}
			case gap != interval:
				return nil, &ParseError{
					Line:  row.line,
					Field: "timestamp",
					Value: row.sample.Timestamp.Format(time.RFC3339),
					Err:   fmt.Errorf("%w: %s after previous sample, expected %s", ErrIrregularInterval, gap, interval),
				}
			}
		}
		samples[i] = row.sample
	}

	return &model.PriceSeries{
		Interval: interval,
		Location: loc,
		Samples:  samples,
	}, nil
}

func resolveInterval(rows []parsedRow, expectedMinutes int) (time.Duration, error) {
	if expectedMinutes != 0 {
		d, err := model.IntervalFromMinutes(expectedMinutes)
		if err != nil {
			return 0, &ParseError{Err: err}
		}
		return d, nil
	}
	if len(rows) < 2 {
		return model.IntervalHour, nil
	}
	gap := rows[1].sample.Timestamp.Sub(rows[0].sample.Timestamp)
	if gap == 0 {
		return 0, &ParseError{Line: rows[1].line, Field: "timestamp", Value: rows[1].sample.Timestamp.Format(time.RFC3339), Err: ErrDuplicate}
	}
	d, err := model.IntervalFromMinutes(int(gap / time.Minute))
	if err != nil || gap%time.Minute != 0 {
		return 0, &ParseError{Line: rows[1].line, Field: "timestamp", Err: fmt.Errorf("cannot infer interval from spacing %s", gap)}
	}
	return d, nil
}

func resolveHeader(rec []string, layout CSVLayout, tsCol, priceCol int) (int, int, error) {
	find := func(name string) int {
		for i, h := range rec {
			if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), name) {
				return i
			}
		}
		return -1
	}
	if layout.TimestampHeader != "" {
		if tsCol = find(layout.TimestampHeader); tsCol < 0 {
			return 0, 0, fmt.Errorf("column %q not found", layout.TimestampHeader)
		}
	}
	if layout.PriceHeader != "" {
		if priceCol = find(layout.PriceHeader); priceCol < 0 {
			return 0, 0, fmt.Errorf("column %q not found", layout.PriceHeader)
		}
	}
	return tsCol, priceCol, nil
}

func parseTimestamp(v, layout string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(strings.TrimPrefix(v, "\ufeff"))
	if layout != "" {
		return time.ParseInLocation(layout, v, loc)
	}
	var firstErr error
	for _, l := range DefaultTimestampLayouts {
		t, err := time.ParseInLocation(l, v, loc)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date-time: %w", firstErr)
}

func parsePrice(v string, delim rune) (float64, error) {
	v = strings.TrimSpace(v)
	if delim != ',' {
		v = strings.Replace(v, ",", ".", 1)
	}
	x, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, errors.New("price is not a finite number")
	}
	return x, nil
}

// detectDelimiter inspects the first non-blank line. Semicolon wins over comma
// because comma is also a decimal separator in many European exports.
func detectDelimiter(raw string) rune {
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		switch {
		case strings.ContainsRune(line, ';'):
			return ';'
		case strings.ContainsRune(line, '\t'):
			return '\t'
		default:
			return ','
		}
	}
	return ','
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
