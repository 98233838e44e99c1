package model

import (
	"fmt"
	"time"
)

// Supported sample spacings. Keep these stable; they appear in config and CSV exports.
const (
	IntervalQuarterHour = 15 * time.Minute
	IntervalHour        = 60 * time.Minute
)

// IntervalFromMinutes maps a minute count to a supported interval.
func IntervalFromMinutes(minutes int) (time.Duration, error) {
	switch minutes {
	case 15:
		return IntervalQuarterHour, nil
	case 60:
		return IntervalHour, nil
	default:
		return 0, fmt.Errorf("unsupported interval %d minutes, expected 15 or 60", minutes)
	}
}

// PerInterval converts an hourly quantity (e.g. kWh per hour) to the quantity
// accumulated over one interval of length d.
func PerInterval(perHour float64, d time.Duration) float64 {
	return perHour * d.Hours()
}
