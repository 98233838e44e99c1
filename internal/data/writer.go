package data

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"tariff-backtest/internal/model"
)

// WritePrices writes samples in the default layout ("timestamp,price", RFC3339
// in loc, currency per kWh) so that ParsePrices reads them back unchanged.
func WritePrices(out io.Writer, samples []model.PriceSample, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	w := csv.NewWriter(out)
	if err := w.Write([]string{"timestamp", "price"}); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{
			s.Timestamp.In(loc).Format(time.RFC3339),
			strconv.FormatFloat(s.Price, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
