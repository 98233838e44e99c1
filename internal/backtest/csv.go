package backtest

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"
)

func WriteLedgerCSV(path string, ledger []LedgerRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return WriteLedger(f, ledger)
}

// WriteLedger writes the ledger as CSV with a header row.
func WriteLedger(out io.Writer, ledger []LedgerRow) error {
	w := csv.NewWriter(out)

	header := []string{
		"index",
		"interval_start",
		"interval_end",
		"price_per_kwh",
		"kwh",
		"cost",
		"cum_cost",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range ledger {
		row := []string{
			strconv.Itoa(r.Index),
			fmtTime(r.Start),
			fmtTime(r.End),
			fmtFloat(r.Price),
			fmtFloat(r.KWh),
			fmtFloat(r.Cost),
			fmtFloat(r.CumCost),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
