package export

import (
	"bytes"
	"encoding/csv"
	"strconv"

	budget "github.com/ucdavis/iwfm-sub003/internal/budget/domain"
)

// BuildZoneCSV renders one zone table: the header row, then one row per
// timestep in header order.
func BuildZoneCSV(t budget.ZoneReportTable) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Headers); err != nil {
		return nil, err
	}
	record := make([]string, len(t.Headers))
	for i := 0; i < t.Rows(); i++ {
		record[0] = t.Time[i]
		for j, col := range t.Columns {
			record[j+1] = formatValue(col[i])
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildLocationCSV renders one location table.
func BuildLocationCSV(t budget.LocationReportTable) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Headers); err != nil {
		return nil, err
	}
	rows, cols := 0, 0
	if t.Data != nil && !t.Data.IsEmpty() {
		rows, cols = t.Data.Dims()
	}
	for i := 0; i < rows && i < len(t.Time); i++ {
		record := make([]string, 0, cols+1)
		record = append(record, t.Time[i])
		for j := 0; j < cols; j++ {
			record = append(record, formatValue(t.Data.At(i, j)))
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
