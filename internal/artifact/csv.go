package artifact

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"time"

	"go-lake-pipeline/internal/model"
)

// EncodeCSV renders metric series as CSV bytes: a time column followed by
// one column per series, rows sorted by timestamp. The encoding depends only
// on the series content, so equal input always yields equal bytes.
func EncodeCSV(series []model.MetricSeries) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"time"}
	for _, s := range series {
		header = append(header, s.Name)
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Union of timestamps across series; strategy B series share the time
	// axis but a missing point just leaves an empty cell.
	byTime := make(map[time.Time][]string)
	for col, s := range series {
		for _, p := range s.Points {
			row, ok := byTime[p.Time]
			if !ok {
				row = make([]string, len(series))
				byTime[p.Time] = row
			}
			row[col] = fmt.Sprintf("%g", p.AreaSqKm)
		}
	}

	times := make([]time.Time, 0, len(byTime))
	for ts := range byTime {
		times = append(times, ts)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	for _, ts := range times {
		row := append([]string{ts.UTC().Format(time.RFC3339)}, byTime[ts]...)
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}
