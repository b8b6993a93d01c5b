package artifact

import (
	"fmt"
	"strings"
)

// Kind identifies one artifact type produced for a job
type Kind struct {
	Name        string
	Ext         string
	ContentType string
}

var (
	// WaterAreaCSV is the time-series CSV every successful job produces
	WaterAreaCSV = Kind{Name: "water_area", Ext: "csv", ContentType: "text/csv"}
	// TimeSeriesChart is the rendered permanent/seasonal chart for annual summaries
	TimeSeriesChart = Kind{Name: "water_area_time_series", Ext: "png", ContentType: "image/png"}
)

// SanitizeName makes a feature name safe to embed in an object key: spaces
// become underscores, and so do path separators and control characters so a
// name can never escape the output prefix. Everything else passes through.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == ' ', r == '/', r == '\\':
			b.WriteRune('_')
		case r < 0x20 || r == 0x7f:
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Key builds the deterministic object key for an artifact. It is a pure
// function of (region, name, id, kind), never of wall-clock time or worker
// identity, so a redelivered job overwrites its own previous output.
// The id is omitted when it is the absent-id sentinel.
func Key(region, name, id string, kind Kind) string {
	short := SanitizeName(name)
	if id != "" && id != "0" {
		short = short + "_" + id
	}
	return fmt.Sprintf("output/%s/%s_%s.%s", SanitizeName(region), short, kind.Name, kind.Ext)
}
