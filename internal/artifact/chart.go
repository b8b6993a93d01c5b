package artifact

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"

	"go-lake-pipeline/internal/model"
)

// RenderChart draws the metric series as a PNG time-series chart, one line
// per series
func RenderChart(title string, series []model.MetricSeries) ([]byte, error) {
	chartSeries := make([]chart.Series, 0, len(series))
	for _, s := range series {
		ts := chart.TimeSeries{Name: s.Name}
		for _, p := range s.Points {
			ts.XValues = append(ts.XValues, p.Time)
			ts.YValues = append(ts.YValues, p.AreaSqKm)
		}
		chartSeries = append(chartSeries, ts)
	}

	graph := chart.Chart{
		Title: title,
		XAxis: chart.XAxis{Name: "Date"},
		YAxis: chart.YAxis{Name: "Water Area (km²)"},
		Series: chartSeries,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.Bytes(), nil
}
