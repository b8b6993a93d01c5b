package engine

import (
	"math"
	"sort"

	"go-lake-pipeline/internal/catalog"
	"go-lake-pipeline/internal/model"
)

// WetnessFrequencyEngine classifies annual-summary pixels by how often they
// were observed wet: percent_wet = 100 * count_wet / count_clear. Pixels
// above the permanent threshold are also above the seasonal one, so the two
// output series are overlapping aggregates, not exclusive classes.
type WetnessFrequencyEngine struct {
	WetBand            string
	ClearBand          string
	PermanentThreshold float64
	SeasonalThreshold  float64
	LoadRes            float64
	Dataset            string
}

// NewWetnessFrequencyEngine returns the engine with the deployed thresholds
func NewWetnessFrequencyEngine() *WetnessFrequencyEngine {
	return &WetnessFrequencyEngine{
		WetBand:            "count_wet",
		ClearBand:          "count_clear",
		PermanentThreshold: 80,
		SeasonalThreshold:  40,
		LoadRes:            200,
		Dataset:            string(model.AnnualSummary),
	}
}

func (e *WetnessFrequencyEngine) Collection() string  { return e.Dataset }
func (e *WetnessFrequencyEngine) Bands() []string     { return []string{e.WetBand, e.ClearBand} }
func (e *WetnessFrequencyEngine) Resolution() float64 { return e.LoadRes }

// Compute produces the permanent and seasonal water-area series. A pixel
// with zero clear observations has no defined wetness and counts toward
// neither series at that timestep.
func (e *WetnessFrequencyEngine) Compute(cube *catalog.Cube) ([]model.MetricSeries, error) {
	if len(cube.Times) == 0 {
		return nil, ErrNoData
	}

	pixelArea := cube.PixelAreaSqKm()
	permanent := make([]model.SeriesPoint, 0, len(cube.Times))
	seasonal := make([]model.SeriesPoint, 0, len(cube.Times))

	for t := range cube.Times {
		permanentPixels := 0
		seasonalPixels := 0
		for y := 0; y < cube.Height; y++ {
			for x := 0; x < cube.Width; x++ {
				wet := cube.Value(e.WetBand, t, y, x)
				clear := cube.Value(e.ClearBand, t, y, x)
				if math.IsNaN(wet) || math.IsNaN(clear) || clear <= 0 {
					continue
				}
				percentWet := 100.0 * wet / clear
				if percentWet > e.SeasonalThreshold {
					seasonalPixels++
				}
				if percentWet > e.PermanentThreshold {
					permanentPixels++
				}
			}
		}
		permanent = append(permanent, model.SeriesPoint{
			Time:     cube.Times[t],
			AreaSqKm: float64(permanentPixels) * pixelArea,
		})
		seasonal = append(seasonal, model.SeriesPoint{
			Time:     cube.Times[t],
			AreaSqKm: float64(seasonalPixels) * pixelArea,
		})
	}

	byTime := func(points []model.SeriesPoint) {
		sort.Slice(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	}
	byTime(permanent)
	byTime(seasonal)

	return []model.MetricSeries{
		{Name: "permanent_water", Points: permanent},
		{Name: "seasonal_water", Points: seasonal},
	}, nil
}
