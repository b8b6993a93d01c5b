package model

import (
	"encoding/json"
	"time"
)

// Geometry is a GeoJSON-like geometry as found in the input feature collection.
// Coordinates stay raw until the type is known; only MultiPolygon is decoded.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Feature represents one lake polygon from the input feature collection
type Feature struct {
	Properties map[string]interface{} `json:"properties"`
	Geometry   Geometry               `json:"geometry"`
}

// FeatureCollection is the GeoJSON wrapper around the input features
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// BoundingBox is an axis-aligned box in geographic degrees
type BoundingBox struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// Valid reports whether the box was widened by at least one real point.
// A box still at the inverted sentinel fails this check.
func (b BoundingBox) Valid() bool {
	return b.West <= b.East && b.South <= b.North
}

// Centroid returns the box midpoint as (lat, lon)
func (b BoundingBox) Centroid() (float64, float64) {
	return (b.South + b.North) / 2, (b.West + b.East) / 2
}

// Slice returns the box in [west, south, east, north] order, the order the
// queue wire format and the imagery catalog both use
func (b BoundingBox) Slice() [4]float64 {
	return [4]float64{b.West, b.South, b.East, b.North}
}

// DatasetKind selects which processing strategy a job runs
type DatasetKind string

const (
	// RollingComposite is the high-frequency composite dataset (MNDWI strategy)
	RollingComposite DatasetKind = "gm_s2_rolling"
	// AnnualSummary is the yearly wetness-frequency dataset (permanent/seasonal strategy)
	AnnualSummary DatasetKind = "wofs_ls_summary_annual"
)

// Known reports whether k is one of the supported dataset kinds
func (k DatasetKind) Known() bool {
	return k == RollingComposite || k == AnnualSummary
}

// Job is one unit of per-lake work carried on the queue. Immutable once
// produced; the queue may deliver it more than once.
type Job struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	BBox      [4]float64  `json:"bbox"` // west, south, east, north
	Dataset   DatasetKind `json:"dataset"`
	StartDate string      `json:"start_date"` // ISO date
	EndDate   string      `json:"end_date"`   // ISO date
}

// BoundingBox rebuilds the typed box from the wire slice
func (j Job) BoundingBox() BoundingBox {
	return BoundingBox{West: j.BBox[0], South: j.BBox[1], East: j.BBox[2], North: j.BBox[3]}
}

// Validate checks the fields a worker cannot proceed without
func (j Job) Validate() error {
	if j.Name == "" {
		return ErrMissingField("name")
	}
	if !j.BoundingBox().Valid() {
		return ErrMissingField("bbox")
	}
	if !j.Dataset.Known() {
		return ErrMissingField("dataset")
	}
	return nil
}

// ErrMissingField marks a malformed job rejected per-item
type ErrMissingField string

func (e ErrMissingField) Error() string {
	return "job missing or invalid field: " + string(e)
}

// SeriesPoint is one timestep of a metric series
type SeriesPoint struct {
	Time     time.Time `json:"time"`
	AreaSqKm float64   `json:"area_sq_km"`
}

// MetricSeries maps acquisition timestamps to a water-area value in km².
// Derived once by the engine, never mutated afterwards.
type MetricSeries struct {
	Name   string        `json:"name"` // e.g. "water_area", "permanent_water", "seasonal_water"
	Points []SeriesPoint `json:"points"`
}
