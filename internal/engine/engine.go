package engine

import (
	"errors"
	"fmt"

	"go-lake-pipeline/internal/catalog"
	"go-lake-pipeline/internal/model"
)

// ErrNoData means the imagery query matched nothing for the job's bbox and
// time range. It is a skip condition, never a failure.
var ErrNoData = errors.New("engine: no imagery data for requested area and time range")

// Engine computes water-area metric series from a raster cube. One engine
// per dataset kind; the two implementations are interchangeable behind this
// interface.
type Engine interface {
	// Collection is the catalog collection this engine consumes
	Collection() string
	// Bands are the raster bands the cube must carry
	Bands() []string
	// Resolution is the load resolution in metres per pixel
	Resolution() float64
	// Compute derives one or more metric series from the cube
	Compute(cube *catalog.Cube) ([]model.MetricSeries, error)
}

// ForDataset returns the engine for a dataset kind
func ForDataset(kind model.DatasetKind) (Engine, error) {
	switch kind {
	case model.RollingComposite:
		return NewCompositeIndexEngine(), nil
	case model.AnnualSummary:
		return NewWetnessFrequencyEngine(), nil
	default:
		return nil, fmt.Errorf("unknown dataset kind: %s", kind)
	}
}
