package catalog

import (
	"context"
	"time"

	"go-lake-pipeline/internal/model"
)

// Item is one search hit from the imagery catalog
type Item struct {
	ID         string            `json:"id"`
	Collection string            `json:"collection"`
	Datetime   time.Time         `json:"datetime"`
	Assets     map[string]string `json:"assets"` // band name -> asset href
}

// LoadSpec says how to materialize items into a cube
type LoadSpec struct {
	Bands      []string
	CRS        string
	Resolution float64
	BBox       model.BoundingBox
}

// Catalog is the black-box imagery search-and-load API. It is potentially
// slow and occasionally empty-returning; it is never assumed to fail fast,
// so every call takes a context with the caller's timeout attached.
type Catalog interface {
	Search(ctx context.Context, bbox model.BoundingBox, collection, startDate, endDate string) ([]Item, error)
	Load(ctx context.Context, items []Item, spec LoadSpec) (*Cube, error)
}

// Loader turns catalog items into an in-memory cube. Decoding cloud rasters
// is deployment-specific and plugs in behind this seam.
type Loader interface {
	Load(ctx context.Context, items []Item, spec LoadSpec) (*Cube, error)
}
