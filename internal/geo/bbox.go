package geo

import (
	"encoding/json"
	"fmt"
	"hash/fnv"

	"go-lake-pipeline/internal/model"
)

// SentinelBox is the inverted starting box: any real point widens it, and a
// geometry with no points leaves it untouched, which Valid() then rejects.
func SentinelBox() model.BoundingBox {
	return model.BoundingBox{West: 180.0, South: 90.0, East: -180.0, North: -90.0}
}

// BoundingBoxOf computes the axis-aligned bounding box of a MultiPolygon
// geometry. For any other geometry type it returns ok=false; callers skip the
// feature rather than failing the batch.
func BoundingBoxOf(g model.Geometry) (model.BoundingBox, bool) {
	if g.Type != "MultiPolygon" {
		return model.BoundingBox{}, false
	}

	var coords [][][][]float64 // polygon > ring > point > [lon, lat]
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return model.BoundingBox{}, false
	}

	box := SentinelBox()
	for _, polygon := range coords {
		for _, ring := range polygon {
			for _, point := range ring {
				if len(point) < 2 {
					continue
				}
				lon, lat := point[0], point[1]
				if lon < box.West {
					box.West = lon
				}
				if lon > box.East {
					box.East = lon
				}
				if lat < box.South {
					box.South = lat
				}
				if lat > box.North {
					box.North = lat
				}
			}
		}
	}

	// An empty multipolygon yields the sentinel unchanged; hand it back as-is
	// so the caller's Valid() check discards it.
	return box, true
}

// FallbackID derives a deterministic id for a feature whose source id is
// absent. Hashing the bounding box keeps re-sends of the same feature on the
// same artifact key while two distinct unnamed features stay apart.
func FallbackID(box model.BoundingBox) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%.6f,%.6f,%.6f,%.6f", box.West, box.South, box.East, box.North)
	return fmt.Sprintf("%d", h.Sum64()%1000000000)
}
