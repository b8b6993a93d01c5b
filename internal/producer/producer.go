package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"

	"go-lake-pipeline/internal/geo"
	"go-lake-pipeline/internal/model"
	"go-lake-pipeline/internal/queue"
)

// Summary is the aggregate outcome of one fan-out batch. Callers get this,
// not per-feature errors; individual failures are logged and counted.
type Summary struct {
	BatchID string `json:"batch_id"`
	Sent    int    `json:"sent"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}

// Producer fans a feature collection out into one queue message per lake
type Producer struct {
	Queue  queue.Queue
	Config model.ProducerConfig

	// OnJob, when set, is called for every job after a successful send
	// (used to register jobs in the tracking store)
	OnJob func(model.Job)
}

// New creates a producer over the given queue
func New(q queue.Queue, cfg model.ProducerConfig) *Producer {
	return &Producer{Queue: q, Config: cfg}
}

// Run walks the feature collection and sends one job per valid feature.
// A bad feature or a failed send never aborts the batch.
func (p *Producer) Run(ctx context.Context, fc model.FeatureCollection) Summary {
	summary := Summary{BatchID: uuid.New().String()}
	fmt.Printf("🚀 Starting job fan-out, batch %s: %d features\n", summary.BatchID, len(fc.Features))

	for _, feature := range fc.Features {
		name := featureName(feature)
		if name == "" {
			log.Printf("skipping feature without a name property")
			summary.Skipped++
			continue
		}

		box, ok := geo.BoundingBoxOf(feature.Geometry)
		if !ok {
			log.Printf("skipping %s: unsupported geometry type %q", name, feature.Geometry.Type)
			summary.Skipped++
			continue
		}
		if !box.Valid() {
			log.Printf("skipping %s: geometry has no coordinates", name)
			summary.Skipped++
			continue
		}

		job := model.Job{
			ID:        featureID(feature, p.Config.IDField, box),
			Name:      name,
			BBox:      box.Slice(),
			Dataset:   p.Config.Dataset,
			StartDate: p.Config.StartDate,
			EndDate:   p.Config.EndDate,
		}

		if err := p.Queue.Send(ctx, job); err != nil {
			log.Printf("failed to send job for %s: %v", name, err)
			summary.Failed++
			continue
		}

		if p.OnJob != nil {
			p.OnJob(job)
		}
		summary.Sent++
		fmt.Printf("📤 Sent job for %s with bbox [%g, %g, %g, %g]\n", name, box.West, box.South, box.East, box.North)
	}

	fmt.Printf("🏁 Fan-out complete for batch %s: %d sent, %d skipped, %d failed\n",
		summary.BatchID, summary.Sent, summary.Skipped, summary.Failed)
	return summary
}

// featureName pulls the name property; empty means the feature is malformed
func featureName(f model.Feature) string {
	if v, ok := f.Properties["name"].(string); ok {
		return v
	}
	return ""
}

// featureID pulls the configured id property. When the source carries none,
// a deterministic fallback derived from the bounding box keeps distinct
// unnamed features from colliding on the same artifact key.
func featureID(f model.Feature, idField string, box model.BoundingBox) string {
	switch v := f.Properties[idField].(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return fmt.Sprintf("%.0f", v)
	}
	return geo.FallbackID(box)
}

// ReadFeatureCollection loads a GeoJSON feature collection from a local path
// or an HTTP URL
func ReadFeatureCollection(ctx context.Context, pathOrURL string) (model.FeatureCollection, error) {
	var fc model.FeatureCollection
	var reader io.ReadCloser

	if strings.HasPrefix(pathOrURL, "http") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pathOrURL, nil)
		if err != nil {
			return fc, fmt.Errorf("failed to build request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fc, fmt.Errorf("failed to GET feature collection: %w", err)
		}
		reader = resp.Body
	} else {
		file, err := os.Open(pathOrURL)
		if err != nil {
			return fc, fmt.Errorf("failed to open feature collection: %w", err)
		}
		reader = file
	}
	defer reader.Close()

	if err := json.NewDecoder(reader).Decode(&fc); err != nil {
		return fc, fmt.Errorf("failed to decode feature collection: %w", err)
	}
	return fc, nil
}
