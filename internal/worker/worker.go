package worker

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go-lake-pipeline/internal/artifact"
	"go-lake-pipeline/internal/catalog"
	"go-lake-pipeline/internal/engine"
	"go-lake-pipeline/internal/geocode"
	"go-lake-pipeline/internal/model"
	"go-lake-pipeline/internal/store"
)

// State is one step of the per-job state machine
type State string

const (
	StateReceived        State = "received"
	StateContextResolved State = "context_resolved"
	StateImageryLoaded   State = "imagery_loaded"
	StateMetricComputed  State = "metric_computed"
	StatePersisted       State = "persisted"
	StateDone            State = "done"
	StateSkipped         State = "skipped"
	StateFailed          State = "failed"
)

// Result is the terminal outcome of processing one job
type Result struct {
	State State
	URL   string // canonical CSV URL when State == StateDone
	Err   error  // set when State == StateFailed
}

// Worker processes one job at a time to completion. Workers share no state
// with each other; parallelism comes from running more of them.
type Worker struct {
	Catalog  catalog.Catalog
	Resolver geocode.Resolver
	Store    artifact.Store
	Config   model.WorkerConfig
}

// New creates a worker over its three external collaborators
func New(cat catalog.Catalog, resolver geocode.Resolver, st artifact.Store, cfg model.WorkerConfig) *Worker {
	return &Worker{Catalog: cat, Resolver: resolver, Store: st, Config: cfg}
}

// Process runs one job through the state machine. Everything it persists is
// keyed deterministically by the job's identity, so a redelivered job
// overwrites its previous output with equivalent content.
func (w *Worker) Process(ctx context.Context, job model.Job) Result {
	fmt.Printf("🛰️  Processing waterbody: %s (dataset %s, %s to %s)\n", job.Name, job.Dataset, job.StartDate, job.EndDate)

	store.SaveJob(job)
	store.UpdateJobStatus(job.ID, "processing")
	store.SaveJobState(job.ID, string(StateReceived), "")

	if err := job.Validate(); err != nil {
		return w.fail(job, err)
	}
	box := job.BoundingBox()

	// received -> context_resolved: lookup failure degrades to "unknown"
	// rather than failing the job
	lat, lon := box.Centroid()
	region, err := w.Resolver.Resolve(ctx, lat, lon)
	if err != nil || region == "" {
		log.Printf("reverse geocode failed for %s, using %q: %v", job.Name, geocode.UnknownRegion, err)
		region = geocode.UnknownRegion
	}
	store.SaveJobState(job.ID, string(StateContextResolved), region)

	eng, err := engine.ForDataset(job.Dataset)
	if err != nil {
		return w.fail(job, err)
	}

	// context_resolved -> imagery_loaded: catalog calls are bounded by the
	// configured timeout; a timeout fails the job so the queue redelivers it
	cctx, cancel := context.WithTimeout(ctx, w.Config.CatalogTimeout)
	defer cancel()

	items, err := w.Catalog.Search(cctx, box, eng.Collection(), job.StartDate, job.EndDate)
	if err != nil {
		return w.fail(job, fmt.Errorf("imagery search failed: %w", err))
	}
	if len(items) == 0 {
		return w.skip(job, "no imagery items for bbox and time range")
	}
	fmt.Printf("🔭 Found %d catalog items for %s\n", len(items), job.Name)

	cube, err := w.Catalog.Load(cctx, items, catalog.LoadSpec{
		Bands:      eng.Bands(),
		CRS:        w.Config.CRS,
		Resolution: eng.Resolution(),
		BBox:       box,
	})
	if err != nil {
		return w.fail(job, fmt.Errorf("imagery load failed: %w", err))
	}
	store.SaveJobState(job.ID, string(StateImageryLoaded), fmt.Sprintf("%d items", len(items)))

	// imagery_loaded -> metric_computed
	series, err := eng.Compute(cube)
	if errors.Is(err, engine.ErrNoData) {
		return w.skip(job, "cube carries no timesteps")
	}
	if err != nil {
		return w.fail(job, fmt.Errorf("metric computation failed: %w", err))
	}
	store.SaveJobState(job.ID, string(StateMetricComputed), "")

	// metric_computed -> persisted: artifacts are staged fully in memory and
	// written with one put per key, so an interrupted worker never leaves a
	// partial object at a canonical key
	url, err := w.persist(ctx, job, region, series)
	if err != nil {
		return w.fail(job, err)
	}
	store.SaveJobState(job.ID, string(StatePersisted), url)

	// persisted -> done
	store.SetArtifactURL(job.ID, url)
	store.UpdateJobStatus(job.ID, "done")
	store.SaveJobState(job.ID, string(StateDone), "")
	fmt.Printf("✅ Finished %s, results at %s\n", job.Name, url)

	return Result{State: StateDone, URL: url}
}

// persist writes the CSV (and for annual summaries the chart) and returns
// the canonical CSV URL
func (w *Worker) persist(ctx context.Context, job model.Job, region string, series []model.MetricSeries) (string, error) {
	csvBytes, err := artifact.EncodeCSV(series)
	if err != nil {
		return "", fmt.Errorf("failed to encode CSV: %w", err)
	}

	csvKey := artifact.Key(region, job.Name, job.ID, artifact.WaterAreaCSV)
	url, err := w.Store.Put(ctx, csvKey, csvBytes, artifact.WaterAreaCSV.ContentType, true)
	if err != nil {
		return "", fmt.Errorf("failed to store CSV artifact: %w", err)
	}

	if job.Dataset == model.AnnualSummary {
		title := fmt.Sprintf("Time Series of Water Area for Lake %s, %s", job.Name, region)
		png, err := artifact.RenderChart(title, series)
		if err != nil {
			return "", fmt.Errorf("failed to render chart: %w", err)
		}
		chartKey := artifact.Key(region, job.Name, job.ID, artifact.TimeSeriesChart)
		if _, err := w.Store.Put(ctx, chartKey, png, artifact.TimeSeriesChart.ContentType, true); err != nil {
			return "", fmt.Errorf("failed to store chart artifact: %w", err)
		}
	}

	return url, nil
}

// skip ends the job on a skippable-data condition: logged, recorded, never
// an error
func (w *Worker) skip(job model.Job, reason string) Result {
	fmt.Printf("⏭️  Skipping %s: %s\n", job.Name, reason)
	store.UpdateJobStatus(job.ID, "skipped")
	store.SaveJobState(job.ID, string(StateSkipped), reason)
	return Result{State: StateSkipped}
}

// fail ends the job on an unrecoverable error; the caller decides whether
// the queue should redeliver
func (w *Worker) fail(job model.Job, err error) Result {
	log.Printf("job %s failed: %v", job.Name, err)
	store.SaveJobError(job.ID, err)
	store.UpdateJobStatus(job.ID, "failed")
	store.SaveJobState(job.ID, string(StateFailed), err.Error())
	return Result{State: StateFailed, Err: err}
}
