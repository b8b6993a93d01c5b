package worker

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go-lake-pipeline/internal/catalog"
	"go-lake-pipeline/internal/model"
	"go-lake-pipeline/internal/queue"
	"go-lake-pipeline/internal/store"
)

// ---------------------- Fakes ----------------------

type fakeCatalog struct {
	items     []catalog.Item
	searchErr error
	cube      *catalog.Cube
	loadErr   error
}

func (c *fakeCatalog) Search(ctx context.Context, bbox model.BoundingBox, collection, startDate, endDate string) ([]catalog.Item, error) {
	return c.items, c.searchErr
}

func (c *fakeCatalog) Load(ctx context.Context, items []catalog.Item, spec catalog.LoadSpec) (*catalog.Cube, error) {
	return c.cube, c.loadErr
}

type fakeResolver struct {
	region string
	err    error
}

func (r *fakeResolver) Resolve(ctx context.Context, lat, lon float64) (string, error) {
	return r.region, r.err
}

type memArtifacts struct {
	objects map[string][]byte
	types   map[string]string
}

func newMemArtifacts() *memArtifacts {
	return &memArtifacts{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *memArtifacts) Put(ctx context.Context, key string, body []byte, contentType string, publicRead bool) (string, error) {
	s.objects[key] = append([]byte(nil), body...)
	s.types[key] = contentType
	return "mem://" + key, nil
}

// ---------------------- Helpers ----------------------

func setupStore(t *testing.T) {
	t.Helper()
	if err := store.InitDB(filepath.Join(t.TempDir(), "tracking.db")); err != nil {
		t.Fatalf("Failed to init tracking db: %v", err)
	}
}

func compositeJob() model.Job {
	return model.Job{
		ID:        "7",
		Name:      "Lake Chad",
		BBox:      [4]float64{13.0, 12.0, 13.2, 12.3},
		Dataset:   model.RollingComposite,
		StartDate: "2019-01-01",
		EndDate:   "2024-12-31",
	}
}

func annualJob() model.Job {
	j := compositeJob()
	j.Dataset = model.AnnualSummary
	return j
}

func compositeCube(t *testing.T) *catalog.Cube {
	t.Helper()
	times := []time.Time{
		time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	cube := catalog.NewCube([]string{"B03", "B11"}, times, 1, 1, 100)
	for ti := range times {
		cube.Set("B03", ti, 0, 0, 0.6)
		cube.Set("B11", ti, 0, 0, 0.1)
	}
	return cube
}

func annualCube(t *testing.T) *catalog.Cube {
	t.Helper()
	times := []time.Time{
		time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	cube := catalog.NewCube([]string{"count_wet", "count_clear"}, times, 1, 1, 200)
	for ti := range times {
		cube.Set("count_wet", ti, 0, 0, 90)
		cube.Set("count_clear", ti, 0, 0, 100)
	}
	return cube
}

func oneItem() []catalog.Item {
	return []catalog.Item{{ID: "scene-1", Collection: "gm_s2_rolling", Datetime: time.Now().UTC()}}
}

func newTestWorker(cat catalog.Catalog, resolver *fakeResolver, artifacts *memArtifacts) *Worker {
	cfg := model.DefaultWorkerConfig()
	cfg.Bucket = "test-bucket"
	return New(cat, resolver, artifacts, cfg)
}

// ---------------------- Process ----------------------

func TestProcessCompositeJobToDone(t *testing.T) {
	setupStore(t)
	artifacts := newMemArtifacts()
	cat := &fakeCatalog{items: oneItem(), cube: compositeCube(t)}
	w := newTestWorker(cat, &fakeResolver{region: "Chad"}, artifacts)

	result := w.Process(context.Background(), compositeJob())
	if result.State != StateDone {
		t.Fatalf("Expected done, got %s (err %v)", result.State, result.Err)
	}

	wantKey := "output/Chad/Lake_Chad_7_water_area.csv"
	if result.URL != "mem://"+wantKey {
		t.Errorf("Wrong artifact URL: %s", result.URL)
	}
	body, ok := artifacts.objects[wantKey]
	if !ok {
		t.Fatalf("Missing CSV artifact, have %v", keysOf(artifacts.objects))
	}
	if !strings.HasPrefix(string(body), "time,water_area") {
		t.Errorf("Unexpected CSV header in %q", string(body))
	}
	if artifacts.types[wantKey] != "text/csv" {
		t.Errorf("Wrong content type: %s", artifacts.types[wantKey])
	}
}

func TestProcessAnnualJobWritesChart(t *testing.T) {
	setupStore(t)
	artifacts := newMemArtifacts()
	cat := &fakeCatalog{items: oneItem(), cube: annualCube(t)}
	w := newTestWorker(cat, &fakeResolver{region: "Chad"}, artifacts)

	result := w.Process(context.Background(), annualJob())
	if result.State != StateDone {
		t.Fatalf("Expected done, got %s (err %v)", result.State, result.Err)
	}

	csvKey := "output/Chad/Lake_Chad_7_water_area.csv"
	chartKey := "output/Chad/Lake_Chad_7_water_area_time_series.png"
	if _, ok := artifacts.objects[csvKey]; !ok {
		t.Errorf("Missing CSV artifact, have %v", keysOf(artifacts.objects))
	}
	if _, ok := artifacts.objects[chartKey]; !ok {
		t.Errorf("Missing chart artifact, have %v", keysOf(artifacts.objects))
	}
	if artifacts.types[chartKey] != "image/png" {
		t.Errorf("Wrong chart content type: %s", artifacts.types[chartKey])
	}
}

func TestProcessIsIdempotent(t *testing.T) {
	setupStore(t)
	artifacts := newMemArtifacts()
	cat := &fakeCatalog{items: oneItem(), cube: compositeCube(t)}
	w := newTestWorker(cat, &fakeResolver{region: "Chad"}, artifacts)

	first := w.Process(context.Background(), compositeJob())
	firstBody := append([]byte(nil), artifacts.objects["output/Chad/Lake_Chad_7_water_area.csv"]...)

	second := w.Process(context.Background(), compositeJob())
	if first.State != StateDone || second.State != StateDone {
		t.Fatalf("Both runs should finish done: %s, %s", first.State, second.State)
	}
	if first.URL != second.URL {
		t.Errorf("Redelivery must hit the same key: %s vs %s", first.URL, second.URL)
	}
	if len(artifacts.objects) != 1 {
		t.Errorf("Redelivery must not create new objects, have %v", keysOf(artifacts.objects))
	}
	if !bytes.Equal(firstBody, artifacts.objects["output/Chad/Lake_Chad_7_water_area.csv"]) {
		t.Error("Redelivery should overwrite with equivalent content")
	}
}

func TestProcessSkipsWhenNoImagery(t *testing.T) {
	setupStore(t)
	artifacts := newMemArtifacts()
	cat := &fakeCatalog{items: nil}
	w := newTestWorker(cat, &fakeResolver{region: "Chad"}, artifacts)

	result := w.Process(context.Background(), compositeJob())
	if result.State != StateSkipped {
		t.Fatalf("Expected skipped, got %s (err %v)", result.State, result.Err)
	}
	if len(artifacts.objects) != 0 {
		t.Errorf("Skipped job must write nothing, have %v", keysOf(artifacts.objects))
	}
}

func TestProcessGeocodeFailureUsesUnknownRegion(t *testing.T) {
	setupStore(t)
	artifacts := newMemArtifacts()
	cat := &fakeCatalog{items: oneItem(), cube: compositeCube(t)}
	w := newTestWorker(cat, &fakeResolver{err: errors.New("nominatim down")}, artifacts)

	result := w.Process(context.Background(), compositeJob())
	if result.State != StateDone {
		t.Fatalf("Geocode failure must not fail the job, got %s (err %v)", result.State, result.Err)
	}
	if _, ok := artifacts.objects["output/unknown/Lake_Chad_7_water_area.csv"]; !ok {
		t.Errorf("Expected artifact under unknown region, have %v", keysOf(artifacts.objects))
	}
}

func TestProcessFailsOnSearchError(t *testing.T) {
	setupStore(t)
	cat := &fakeCatalog{searchErr: errors.New("catalog unreachable")}
	w := newTestWorker(cat, &fakeResolver{region: "Chad"}, newMemArtifacts())

	result := w.Process(context.Background(), compositeJob())
	if result.State != StateFailed {
		t.Fatalf("Expected failed, got %s", result.State)
	}
	if result.Err == nil || !strings.Contains(result.Err.Error(), "imagery search failed") {
		t.Errorf("Expected wrapped search error, got %v", result.Err)
	}
}

func TestProcessRejectsMalformedJob(t *testing.T) {
	setupStore(t)
	w := newTestWorker(&fakeCatalog{}, &fakeResolver{region: "Chad"}, newMemArtifacts())

	job := compositeJob()
	job.Name = ""

	result := w.Process(context.Background(), job)
	if result.State != StateFailed {
		t.Fatalf("Expected failed, got %s", result.State)
	}
	var missing model.ErrMissingField
	if !errors.As(result.Err, &missing) {
		t.Errorf("Expected a missing-field error, got %v", result.Err)
	}
}

// ---------------------- Handle ----------------------

func quickQueue() *queue.MemoryQueue {
	return queue.NewMemoryQueue(queue.RedeliveryPolicy{
		VisibilityTimeout: 50 * time.Millisecond,
		WaitTime:          30 * time.Millisecond,
	})
}

func TestHandleDeletesOnDone(t *testing.T) {
	setupStore(t)
	cat := &fakeCatalog{items: oneItem(), cube: compositeCube(t)}
	w := newTestWorker(cat, &fakeResolver{region: "Chad"}, newMemArtifacts())

	q := quickQueue()
	ctx := context.Background()
	if err := q.Send(ctx, compositeJob()); err != nil {
		t.Fatalf("Failed to send: %v", err)
	}
	msg, err := q.Receive(ctx)
	if err != nil {
		t.Fatalf("Failed to receive: %v", err)
	}

	w.Handle(ctx, q, msg)
	if q.Len() != 0 {
		t.Errorf("Finished job should be deleted, queue has %d", q.Len())
	}
}

func TestHandleLeavesFailedJobForRedelivery(t *testing.T) {
	setupStore(t)
	cat := &fakeCatalog{searchErr: errors.New("catalog unreachable")}
	w := newTestWorker(cat, &fakeResolver{region: "Chad"}, newMemArtifacts())

	q := quickQueue()
	ctx := context.Background()
	if err := q.Send(ctx, compositeJob()); err != nil {
		t.Fatalf("Failed to send: %v", err)
	}
	msg, err := q.Receive(ctx)
	if err != nil {
		t.Fatalf("Failed to receive: %v", err)
	}

	w.Handle(ctx, q, msg)
	if q.Len() != 1 {
		t.Errorf("Failed job must stay queued for redelivery, queue has %d", q.Len())
	}
}

func TestHandleDeletesMalformedJob(t *testing.T) {
	setupStore(t)
	w := newTestWorker(&fakeCatalog{}, &fakeResolver{region: "Chad"}, newMemArtifacts())

	q := quickQueue()
	ctx := context.Background()
	job := compositeJob()
	job.Name = ""
	if err := q.Send(ctx, job); err != nil {
		t.Fatalf("Failed to send: %v", err)
	}
	msg, err := q.Receive(ctx)
	if err != nil {
		t.Fatalf("Failed to receive: %v", err)
	}

	w.Handle(ctx, q, msg)
	if q.Len() != 0 {
		t.Errorf("Malformed job must be deleted, queue has %d", q.Len())
	}
}

func TestHandleDeadLettersAfterMaxReceives(t *testing.T) {
	setupStore(t)
	cat := &fakeCatalog{searchErr: errors.New("catalog unreachable")}
	w := newTestWorker(cat, &fakeResolver{region: "Chad"}, newMemArtifacts())

	q := quickQueue()
	ctx := context.Background()
	if err := q.Send(ctx, compositeJob()); err != nil {
		t.Fatalf("Failed to send: %v", err)
	}
	msg, err := q.Receive(ctx)
	if err != nil {
		t.Fatalf("Failed to receive: %v", err)
	}
	msg.ReceiveCount = w.Config.MaxReceives + 1

	w.Handle(ctx, q, msg)
	if q.Len() != 0 {
		t.Errorf("Dead-lettered job must leave the queue, queue has %d", q.Len())
	}

	job, err := store.GetJob("7")
	if err != nil {
		t.Fatalf("Failed to fetch job: %v", err)
	}
	if job["status"] != "dead_letter" {
		t.Errorf("Expected dead_letter status, got %v", job["status"])
	}
}

func keysOf(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
