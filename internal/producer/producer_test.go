package producer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go-lake-pipeline/internal/model"
	"go-lake-pipeline/internal/queue"
)

type recordingQueue struct {
	jobs    []model.Job
	sendErr error
}

func (q *recordingQueue) Send(ctx context.Context, job model.Job) error {
	if q.sendErr != nil {
		return q.sendErr
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) Receive(ctx context.Context) (*queue.Message, error) {
	return nil, queue.ErrEmpty
}

func (q *recordingQueue) Delete(ctx context.Context, receiptHandle string) error {
	return nil
}

func testConfig() model.ProducerConfig {
	cfg := model.DefaultProducerConfig()
	cfg.StartDate = "2019-01-01"
	cfg.EndDate = "2024-12-31"
	return cfg
}

func lakeFeature(t *testing.T, name string, id interface{}, coords [][][][]float64) model.Feature {
	t.Helper()
	raw, err := json.Marshal(coords)
	if err != nil {
		t.Fatalf("Failed to marshal coordinates: %v", err)
	}
	props := map[string]interface{}{"name": name}
	if id != nil {
		props["ne_id"] = id
	}
	return model.Feature{
		Properties: props,
		Geometry:   model.Geometry{Type: "MultiPolygon", Coordinates: raw},
	}
}

func chadCoords() [][][][]float64 {
	return [][][][]float64{
		{{{13.0, 12.0}, {13.2, 12.0}, {13.2, 12.3}, {13.0, 12.3}, {13.0, 12.0}}},
	}
}

func TestRunSendsOneJobPerFeature(t *testing.T) {
	q := &recordingQueue{}
	p := New(q, testConfig())

	fc := model.FeatureCollection{Features: []model.Feature{
		lakeFeature(t, "Lake Chad", float64(7), chadCoords()),
	}}

	summary := p.Run(context.Background(), fc)
	if summary.Sent != 1 || summary.Skipped != 0 || summary.Failed != 0 {
		t.Fatalf("Unexpected summary: %+v", summary)
	}
	if summary.BatchID == "" {
		t.Error("Batch should carry an id")
	}

	job := q.jobs[0]
	if job.ID != "7" || job.Name != "Lake Chad" {
		t.Errorf("Wrong job identity: %+v", job)
	}
	if job.BBox != [4]float64{13.0, 12.0, 13.2, 12.3} {
		t.Errorf("Wrong bbox: %v", job.BBox)
	}
	if job.Dataset != model.RollingComposite {
		t.Errorf("Wrong dataset: %s", job.Dataset)
	}
	if job.StartDate != "2019-01-01" || job.EndDate != "2024-12-31" {
		t.Errorf("Wrong date range: %s to %s", job.StartDate, job.EndDate)
	}
}

func TestRunSkipsBadFeatures(t *testing.T) {
	q := &recordingQueue{}
	p := New(q, testConfig())

	noName := lakeFeature(t, "ignored", nil, chadCoords())
	delete(noName.Properties, "name")

	point := model.Feature{
		Properties: map[string]interface{}{"name": "Not A Lake"},
		Geometry:   model.Geometry{Type: "Point", Coordinates: json.RawMessage(`[1.0, 2.0]`)},
	}

	empty := lakeFeature(t, "Empty Lake", float64(9), [][][][]float64{})

	fc := model.FeatureCollection{Features: []model.Feature{
		noName,
		point,
		empty,
		lakeFeature(t, "Lake Chad", float64(7), chadCoords()),
	}}

	summary := p.Run(context.Background(), fc)
	if summary.Sent != 1 || summary.Skipped != 3 || summary.Failed != 0 {
		t.Fatalf("Unexpected summary: %+v", summary)
	}
	if len(q.jobs) != 1 || q.jobs[0].Name != "Lake Chad" {
		t.Errorf("Only the valid feature should be sent, got %+v", q.jobs)
	}
}

func TestRunSendFailureDoesNotAbortBatch(t *testing.T) {
	q := &recordingQueue{sendErr: errors.New("queue unavailable")}
	p := New(q, testConfig())

	fc := model.FeatureCollection{Features: []model.Feature{
		lakeFeature(t, "Lake Chad", float64(7), chadCoords()),
		lakeFeature(t, "Lake Victoria", float64(12), chadCoords()),
	}}

	summary := p.Run(context.Background(), fc)
	if summary.Failed != 2 || summary.Sent != 0 {
		t.Fatalf("Unexpected summary: %+v", summary)
	}
}

func TestRunFallbackIDForMissingProperty(t *testing.T) {
	q := &recordingQueue{}
	p := New(q, testConfig())

	fc := model.FeatureCollection{Features: []model.Feature{
		lakeFeature(t, "Unnamed Reservoir", nil, chadCoords()),
	}}

	summary := p.Run(context.Background(), fc)
	if summary.Sent != 1 {
		t.Fatalf("Unexpected summary: %+v", summary)
	}
	if q.jobs[0].ID == "" {
		t.Error("Job without a source id should get a deterministic fallback id")
	}

	// Same feature again yields the same fallback id
	again := p.Run(context.Background(), fc)
	if again.Sent != 1 {
		t.Fatalf("Unexpected summary: %+v", again)
	}
	if q.jobs[0].ID != q.jobs[1].ID {
		t.Errorf("Fallback id must be stable: %s vs %s", q.jobs[0].ID, q.jobs[1].ID)
	}
}

func TestRunCallsOnJobAfterSend(t *testing.T) {
	q := &recordingQueue{}
	p := New(q, testConfig())

	var registered []string
	p.OnJob = func(j model.Job) { registered = append(registered, j.ID) }

	fc := model.FeatureCollection{Features: []model.Feature{
		lakeFeature(t, "Lake Chad", float64(7), chadCoords()),
	}}
	p.Run(context.Background(), fc)

	if len(registered) != 1 || registered[0] != "7" {
		t.Errorf("OnJob should fire once per sent job, got %v", registered)
	}
}
