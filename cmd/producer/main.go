package main

import (
	"context"
	"log"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"go-lake-pipeline/internal/model"
	"go-lake-pipeline/internal/producer"
	"go-lake-pipeline/internal/queue"
	"go-lake-pipeline/internal/store"
	"go-lake-pipeline/pkg/utils"
)

func main() {
	// Resolve config once at process start
	cfg := model.DefaultProducerConfig()
	cfg.QueueURL = utils.Env("SQS_QUEUE_URL", "")
	cfg.SourceURL = utils.Env("LAKES_GEOJSON", "input/africa_naturalearth10_lakes.geojson")
	cfg.IDField = utils.Env("ID_FIELD", cfg.IDField)
	cfg.Dataset = model.DatasetKind(utils.Env("DATASET_NAME", string(cfg.Dataset)))
	cfg.StartDate = utils.Env("START_DATE", cfg.StartDate)
	cfg.EndDate = utils.Env("END_DATE", cfg.EndDate)
	cfg.TrackingDB = utils.Env("TRACKING_DB", cfg.TrackingDB)

	if cfg.QueueURL == "" {
		log.Fatal("SQS_QUEUE_URL is required")
	}
	if !cfg.Dataset.Known() {
		log.Fatalf("unknown dataset: %s", cfg.Dataset)
	}

	if err := store.InitDB(cfg.TrackingDB); err != nil {
		log.Fatalf("failed to init tracking db: %v", err)
	}

	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(utils.Env("AWS_REGION", model.DefaultRegion)))
	if err != nil {
		log.Fatalf("failed to load AWS config: %v", err)
	}

	fc, err := producer.ReadFeatureCollection(ctx, cfg.SourceURL)
	if err != nil {
		log.Fatalf("failed to read feature collection: %v", err)
	}

	q := queue.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.QueueURL, queue.DefaultRedeliveryPolicy())
	p := producer.New(q, cfg)
	p.OnJob = func(job model.Job) {
		if err := store.SaveJob(job); err != nil {
			log.Printf("failed to track job %s: %v", job.ID, err)
		}
	}

	summary := p.Run(ctx, fc)
	if summary.Sent == 0 && summary.Failed > 0 {
		log.Fatalf("batch %s sent nothing: %d failed", summary.BatchID, summary.Failed)
	}
}
