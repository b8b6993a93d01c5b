package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"go-lake-pipeline/internal/model"
	"go-lake-pipeline/internal/producer"
	"go-lake-pipeline/internal/queue"
	"go-lake-pipeline/pkg/utils"
)

// fanOutEvent lets the trigger override the GeoJSON source and time range;
// unset fields fall back to the environment defaults
type fanOutEvent struct {
	SourceURL string `json:"source_url"`
	Dataset   string `json:"dataset"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func handler(ctx context.Context, event fanOutEvent) (producer.Summary, error) {
	cfg := model.DefaultProducerConfig()
	cfg.QueueURL = utils.Env("SQS_QUEUE_URL", "")
	cfg.SourceURL = utils.Env("LAKES_GEOJSON", "")
	cfg.IDField = utils.Env("ID_FIELD", cfg.IDField)
	if event.SourceURL != "" {
		cfg.SourceURL = event.SourceURL
	}
	if event.Dataset != "" {
		cfg.Dataset = model.DatasetKind(event.Dataset)
	}
	if event.StartDate != "" {
		cfg.StartDate = event.StartDate
	}
	if event.EndDate != "" {
		cfg.EndDate = event.EndDate
	}

	if cfg.QueueURL == "" {
		return producer.Summary{}, fmt.Errorf("SQS_QUEUE_URL is required")
	}
	if !cfg.Dataset.Known() {
		return producer.Summary{}, fmt.Errorf("unknown dataset: %s", cfg.Dataset)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(utils.Env("AWS_REGION", model.DefaultRegion)))
	if err != nil {
		return producer.Summary{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	fc, err := producer.ReadFeatureCollection(ctx, cfg.SourceURL)
	if err != nil {
		return producer.Summary{}, fmt.Errorf("failed to read feature collection: %w", err)
	}

	q := queue.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.QueueURL, queue.DefaultRedeliveryPolicy())
	summary := producer.New(q, cfg).Run(ctx, fc)
	return summary, nil
}

func main() {
	lambda.Start(handler)
}
