package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"go-lake-pipeline/internal/artifact"
	"go-lake-pipeline/internal/catalog"
	"go-lake-pipeline/internal/geocode"
	"go-lake-pipeline/internal/model"
	"go-lake-pipeline/internal/queue"
	"go-lake-pipeline/internal/store"
	"go-lake-pipeline/internal/worker"
	"go-lake-pipeline/pkg/utils"
)

func main() {
	// Resolve config once at process start
	cfg := model.DefaultWorkerConfig()
	cfg.QueueURL = utils.Env("SQS_QUEUE_URL", "")
	cfg.Bucket = utils.Env("S3_BUCKET", "cloud-computing-workshop-2025")
	cfg.Region = utils.Env("AWS_REGION", cfg.Region)
	cfg.CatalogURL = utils.Env("CATALOG_URL", cfg.CatalogURL)
	cfg.CRS = utils.Env("OUTPUT_CRS", cfg.CRS)
	cfg.CatalogTimeout = utils.ParseDuration(os.Getenv("CATALOG_TIMEOUT"), cfg.CatalogTimeout)
	cfg.MaxReceives = utils.EnvInt("MAX_RECEIVES", cfg.MaxReceives)
	cfg.TrackingDB = utils.Env("TRACKING_DB", cfg.TrackingDB)
	rasterURL := utils.Env("RASTER_SERVICE_URL", "")

	if cfg.QueueURL == "" {
		log.Fatal("SQS_QUEUE_URL is required")
	}
	if rasterURL == "" {
		log.Fatal("RASTER_SERVICE_URL is required")
	}

	if err := store.InitDB(cfg.TrackingDB); err != nil {
		log.Fatalf("failed to init tracking db: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		log.Fatalf("failed to load AWS config: %v", err)
	}

	q := queue.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.QueueURL, queue.DefaultRedeliveryPolicy())
	cat := catalog.NewSTACClient(cfg.CatalogURL, catalog.NewRESTLoader(rasterURL))
	st := artifact.NewS3Store(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Region)

	w := worker.New(cat, geocode.NewNominatimResolver(), st, cfg)
	if err := w.Run(ctx, q); err != nil && err != context.Canceled {
		log.Fatalf("worker stopped: %v", err)
	}
}
