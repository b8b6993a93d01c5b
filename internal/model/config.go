package model

import "time"

// ProducerConfig holds everything the job producer needs, resolved once at
// process start instead of read from the environment mid-computation
type ProducerConfig struct {
	QueueURL    string      `json:"queue_url"`
	SourceURL   string      `json:"source_url"` // GeoJSON path or URL
	IDField     string      `json:"id_field"`   // feature property holding the source id, e.g. "ne_id"
	Dataset     DatasetKind `json:"dataset"`
	StartDate   string      `json:"start_date"`
	EndDate     string      `json:"end_date"`
	TrackingDB  string      `json:"tracking_db"`
}

// WorkerConfig holds the worker's resolved settings
type WorkerConfig struct {
	QueueURL       string        `json:"queue_url"`
	Bucket         string        `json:"bucket"`
	Region         string        `json:"region"`
	CatalogURL     string        `json:"catalog_url"`
	CRS            string        `json:"crs"`
	CatalogTimeout time.Duration `json:"catalog_timeout"`
	MaxReceives    int           `json:"max_receives"` // dead-letter threshold
	TrackingDB     string        `json:"tracking_db"`
}

// Defaults matching the original deployment; callers overlay env values on top
const (
	DefaultStartDate  = "2019-01-01"
	DefaultCatalogURL = "https://explorer.digitalearth.africa/stac"
	DefaultCRS        = "EPSG:6933"
	DefaultRegion     = "af-south-1"
	DefaultIDField    = "ne_id"
)

// DefaultWorkerConfig returns a config with the deployment defaults filled in
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		Region:         DefaultRegion,
		CatalogURL:     DefaultCatalogURL,
		CRS:            DefaultCRS,
		CatalogTimeout: 10 * time.Minute,
		MaxReceives:    5,
		TrackingDB:     "lakes.db",
	}
}

// DefaultProducerConfig returns a config with the deployment defaults filled in
func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		IDField:    DefaultIDField,
		Dataset:    RollingComposite,
		StartDate:  DefaultStartDate,
		EndDate:    time.Now().Format("2006-01-02"),
		TrackingDB: "lakes.db",
	}
}
