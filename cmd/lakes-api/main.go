package main

import (
	"log"

	"go-lake-pipeline/internal/api"
	"go-lake-pipeline/internal/store"
	"go-lake-pipeline/pkg/router"
	"go-lake-pipeline/pkg/utils"
)

func main() {
	// Init DB
	if err := store.InitDB(utils.Env("TRACKING_DB", "lakes.db")); err != nil {
		log.Fatalf("failed to init tracking db: %v", err)
	}

	// Create router
	r := router.New()

	// Register API routes
	api.RegisterRoutes(r)

	// Start server
	r.Start(utils.Env("LISTEN_ADDR", ":8080"))
}
