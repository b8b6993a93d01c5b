package api

import (
	httpSwagger "github.com/swaggo/http-swagger"

	"go-lake-pipeline/internal/api/handler"
	"go-lake-pipeline/pkg/router"
)

func RegisterRoutes(r *router.Router) {
	r.GET("/api/v1/jobs", handler.ListJobs)
	// More specific routes first
	r.GET("/api/v1/jobs/*/states", handler.GetJobStates)
	r.GET("/api/v1/jobs/*/errors", handler.GetJobErrors)
	// Generic job route last
	r.GET("/api/v1/jobs/*", handler.GetJob)

	r.GET("/swagger/*", router.HandlerFunc(httpSwagger.WrapHandler))
}
