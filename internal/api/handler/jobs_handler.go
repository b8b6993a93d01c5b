package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"go-lake-pipeline/internal/store"
)

// ListJobs retrieves all tracked lake jobs
// @Summary List all jobs
// @Description Get all lake processing jobs with their current status and artifact URL
// @Tags jobs
// @Accept json
// @Produce json
// @Success 200 {array} map[string]interface{} "List of jobs"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /jobs [get]
func ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := store.ListJobs()
	if err != nil {
		http.Error(w, "Failed to fetch jobs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(jobs)
}

// GetJob retrieves one job
// @Summary Get job
// @Description Retrieve status and artifact URL of a single lake job
// @Tags jobs
// @Accept json
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]interface{} "Job details"
// @Failure 404 {object} map[string]interface{} "Job not found"
// @Router /jobs/{id} [get]
func GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := pathSegment(r.URL.Path, 3)
	if jobID == "" {
		http.Error(w, "Missing job ID", http.StatusBadRequest)
		return
	}

	job, err := store.GetJob(jobID)
	if err != nil {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job)
}

// GetJobStates retrieves a job's state transitions
// @Summary Get job states
// @Description List the worker state-machine transitions recorded for a job
// @Tags jobs
// @Accept json
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {array} map[string]interface{} "State transitions"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /jobs/{id}/states [get]
func GetJobStates(w http.ResponseWriter, r *http.Request) {
	jobID := pathSegment(r.URL.Path, 3)
	states, err := store.GetJobStates(jobID)
	if err != nil {
		http.Error(w, "Failed to fetch job states", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(states)
}

// GetJobErrors retrieves the errors recorded for a job
// @Summary Get job errors
// @Description List the errors recorded for a job across all deliveries
// @Tags jobs
// @Accept json
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {array} map[string]interface{} "Errors"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /jobs/{id}/errors [get]
func GetJobErrors(w http.ResponseWriter, r *http.Request) {
	jobID := pathSegment(r.URL.Path, 3)
	errs, err := store.GetJobErrors(jobID)
	if err != nil {
		http.Error(w, "Failed to fetch job errors", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(errs)
}

// pathSegment returns the nth slash-separated segment of the path
// (0 = first segment after the leading slash)
func pathSegment(path string, n int) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if n >= len(segments) {
		return ""
	}
	return segments[n]
}
