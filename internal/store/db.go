package store

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"go-lake-pipeline/internal/model"
)

var db *sql.DB

// Initialize DB connection
func InitDB(dbPath string) error {
	var err error
	db, err = sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}

	// Create tables if not exists
	jobTable := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		name TEXT,
		dataset TEXT,
		status TEXT,
		artifact_url TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);
	`
	stateTable := `
	CREATE TABLE IF NOT EXISTS job_states (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT,
		state TEXT,
		detail TEXT,
		created_at DATETIME
	);
	`
	errorTable := `
	CREATE TABLE IF NOT EXISTS job_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT,
		error_message TEXT,
		created_at DATETIME
	);
	`

	for _, stmt := range []string{jobTable, stateTable, errorTable} {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

// SaveJob registers a job; a redelivered job keeps its original row
func SaveJob(job model.Job) error {
	now := time.Now().UTC()
	_, err := db.Exec(`INSERT INTO jobs (id, name, dataset, status, artifact_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, '', ?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at`,
		job.ID, job.Name, string(job.Dataset), "pending", now, now)
	return err
}

// UpdateJobStatus updates the coarse job status (pending/processing/done/skipped/failed/dead_letter)
func UpdateJobStatus(jobID string, status string) error {
	now := time.Now().UTC()
	_, err := db.Exec(`UPDATE jobs SET status = ?, updated_at = ? WHERE id = ?`, status, now, jobID)
	return err
}

// SetArtifactURL records the canonical output URL once a job persists
func SetArtifactURL(jobID, url string) error {
	now := time.Now().UTC()
	_, err := db.Exec(`UPDATE jobs SET artifact_url = ?, updated_at = ? WHERE id = ?`, url, now, jobID)
	return err
}

// SaveJobState appends one state-machine transition for a job
func SaveJobState(jobID, state, detail string) error {
	now := time.Now().UTC()
	_, err := db.Exec(`INSERT INTO job_states (job_id, state, detail, created_at) VALUES (?, ?, ?, ?)`,
		jobID, state, detail, now)
	return err
}

// SaveJobError records an error for a job
func SaveJobError(jobID string, err error) error {
	if err == nil {
		return nil
	}
	now := time.Now().UTC()
	_, e := db.Exec(`INSERT INTO job_errors (job_id, error_message, created_at) VALUES (?, ?, ?)`,
		jobID, err.Error(), now)
	return e
}

// ListJobs returns all jobs with basic info
func ListJobs() ([]map[string]interface{}, error) {
	rows, err := db.Query(`SELECT id, name, dataset, status, artifact_url, created_at, updated_at FROM jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []map[string]interface{}
	for rows.Next() {
		var id, name, dataset, status, artifactURL string
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&id, &name, &dataset, &status, &artifactURL, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, map[string]interface{}{
			"id":          id,
			"name":        name,
			"dataset":     dataset,
			"status":      status,
			"artifactUrl": artifactURL,
			"createdAt":   createdAt,
			"updatedAt":   updatedAt,
		})
	}
	return jobs, nil
}

// GetJob fetches one job row
func GetJob(jobID string) (map[string]interface{}, error) {
	var name, dataset, status, artifactURL string
	var createdAt, updatedAt time.Time

	err := db.QueryRow(`SELECT name, dataset, status, artifact_url, created_at, updated_at FROM jobs WHERE id = ?`, jobID).
		Scan(&name, &dataset, &status, &artifactURL, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"id":          jobID,
		"name":        name,
		"dataset":     dataset,
		"status":      status,
		"artifactUrl": artifactURL,
		"createdAt":   createdAt,
		"updatedAt":   updatedAt,
	}, nil
}

// GetJobStates lists a job's state transitions in order
func GetJobStates(jobID string) ([]map[string]interface{}, error) {
	rows, err := db.Query(`SELECT state, detail, created_at FROM job_states WHERE job_id = ? ORDER BY id`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []map[string]interface{}
	for rows.Next() {
		var state, detail string
		var createdAt time.Time
		if err := rows.Scan(&state, &detail, &createdAt); err != nil {
			return nil, err
		}
		states = append(states, map[string]interface{}{
			"state":     state,
			"detail":    detail,
			"createdAt": createdAt,
		})
	}
	return states, nil
}

// GetJobErrors lists the recorded errors for a job
func GetJobErrors(jobID string) ([]map[string]interface{}, error) {
	rows, err := db.Query(`SELECT error_message, created_at FROM job_errors WHERE job_id = ? ORDER BY id`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var errs []map[string]interface{}
	for rows.Next() {
		var msg string
		var createdAt time.Time
		if err := rows.Scan(&msg, &createdAt); err != nil {
			return nil, err
		}
		errs = append(errs, map[string]interface{}{
			"error":     msg,
			"createdAt": createdAt,
		})
	}
	return errs, nil
}
