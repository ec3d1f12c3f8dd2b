package grpc

import "time"

// Place is a stop supplied inline with a request. OpenTime and CloseTime are
// "HH:MM" and must be given together or not at all.
type Place struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	OpenTime  string  `json:"open_time,omitempty"`
	CloseTime string  `json:"close_time,omitempty"`
}

// AnnealSchedule overrides the simulated annealing schedule. Zero fields
// keep the server defaults.
type AnnealSchedule struct {
	InitialTemp  float64 `json:"initial_temp,omitempty"`
	CoolingRate  float64 `json:"cooling_rate,omitempty"`
	StoppingTemp float64 `json:"stopping_temp,omitempty"`
}

// OptimizeRequest asks for an optimized route
type OptimizeRequest struct {
	// Places to visit. Ignored when FromDatabase is set.
	Places       []Place `json:"places,omitempty"`
	FromDatabase bool    `json:"from_database,omitempty"`

	Start         string `json:"start"`
	Algorithm     string `json:"algorithm,omitempty"`
	ReturnToStart bool   `json:"return_to_start,omitempty"`

	OpenFrom  string `json:"open_from,omitempty"`
	OpenUntil string `json:"open_until,omitempty"`

	Seed        int64           `json:"seed,omitempty"`
	TimeLimitMS int64           `json:"time_limit_ms,omitempty"`
	Anneal      *AnnealSchedule `json:"anneal,omitempty"`
}

// Stop is one place on an optimized route
type Stop struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// OptimizeResponse is an optimized route
type OptimizeResponse struct {
	Algorithm       string  `json:"algorithm"`
	Route           []Stop  `json:"route"`
	TotalDistanceKM float64 `json:"total_distance_km"`
	MaxLegKM        float64 `json:"max_leg_km"`
	MinLegKM        float64 `json:"min_leg_km"`
	AvgLegKM        float64 `json:"avg_leg_km"`
	ElapsedMS       int64   `json:"elapsed_ms"`
	TimedOut        bool    `json:"timed_out,omitempty"`
}

// SubmitOptimizationResponse acknowledges a queued job
type SubmitOptimizationResponse struct {
	JobID    string    `json:"job_id"`
	Status   string    `json:"status"`
	QueuedAt time.Time `json:"queued_at"`
}

// GetJobStatusRequest selects a job
type GetJobStatusRequest struct {
	JobID string `json:"job_id"`
}

// JobResult is the outcome of a completed job
type JobResult struct {
	Algorithm        string   `json:"algorithm"`
	Route            []string `json:"route"`
	TotalDistanceKM  float64  `json:"total_distance_km"`
	MaxLegKM         float64  `json:"max_leg_km"`
	MinLegKM         float64  `json:"min_leg_km"`
	TotalPlaces      int32    `json:"total_places"`
	TimedOut         bool     `json:"timed_out,omitempty"`
	GeoJSONPath      string   `json:"geojson_path,omitempty"`
	ProcessingTimeMS int64    `json:"processing_time_ms"`
}

// GetJobStatusResponse describes a job
type GetJobStatusResponse struct {
	JobID        string     `json:"job_id"`
	Status       string     `json:"status"`
	QueuedAt     time.Time  `json:"queued_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	Result       *JobResult `json:"result,omitempty"`
}

// ListJobsRequest filters and paginates jobs
type ListJobsRequest struct {
	Status string `json:"status,omitempty"`
	Limit  int32  `json:"limit,omitempty"`
	Offset int32  `json:"offset,omitempty"`
}

// JobSummary is a job listing entry
type JobSummary struct {
	JobID       string     `json:"job_id"`
	Status      string     `json:"status"`
	Start       string     `json:"start"`
	Algorithm   string     `json:"algorithm"`
	QueuedAt    time.Time  `json:"queued_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ListJobsResponse is a page of jobs
type ListJobsResponse struct {
	Jobs       []JobSummary `json:"jobs"`
	TotalCount int32        `json:"total_count"`
	Limit      int32        `json:"limit"`
	Offset     int32        `json:"offset"`
}
