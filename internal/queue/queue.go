// Package queue runs tour optimization jobs asynchronously on an in-memory
// worker pool and tracks their lifecycle.
package queue

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/stuartshay/tour-optimizer/internal/planner"
)

// DefaultCapacity is the number of jobs that may wait for a worker.
const DefaultCapacity = 100

// Queue errors.
var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is shut down")
	ErrJobNotFound = errors.New("job not found")
)

// JobStatus represents the state of an optimization job
type JobStatus string

// Job status constants define the lifecycle states
const (
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Job is one queued optimization request
type Job struct {
	ID           string
	Request      planner.Request
	Status       JobStatus
	QueuedAt     time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	ErrorMessage string
	Result       *JobResult
}

// JobResult is the output of a completed optimization
type JobResult struct {
	Algorithm        string
	Route            []string
	TotalDistanceKM  float64
	MaxLegKM         float64
	MinLegKM         float64
	TotalPlaces      int
	TimedOut         bool
	GeoJSONPath      string
	ProcessingTimeMS int64
}

// ProcessFunc runs a job and returns its result
type ProcessFunc func(ctx context.Context, job *Job) (*JobResult, error)

// Queue manages optimization jobs with a worker pool
type Queue struct {
	mu           sync.RWMutex
	jobs         map[string]*Job
	pendingQueue chan *Job
	workers      int
	processor    ProcessFunc
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// NewQueue creates a job queue with the given number of workers and
// DefaultCapacity pending slots
func NewQueue(workers int, processor ProcessFunc) *Queue {
	return NewQueueWithCapacity(workers, DefaultCapacity, processor)
}

// NewQueueWithCapacity creates a job queue holding at most capacity pending jobs
func NewQueueWithCapacity(workers, capacity int, processor ProcessFunc) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		jobs:         make(map[string]*Job),
		pendingQueue: make(chan *Job, capacity),
		workers:      workers,
		processor:    processor,
		ctx:          ctx,
		cancel:       cancel,
	}

	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}

	return q
}

// Enqueue adds an optimization request and returns its job ID
func (q *Queue) Enqueue(req planner.Request) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.ctx.Err() != nil {
		return "", ErrQueueClosed
	}

	job := &Job{
		ID:       uuid.New().String(),
		Request:  req,
		Status:   StatusQueued,
		QueuedAt: time.Now().UTC(),
	}

	select {
	case q.pendingQueue <- job:
		q.jobs[job.ID] = job
		return job.ID, nil
	default:
		return "", ErrQueueFull
	}
}

// GetJob returns a snapshot of the job with the given ID
func (q *Queue) GetJob(jobID string) (*Job, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	job, exists := q.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	return snapshot(job), nil
}

// ListJobs returns jobs with the given status (all when empty), newest first,
// together with the number of matching jobs before pagination
func (q *Queue) ListJobs(status JobStatus, limit, offset int) ([]*Job, int) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var filtered []*Job
	for _, job := range q.jobs {
		if status == "" || job.Status == status {
			filtered = append(filtered, job)
		}
	}

	slices.SortFunc(filtered, func(a, b *Job) int {
		if c := b.QueuedAt.Compare(a.QueuedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	total := len(filtered)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []*Job{}, total
	}

	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}

	page := make([]*Job, 0, end-offset)
	for _, job := range filtered[offset:end] {
		page = append(page, snapshot(job))
	}
	return page, total
}

// GetStats returns job counts by status
func (q *Queue) GetStats() map[string]int {
	q.mu.RLock()
	defer q.mu.RUnlock()

	stats := map[string]int{
		"total":      len(q.jobs),
		"queued":     0,
		"processing": 0,
		"completed":  0,
		"failed":     0,
	}

	for _, job := range q.jobs {
		stats[string(job.Status)]++
	}

	return stats
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()

	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.pendingQueue:
			log.Debug().Int("worker", id).Str("job_id", job.ID).Msg("Picked up job")
			q.processJob(job)
		}
	}
}

func (q *Queue) processJob(job *Job) {
	startTime := time.Now()

	q.mu.Lock()
	job.Status = StatusProcessing
	now := startTime.UTC()
	job.StartedAt = &now
	snap := snapshot(job)
	q.mu.Unlock()

	result, err := q.processor(q.ctx, snap)

	q.mu.Lock()
	defer q.mu.Unlock()

	completedAt := time.Now().UTC()
	job.CompletedAt = &completedAt

	if err != nil {
		job.Status = StatusFailed
		job.ErrorMessage = err.Error()
		log.Error().Err(err).Str("job_id", job.ID).Msg("Optimization job failed")
		return
	}

	job.Status = StatusCompleted
	job.Result = result
	if result != nil {
		result.ProcessingTimeMS = time.Since(startTime).Milliseconds()
	}
	log.Info().Str("job_id", job.ID).Dur("duration", time.Since(startTime)).Msg("Optimization job completed")
}

// Shutdown stops the workers, waiting up to timeout for running jobs
func (q *Queue) Shutdown(timeout time.Duration) error {
	q.mu.Lock()
	q.cancel()
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timeout exceeded")
	}
}

// snapshot copies job so callers cannot race with workers. Callers hold q.mu.
func snapshot(job *Job) *Job {
	c := *job
	if job.StartedAt != nil {
		started := *job.StartedAt
		c.StartedAt = &started
	}
	if job.CompletedAt != nil {
		completed := *job.CompletedAt
		c.CompletedAt = &completed
	}
	if job.Result != nil {
		result := *job.Result
		result.Route = slices.Clone(job.Result.Route)
		c.Result = &result
	}
	return &c
}
