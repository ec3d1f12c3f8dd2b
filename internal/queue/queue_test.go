package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stuartshay/tour-optimizer/internal/planner"
)

func request(start string) planner.Request {
	return planner.Request{Start: start, Algorithm: planner.TwoOpt}
}

// waitForStatus polls until the job reaches status or the deadline passes.
func waitForStatus(t *testing.T, q *Queue, jobID string, status JobStatus) *Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		job, err := q.GetJob(jobID)
		if err != nil {
			t.Fatalf("GetJob() failed: %v", err)
		}
		if job.Status == status {
			return job
		}
		if time.Now().After(deadline) {
			t.Fatalf("job %s stuck in status %s, expected %s", jobID, job.Status, status)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewQueue(t *testing.T) {
	processor := func(_ context.Context, _ *Job) (*JobResult, error) {
		return &JobResult{}, nil
	}

	q := NewQueue(3, processor)
	defer func() { _ = q.Shutdown(time.Second) }()

	if q.workers != 3 {
		t.Errorf("expected 3 workers, got %d", q.workers)
	}
	if cap(q.pendingQueue) != DefaultCapacity {
		t.Errorf("expected capacity %d, got %d", DefaultCapacity, cap(q.pendingQueue))
	}
	if len(q.jobs) != 0 {
		t.Errorf("expected empty jobs map, got %d jobs", len(q.jobs))
	}
}

func TestEnqueue(t *testing.T) {
	processor := func(_ context.Context, _ *Job) (*JobResult, error) {
		return &JobResult{}, nil
	}

	q := NewQueue(1, processor)
	defer func() { _ = q.Shutdown(time.Second) }()

	jobID, err := q.Enqueue(request("Central Park"))
	if err != nil {
		t.Fatalf("Enqueue() failed: %v", err)
	}
	if jobID == "" {
		t.Error("expected non-empty job ID")
	}

	job, err := q.GetJob(jobID)
	if err != nil {
		t.Fatalf("GetJob() failed: %v", err)
	}
	if job.Request.Start != "Central Park" {
		t.Errorf("expected start 'Central Park', got '%s'", job.Request.Start)
	}
	if job.QueuedAt.IsZero() {
		t.Error("expected QueuedAt to be set")
	}
}

func TestEnqueue_Full(t *testing.T) {
	processor := func(_ context.Context, _ *Job) (*JobResult, error) {
		return &JobResult{}, nil
	}

	// No workers, so nothing drains the single slot.
	q := NewQueueWithCapacity(0, 1, processor)
	defer func() { _ = q.Shutdown(time.Second) }()

	if _, err := q.Enqueue(request("A")); err != nil {
		t.Fatalf("Enqueue() failed: %v", err)
	}
	if _, err := q.Enqueue(request("B")); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
	if stats := q.GetStats(); stats["total"] != 1 {
		t.Errorf("expected rejected job to be dropped, got total %d", stats["total"])
	}
}

func TestEnqueue_AfterShutdown(t *testing.T) {
	q := NewQueue(1, func(_ context.Context, _ *Job) (*JobResult, error) { return nil, nil })
	if err := q.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}

	if _, err := q.Enqueue(request("A")); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("expected ErrQueueClosed, got %v", err)
	}
}

func TestGetJob_NotFound(t *testing.T) {
	q := NewQueue(1, func(_ context.Context, _ *Job) (*JobResult, error) { return nil, nil })
	defer func() { _ = q.Shutdown(time.Second) }()

	_, err := q.GetJob("non-existent-id")
	if !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestListJobs(t *testing.T) {
	release := make(chan struct{})
	processor := func(_ context.Context, _ *Job) (*JobResult, error) {
		<-release
		return &JobResult{}, nil
	}

	q := NewQueue(1, processor)
	defer func() { _ = q.Shutdown(time.Second) }()
	defer close(release)

	var ids []string
	for _, start := range []string{"A", "B", "C"} {
		id, err := q.Enqueue(request(start))
		if err != nil {
			t.Fatalf("Enqueue() failed: %v", err)
		}
		ids = append(ids, id)
		time.Sleep(time.Millisecond)
	}

	jobs, total := q.ListJobs("", 10, 0)
	if total != 3 || len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d (total %d)", len(jobs), total)
	}
	if jobs[0].ID != ids[2] || jobs[2].ID != ids[0] {
		t.Error("expected jobs ordered newest first")
	}

	jobs, total = q.ListJobs("", 1, 1)
	if len(jobs) != 1 || total != 3 {
		t.Errorf("expected 1 job of 3 with limit=1, got %d of %d", len(jobs), total)
	}
	if jobs[0].ID != ids[1] {
		t.Errorf("expected second newest job, got %s", jobs[0].ID)
	}

	jobs, _ = q.ListJobs("", 10, 100)
	if len(jobs) != 0 {
		t.Errorf("expected 0 jobs with offset=100, got %d", len(jobs))
	}

	jobs, total = q.ListJobs(StatusCompleted, 10, 0)
	if len(jobs) != 0 || total != 0 {
		t.Errorf("expected no completed jobs, got %d", total)
	}
}

func TestProcessJob_Success(t *testing.T) {
	var processorCalled atomic.Bool
	processor := func(_ context.Context, job *Job) (*JobResult, error) {
		processorCalled.Store(true)
		if job.Status != StatusProcessing {
			t.Errorf("expected processor to see 'processing', got '%s'", job.Status)
		}
		return &JobResult{
			Algorithm:       string(job.Request.Algorithm),
			Route:           []string{job.Request.Start, "Empire State Building"},
			TotalDistanceKM: 25.5,
			TotalPlaces:     2,
		}, nil
	}

	q := NewQueue(1, processor)
	defer func() { _ = q.Shutdown(time.Second) }()

	jobID, _ := q.Enqueue(request("Statue of Liberty"))
	job := waitForStatus(t, q, jobID, StatusCompleted)

	if !processorCalled.Load() {
		t.Error("expected processor to be called")
	}
	if job.Result == nil {
		t.Fatal("expected non-nil result")
	}
	if job.Result.TotalDistanceKM != 25.5 {
		t.Errorf("expected TotalDistanceKM 25.5, got %.2f", job.Result.TotalDistanceKM)
	}
	if job.Result.Algorithm != "2opt" {
		t.Errorf("expected algorithm '2opt', got '%s'", job.Result.Algorithm)
	}
	if job.StartedAt == nil || job.CompletedAt == nil {
		t.Error("expected StartedAt and CompletedAt to be set")
	}

	// Snapshots are independent copies.
	job.Result.Route[0] = "mutated"
	again, _ := q.GetJob(jobID)
	if again.Result.Route[0] != "Statue of Liberty" {
		t.Error("expected GetJob to return a copy of the route")
	}
}

func TestProcessJob_Failure(t *testing.T) {
	processor := func(_ context.Context, _ *Job) (*JobResult, error) {
		return nil, errors.New("processing failed")
	}

	q := NewQueue(1, processor)
	defer func() { _ = q.Shutdown(time.Second) }()

	jobID, _ := q.Enqueue(request("A"))
	job := waitForStatus(t, q, jobID, StatusFailed)

	if job.ErrorMessage != "processing failed" {
		t.Errorf("expected error message 'processing failed', got '%s'", job.ErrorMessage)
	}
	if job.Result != nil {
		t.Error("expected no result for a failed job")
	}
}

func TestGetStats(t *testing.T) {
	processor := func(_ context.Context, job *Job) (*JobResult, error) {
		if job.Request.Start == "bad" {
			return nil, errors.New("start not found")
		}
		return &JobResult{}, nil
	}

	q := NewQueue(1, processor)
	defer func() { _ = q.Shutdown(time.Second) }()

	ok, _ := q.Enqueue(request("good"))
	bad, _ := q.Enqueue(request("bad"))
	waitForStatus(t, q, ok, StatusCompleted)
	waitForStatus(t, q, bad, StatusFailed)

	stats := q.GetStats()
	if stats["total"] != 2 || stats["completed"] != 1 || stats["failed"] != 1 {
		t.Errorf("unexpected stats: %v", stats)
	}
}

func TestShutdown(t *testing.T) {
	q := NewQueue(3, func(_ context.Context, _ *Job) (*JobResult, error) { return &JobResult{}, nil })

	if err := q.Shutdown(time.Second); err != nil {
		t.Errorf("Shutdown() failed: %v", err)
	}

	select {
	case <-q.ctx.Done():
	default:
		t.Error("expected context to be canceled")
	}
}

func TestShutdown_Timeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	q := NewQueue(1, func(_ context.Context, _ *Job) (*JobResult, error) {
		<-block
		return &JobResult{}, nil
	})

	jobID, _ := q.Enqueue(request("A"))
	waitForStatus(t, q, jobID, StatusProcessing)

	if err := q.Shutdown(10 * time.Millisecond); err == nil {
		t.Error("expected shutdown timeout error")
	}
}
