// Package grpc implements the TourService gRPC server: synchronous route
// optimization plus asynchronous optimization jobs backed by the worker queue.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/stuartshay/tour-optimizer/internal/config"
	"github.com/stuartshay/tour-optimizer/internal/database"
	"github.com/stuartshay/tour-optimizer/internal/geojson"
	"github.com/stuartshay/tour-optimizer/internal/places"
	"github.com/stuartshay/tour-optimizer/internal/planner"
	"github.com/stuartshay/tour-optimizer/internal/queue"
	"github.com/stuartshay/tour-optimizer/internal/solver"
)

// Store is the persistence the server uses when a database is configured
type Store interface {
	GetPlaces(ctx context.Context) ([]places.Place, error)
	RecordRun(ctx context.Context, run database.Run) (int64, error)
}

// Server implements the TourService gRPC server
type Server struct {
	UnimplementedTourServiceServer
	cfg     *config.Config
	store   Store
	planner *planner.Planner
	queue   *queue.Queue
}

// NewServer creates a server. store may be nil, in which case requests must
// carry their places inline and runs are not recorded.
func NewServer(cfg *config.Config, store Store, p *planner.Planner) *Server {
	s := &Server{
		cfg:     cfg,
		store:   store,
		planner: p,
	}

	s.queue = queue.NewQueue(cfg.WorkerCount, s.processOptimizationJob)

	return s
}

// Optimize computes a route synchronously
func (s *Server) Optimize(ctx context.Context, req *OptimizeRequest) (*OptimizeResponse, error) {
	log.Info().
		Str("start", req.Start).
		Str("algorithm", req.Algorithm).
		Int("places", len(req.Places)).
		Bool("from_database", req.FromDatabase).
		Msg("Received optimize request")

	planReq, err := s.planRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	res, err := s.planner.Plan(ctx, planReq)
	if err != nil {
		return nil, statusFromError(err)
	}

	s.record(ctx, planReq.Start, res)

	return toOptimizeResponse(res), nil
}

// SubmitOptimization validates a request and queues it for a worker
func (s *Server) SubmitOptimization(ctx context.Context, req *OptimizeRequest) (*SubmitOptimizationResponse, error) {
	planReq, err := s.planRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	jobID, err := s.queue.Enqueue(planReq)
	if err != nil {
		log.Error().Err(err).Msg("Failed to enqueue job")
		if errors.Is(err, queue.ErrQueueFull) {
			return nil, status.Error(codes.ResourceExhausted, err.Error())
		}
		return nil, status.Error(codes.Unavailable, err.Error())
	}

	job, err := s.queue.GetJob(jobID)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	log.Info().Str("job_id", jobID).Str("start", planReq.Start).Msg("Optimization job queued")

	return &SubmitOptimizationResponse{
		JobID:    jobID,
		Status:   string(queue.StatusQueued),
		QueuedAt: job.QueuedAt,
	}, nil
}

// GetJobStatus returns the current status of an optimization job
func (s *Server) GetJobStatus(ctx context.Context, req *GetJobStatusRequest) (*GetJobStatusResponse, error) {
	if req.JobID == "" {
		return nil, status.Error(codes.InvalidArgument, "job_id is required")
	}

	job, err := s.queue.GetJob(req.JobID)
	if err != nil {
		return nil, status.Error(codes.NotFound, err.Error())
	}

	resp := &GetJobStatusResponse{
		JobID:        job.ID,
		Status:       string(job.Status),
		QueuedAt:     job.QueuedAt,
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
		ErrorMessage: job.ErrorMessage,
	}

	if job.Result != nil {
		resp.Result = &JobResult{
			Algorithm:        job.Result.Algorithm,
			Route:            job.Result.Route,
			TotalDistanceKM:  job.Result.TotalDistanceKM,
			MaxLegKM:         job.Result.MaxLegKM,
			MinLegKM:         job.Result.MinLegKM,
			TotalPlaces:      int32(job.Result.TotalPlaces),
			TimedOut:         job.Result.TimedOut,
			GeoJSONPath:      job.Result.GeoJSONPath,
			ProcessingTimeMS: job.Result.ProcessingTimeMS,
		}
	}

	return resp, nil
}

// ListJobs returns optimization jobs, newest first, with optional status filtering
func (s *Server) ListJobs(ctx context.Context, req *ListJobsRequest) (*ListJobsResponse, error) {
	filter := queue.JobStatus(req.Status)
	switch filter {
	case "", queue.StatusQueued, queue.StatusProcessing, queue.StatusCompleted, queue.StatusFailed:
	default:
		return nil, status.Errorf(codes.InvalidArgument, "unknown status %q", req.Status)
	}

	limit := int(req.Limit)
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	offset := int(req.Offset)
	if offset < 0 {
		return nil, status.Error(codes.InvalidArgument, "offset must not be negative")
	}

	jobs, total := s.queue.ListJobs(filter, limit, offset)

	resp := &ListJobsResponse{
		Jobs:       make([]JobSummary, 0, len(jobs)),
		TotalCount: int32(total),
		Limit:      int32(limit),
		Offset:     int32(offset),
	}

	for _, job := range jobs {
		resp.Jobs = append(resp.Jobs, JobSummary{
			JobID:       job.ID,
			Status:      string(job.Status),
			Start:       job.Request.Start,
			Algorithm:   string(job.Request.Algorithm),
			QueuedAt:    job.QueuedAt,
			CompletedAt: job.CompletedAt,
		})
	}

	return resp, nil
}

// Shutdown gracefully shuts down the job workers
func (s *Server) Shutdown(timeout time.Duration) error {
	return s.queue.Shutdown(timeout)
}

// processOptimizationJob is the worker function for queued optimizations
func (s *Server) processOptimizationJob(ctx context.Context, job *queue.Job) (*queue.JobResult, error) {
	log.Info().
		Str("job_id", job.ID).
		Str("start", job.Request.Start).
		Str("algorithm", string(job.Request.Algorithm)).
		Msg("Processing optimization job")

	res, err := s.planner.Plan(ctx, job.Request)
	if err != nil {
		return nil, err
	}

	geoPath := filepath.Join(filepath.Dir(s.cfg.GeoJSONOutputPath), fmt.Sprintf("route_%s.geojson", job.ID))
	if err := geojson.WriteRoute(geoPath, res.Stops); err != nil {
		return nil, fmt.Errorf("GeoJSON export failed: %w", err)
	}

	s.record(ctx, job.Request.Start, res)

	return &queue.JobResult{
		Algorithm:       string(res.Algorithm),
		Route:           res.RouteNames(),
		TotalDistanceKM: res.TotalDistanceKM,
		MaxLegKM:        res.Legs.MaxLegKM,
		MinLegKM:        res.Legs.MinLegKM,
		TotalPlaces:     len(res.Candidates),
		TimedOut:        res.TimedOut,
		GeoJSONPath:     geoPath,
	}, nil
}

// planRequest turns a wire request into a planner request, filling in the
// configured defaults. Errors are gRPC status errors.
func (s *Server) planRequest(ctx context.Context, req *OptimizeRequest) (planner.Request, error) {
	if req.Start == "" {
		return planner.Request{}, status.Error(codes.InvalidArgument, "start is required")
	}

	algorithmName := req.Algorithm
	if algorithmName == "" {
		algorithmName = s.cfg.Algorithm
	}
	algorithm, err := planner.ParseAlgorithm(algorithmName)
	if err != nil {
		return planner.Request{}, status.Error(codes.InvalidArgument, err.Error())
	}

	var list []places.Place
	if req.FromDatabase {
		if s.store == nil {
			return planner.Request{}, status.Error(codes.FailedPrecondition, "database is not configured")
		}
		list, err = s.store.GetPlaces(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to fetch places from database")
			return planner.Request{}, status.Errorf(codes.Unavailable, "database query failed: %v", err)
		}
	} else {
		list, err = toPlaces(req.Places)
		if err != nil {
			return planner.Request{}, status.Error(codes.InvalidArgument, err.Error())
		}
	}

	planReq := planner.Request{
		Places:        list,
		Start:         req.Start,
		Algorithm:     algorithm,
		ReturnToStart: req.ReturnToStart,
		Seed:          s.cfg.AnnealSeed,
		TimeLimit:     s.cfg.SolverTimeLimit,
		Anneal: planner.AnnealParams{
			InitialTemp:  s.cfg.AnnealInitialTemp,
			CoolingRate:  s.cfg.AnnealCoolingRate,
			StoppingTemp: s.cfg.AnnealStopTemp,
		},
	}

	if req.Seed != 0 {
		planReq.Seed = req.Seed
	}
	if req.TimeLimitMS < 0 {
		return planner.Request{}, status.Error(codes.InvalidArgument, "time_limit_ms must not be negative")
	}
	if req.TimeLimitMS > 0 {
		planReq.TimeLimit = time.Duration(req.TimeLimitMS) * time.Millisecond
	}
	if a := req.Anneal; a != nil {
		if a.InitialTemp > 0 {
			planReq.Anneal.InitialTemp = a.InitialTemp
		}
		if a.CoolingRate > 0 {
			planReq.Anneal.CoolingRate = a.CoolingRate
		}
		if a.StoppingTemp > 0 {
			planReq.Anneal.StoppingTemp = a.StoppingTemp
		}
	}

	if (req.OpenFrom == "") != (req.OpenUntil == "") {
		return planner.Request{}, status.Error(codes.InvalidArgument, "open_from and open_until must be given together")
	}
	if req.OpenFrom != "" {
		window, err := places.ParseWindow(req.OpenFrom, req.OpenUntil)
		if err != nil {
			return planner.Request{}, status.Error(codes.InvalidArgument, err.Error())
		}
		planReq.Window = &window
	}

	return planReq, nil
}

// record stores a finished run when a database is configured. Failures are
// logged and do not fail the request.
func (s *Server) record(ctx context.Context, start string, res *planner.Result) {
	if s.store == nil {
		return
	}

	id, err := s.store.RecordRun(ctx, database.Run{
		Algorithm:  string(res.Algorithm),
		StartPlace: start,
		Places:     len(res.Candidates),
		DistanceKM: res.TotalDistanceKM,
		ElapsedMS:  res.Elapsed.Milliseconds(),
		TimedOut:   res.TimedOut,
		Route:      res.RouteNames(),
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to record optimization run")
		return
	}
	log.Debug().Int64("run_id", id).Msg("Optimization run recorded")
}

func toPlaces(in []Place) ([]places.Place, error) {
	list := make([]places.Place, 0, len(in))
	for i, p := range in {
		if p.Name == "" {
			return nil, fmt.Errorf("place %d: name is required", i)
		}
		place := places.Place{
			Name:      p.Name,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
		}
		if (p.OpenTime == "") != (p.CloseTime == "") {
			return nil, fmt.Errorf("place %q: open_time and close_time must be given together", p.Name)
		}
		if p.OpenTime != "" {
			var err error
			if place.OpenTime, err = places.ParseTimeOfDay(p.OpenTime); err != nil {
				return nil, fmt.Errorf("place %q: %w", p.Name, err)
			}
			if place.CloseTime, err = places.ParseTimeOfDay(p.CloseTime); err != nil {
				return nil, fmt.Errorf("place %q: %w", p.Name, err)
			}
			place.HasHours = true
		}
		list = append(list, place)
	}
	return list, nil
}

func toOptimizeResponse(res *planner.Result) *OptimizeResponse {
	resp := &OptimizeResponse{
		Algorithm:       string(res.Algorithm),
		Route:           make([]Stop, len(res.Stops)),
		TotalDistanceKM: res.TotalDistanceKM,
		MaxLegKM:        res.Legs.MaxLegKM,
		MinLegKM:        res.Legs.MinLegKM,
		AvgLegKM:        res.Legs.AvgLegKM,
		ElapsedMS:       res.Elapsed.Milliseconds(),
		TimedOut:        res.TimedOut,
	}
	for i, stop := range res.Stops {
		resp.Route[i] = Stop{Name: stop.Name, Latitude: stop.Latitude, Longitude: stop.Longitude}
	}
	return resp
}

// statusFromError maps planner and solver errors to gRPC status codes.
func statusFromError(err error) error {
	switch {
	case errors.Is(err, planner.ErrStartNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, planner.ErrNotEnoughPlaces),
		errors.Is(err, planner.ErrNoneOpen):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, planner.ErrUnknownAlgorithm),
		errors.Is(err, solver.ErrInvalidInput),
		errors.Is(err, solver.ErrIndexOutOfRange),
		errors.Is(err, solver.ErrMalformedMatrix):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
