// Package planner turns a list of places into an optimized visiting order.
// It filters by opening hours, resolves the start place, builds the haversine
// distance matrix and runs the selected solver under an optional time limit.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stuartshay/tour-optimizer/internal/calculator"
	"github.com/stuartshay/tour-optimizer/internal/metrics"
	"github.com/stuartshay/tour-optimizer/internal/places"
	"github.com/stuartshay/tour-optimizer/internal/solver"
	"github.com/stuartshay/tour-optimizer/internal/tracing"
)

// Algorithm selects how the greedy tour is improved.
type Algorithm string

// Supported algorithms.
const (
	Greedy             Algorithm = "greedy"
	TwoOpt             Algorithm = "2opt"
	SimulatedAnnealing Algorithm = "simulated-annealing"
)

// Algorithms lists the supported algorithms in display order.
var Algorithms = []Algorithm{Greedy, TwoOpt, SimulatedAnnealing}

// Planner errors.
var (
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
	ErrNotEnoughPlaces  = errors.New("need at least 2 places to compute a route")
	ErrNoneOpen         = errors.New("not enough places open during the selected time window")
	ErrStartNotFound    = errors.New("start location not found")
)

// ParseAlgorithm validates s. An empty string selects Greedy.
func ParseAlgorithm(s string) (Algorithm, error) {
	if s == "" {
		return Greedy, nil
	}
	for _, a := range Algorithms {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q (choose greedy, 2opt or simulated-annealing)", ErrUnknownAlgorithm, s)
}

// AnnealParams overrides the annealing schedule. Zero fields keep the defaults.
type AnnealParams struct {
	InitialTemp  float64
	CoolingRate  float64
	StoppingTemp float64
}

// Request describes one optimization.
type Request struct {
	Places    []places.Place
	Start     string
	Algorithm Algorithm

	// ReturnToStart closes the route back at the start place.
	ReturnToStart bool

	// Window, when set, keeps only places open for the whole window.
	Window *places.Window

	// Seed drives simulated annealing; 0 picks a time-based seed.
	Seed   int64
	Anneal AnnealParams

	// TimeLimit bounds the improvement phase; 0 means no limit. When it
	// expires the best tour found so far is returned and Result.TimedOut is set.
	TimeLimit time.Duration
}

// Result is an optimized route.
type Result struct {
	Algorithm Algorithm

	// Order holds indices into Candidates in visiting order.
	Order      solver.Tour
	Candidates []places.Place
	Stops      []places.Place

	TotalDistanceKM float64
	Legs            calculator.DistanceMetrics
	Elapsed         time.Duration
	TimedOut        bool
}

// RouteNames returns the stop names in visiting order.
func (r *Result) RouteNames() []string {
	names := make([]string, len(r.Stops))
	for i, stop := range r.Stops {
		names[i] = stop.Name
	}
	return names
}

// Planner runs optimizations and reports them to the metrics collector.
type Planner struct {
	metrics *metrics.Collector
	tracer  trace.Tracer
}

// New returns a Planner. collector may be nil.
func New(collector *metrics.Collector) *Planner {
	return &Planner{
		metrics: collector,
		tracer:  tracing.Tracer(),
	}
}

// Plan runs req and returns the optimized route.
func (p *Planner) Plan(ctx context.Context, req Request) (*Result, error) {
	algorithm, err := ParseAlgorithm(string(req.Algorithm))
	if err != nil {
		return nil, err
	}

	ctx, span := p.tracer.Start(ctx, "planner.Plan", trace.WithAttributes(
		attribute.String("tour.algorithm", string(algorithm)),
		attribute.Int("tour.places", len(req.Places)),
		attribute.Bool("tour.return_to_start", req.ReturnToStart),
	))
	defer span.End()

	result, err := p.plan(ctx, algorithm, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.metrics.ObserveRun(string(algorithm), len(req.Places), 0, 0, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Float64("tour.distance_km", result.TotalDistanceKM),
		attribute.Bool("tour.timed_out", result.TimedOut),
	)
	p.metrics.ObserveRun(string(algorithm), len(result.Candidates), result.TotalDistanceKM, result.Elapsed, nil)

	log.Info().
		Str("algorithm", string(algorithm)).
		Int("places", len(result.Candidates)).
		Float64("total_distance_km", result.TotalDistanceKM).
		Dur("elapsed", result.Elapsed).
		Bool("timed_out", result.TimedOut).
		Msg("Route optimized")

	return result, nil
}

func (p *Planner) plan(ctx context.Context, algorithm Algorithm, req Request) (*Result, error) {
	candidates := req.Places
	if len(candidates) < 2 {
		return nil, ErrNotEnoughPlaces
	}

	if req.Window != nil {
		candidates = places.FilterOpen(candidates, *req.Window)
		log.Debug().
			Str("open_from", req.Window.From.String()).
			Str("open_until", req.Window.Until.String()).
			Int("open_places", len(candidates)).
			Msg("Applied time window")
		if len(candidates) < 2 {
			return nil, ErrNoneOpen
		}
	}

	start, ok := places.IndexOf(candidates, req.Start)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrStartNotFound, req.Start)
	}

	_, matrixSpan := p.tracer.Start(ctx, "planner.matrix")
	m := solver.Matrix(calculator.BuildMatrix(places.Locations(candidates)))
	matrixSpan.End()

	began := time.Now()

	_, constructSpan := p.tracer.Start(ctx, "planner.construct")
	tour, err := solver.Greedy(start, m)
	constructSpan.End()
	if err != nil {
		return nil, fmt.Errorf("greedy construction failed: %w", err)
	}

	tour, timedOut, err := p.improve(ctx, algorithm, req, tour, m)
	if err != nil {
		return nil, err
	}

	if req.ReturnToStart {
		tour = tour.Close()
	}

	elapsed := time.Since(began)

	total, err := solver.TourCost(tour, m)
	if err != nil {
		return nil, fmt.Errorf("failed to score tour: %w", err)
	}

	stops := make([]places.Place, len(tour))
	for i, idx := range tour {
		stops[i] = candidates[idx]
	}

	return &Result{
		Algorithm:       algorithm,
		Order:           tour,
		Candidates:      candidates,
		Stops:           stops,
		TotalDistanceKM: total,
		Legs:            calculator.CalculateMetrics(places.Locations(stops)),
		Elapsed:         elapsed,
		TimedOut:        timedOut,
	}, nil
}

// improve runs the improver for algorithm. A deadline hit during improvement
// keeps the best tour found so far.
func (p *Planner) improve(ctx context.Context, algorithm Algorithm, req Request, tour solver.Tour, m solver.Matrix) (solver.Tour, bool, error) {
	if algorithm == Greedy {
		return tour, false, nil
	}

	if req.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.TimeLimit)
		defer cancel()
	}

	ctx, span := p.tracer.Start(ctx, "planner.improve", trace.WithAttributes(
		attribute.String("tour.algorithm", string(algorithm)),
	))
	defer span.End()

	check := solver.ContextCheckpoint(ctx)

	var (
		improved solver.Tour
		err      error
	)
	switch algorithm {
	case TwoOpt:
		improved, err = solver.TwoOpt(tour, m, check)
	case SimulatedAnnealing:
		if len(tour) < 3 {
			// Too small to anneal; the greedy tour is already optimal.
			return tour, false, nil
		}
		cfg := annealConfig(req)
		cfg.Checkpoint = check
		improved, err = solver.Anneal(tour, m, cfg)
	}

	if err != nil {
		if errors.Is(err, solver.ErrInterrupted) && errors.Is(err, context.DeadlineExceeded) && improved != nil {
			log.Warn().
				Str("algorithm", string(algorithm)).
				Dur("time_limit", req.TimeLimit).
				Msg("Time limit reached, keeping best tour so far")
			span.SetAttributes(attribute.Bool("tour.timed_out", true))
			return improved, true, nil
		}
		return nil, false, fmt.Errorf("%s improvement failed: %w", algorithm, err)
	}

	return improved, false, nil
}

func annealConfig(req Request) solver.AnnealConfig {
	cfg := solver.DefaultAnnealConfig()
	if req.Anneal.InitialTemp > 0 {
		cfg.InitialTemp = req.Anneal.InitialTemp
	}
	if req.Anneal.CoolingRate > 0 {
		cfg.CoolingRate = req.Anneal.CoolingRate
	}
	if req.Anneal.StoppingTemp > 0 {
		cfg.StoppingTemp = req.Anneal.StoppingTemp
	}
	cfg.Rand = solver.NewRand(req.Seed)
	return cfg
}
