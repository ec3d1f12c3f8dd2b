// Package metrics bundles the Prometheus collectors for tour optimizations and
// the gRPC surface, and exposes them over HTTP.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Collector holds the optimizer metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	Optimizations *prometheus.CounterVec
	Duration      *prometheus.HistogramVec
	DistanceKM    *prometheus.HistogramVec
	Places        prometheus.Histogram

	RPCRequests  *prometheus.CounterVec
	RPCDurations *prometheus.HistogramVec
}

// NewCollector registers the optimizer metrics against reg, defaulting to the
// global Prometheus registry when nil. Registering twice on the same registry
// reuses the existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer}
	var err error

	if c.Optimizations, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tour_optimizations_total",
		Help: "Total tour optimizations, labeled by algorithm and outcome.",
	}, []string{"algorithm", "status"})); err != nil {
		return nil, err
	}

	if c.Duration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tour_optimization_duration_seconds",
		Help:    "Solver wall time in seconds, labeled by algorithm.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	}, []string{"algorithm"})); err != nil {
		return nil, err
	}

	if c.DistanceKM, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tour_distance_km",
		Help:    "Total length of computed tours in kilometers.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 14),
	}, []string{"algorithm"})); err != nil {
		return nil, err
	}

	if c.Places, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tour_places",
		Help:    "Number of places in optimized tours.",
		Buckets: prometheus.ExponentialBuckets(2, 2, 10),
	})); err != nil {
		return nil, err
	}

	if c.RPCRequests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tour_rpc_requests_total",
		Help: "Handled RPCs, labeled by method and gRPC status code.",
	}, []string{"method", "code"})); err != nil {
		return nil, err
	}

	if c.RPCDurations, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tour_rpc_duration_seconds",
		Help:    "RPC latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"method"})); err != nil {
		return nil, err
	}

	return c, nil
}

// ObserveRun records one optimization outcome.
func (c *Collector) ObserveRun(algorithm string, places int, distanceKM float64, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.Optimizations.WithLabelValues(algorithm, "failed").Inc()
		return
	}
	c.Optimizations.WithLabelValues(algorithm, "completed").Inc()
	c.Duration.WithLabelValues(algorithm).Observe(elapsed.Seconds())
	c.DistanceKM.WithLabelValues(algorithm).Observe(distanceKM)
	c.Places.Observe(float64(places))
}

// UnaryServerInterceptor records request counts and durations for unary RPCs.
func (c *Collector) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		if c == nil {
			return resp, err
		}

		method := "unknown"
		if info != nil {
			method = methodName(info.FullMethod)
		}
		c.RPCRequests.WithLabelValues(method, status.Code(err).String()).Inc()
		c.RPCDurations.WithLabelValues(method).Observe(time.Since(start).Seconds())

		return resp, err
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// methodName returns the last path element of a "/pkg.Service/Method" name.
func methodName(fullMethod string) string {
	i := strings.LastIndex(fullMethod, "/")
	if i < 0 || i == len(fullMethod)-1 {
		return "unknown"
	}
	return fullMethod[i+1:]
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector already registered with incompatible type: %w", err)
		}
		var zero T
		return zero, err
	}
	return c, nil
}
