package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/stuartshay/tour-optimizer/internal/config"
	"github.com/stuartshay/tour-optimizer/internal/database"
	grpcserver "github.com/stuartshay/tour-optimizer/internal/grpc"
	"github.com/stuartshay/tour-optimizer/internal/metrics"
	"github.com/stuartshay/tour-optimizer/internal/planner"
	"github.com/stuartshay/tour-optimizer/internal/tracing"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	log.Info().Str("version", version).Msg("Starting tour-optimizer service")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setLogLevel(cfg.LogLevel)

	log.Info().
		Str("service_name", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Str("grpc_port", cfg.GRPCPort).
		Str("http_port", cfg.HTTPPort).
		Str("algorithm", cfg.Algorithm).
		Dur("solver_time_limit", cfg.SolverTimeLimit).
		Int("workers", cfg.WorkerCount).
		Bool("database_enabled", cfg.DatabaseEnabled).
		Msg("Configuration loaded")

	shutdownTracer, err := tracing.InitTracer(tracing.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		ExporterKind:   cfg.OTELExporter,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize tracing")
	}

	collector, err := metrics.NewCollector(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to register metrics")
	}

	// A nil Store keeps the service usable with inline places only.
	var store grpcserver.Store
	var dbCheck func(context.Context) error
	if cfg.DatabaseEnabled {
		dbClient, err := database.NewClient(cfg.DatabaseDSN())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database client")
		}
		defer dbClient.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := dbClient.EnsureSchema(ctx); err != nil {
			cancel()
			log.Fatal().Err(err).Msg("Failed to prepare database schema")
		}
		cancel()

		log.Info().Str("db_host", cfg.PostgresHost).Str("db_port", cfg.PostgresPort).Msg("Database connection established")
		store = dbClient
		dbCheck = dbClient.HealthCheck
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(collector.UnaryServerInterceptor()),
	)

	tourServer := grpcserver.NewServer(cfg, store, planner.New(collector))
	grpcserver.RegisterTourServiceServer(grpcServer, tourServer)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(grpcserver.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create TCP listener")
	}

	go func() {
		log.Info().Str("port", cfg.GRPCPort).Msg("gRPC server listening")
		if err := grpcServer.Serve(listener); err != nil {
			log.Fatal().Err(err).Msg("gRPC server failed")
		}
	}()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           newHTTPHandler(cfg.ServiceName, collector, dbCheck),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("Shutdown signal received, gracefully stopping...")
	healthServer.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown HTTP server")
	}

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-shutdownCtx.Done():
		log.Warn().Msg("Shutdown timeout exceeded, forcing stop")
		grpcServer.Stop()
	case <-stopped:
		log.Info().Msg("gRPC server stopped")
	}

	if err := tourServer.Shutdown(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown optimization workers")
	}

	if err := shutdownTracer(context.Background()); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown tracer")
	}

	log.Info().Msg("Service shutdown complete")
}

// newHTTPHandler serves the liveness, readiness and metrics endpoints.
// dbCheck may be nil when no database is configured.
func newHTTPHandler(serviceName string, collector *metrics.Collector, dbCheck func(context.Context) error) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": serviceName})
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if dbCheck != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := dbCheck(ctx); err != nil {
				log.Warn().Err(err).Msg("Readiness check failed")
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "service": serviceName})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready", "service": serviceName})
	})

	mux.Handle("GET /metrics", collector.Handler())

	return mux
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

// setLogLevel configures the global log level
func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Info().Str("level", level).Msg("Log level set")
}
