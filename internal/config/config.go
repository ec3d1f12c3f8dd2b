// Package config provides application configuration management,
// loading settings from environment variables, .env files and optional
// YAML solver profiles.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	// Service configuration
	ServiceName string
	Environment string
	GRPCPort    string
	HTTPPort    string

	// Database configuration
	DatabaseEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresDB       string
	PostgresUser     string
	PostgresPassword string

	// Input and output paths
	PlacesCSVPath     string
	GeoJSONOutputPath string
	StatsLogPath      string

	// Solver defaults
	Algorithm         string
	AnnealInitialTemp float64
	AnnealCoolingRate float64
	AnnealStopTemp    float64
	AnnealSeed        int64
	SolverTimeLimit   time.Duration
	SolverProfilePath string

	// Worker pool size for asynchronous optimization jobs
	WorkerCount int

	// OpenTelemetry configuration
	OTELEndpoint string
	OTELExporter string
	OTELEnabled  bool

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "tour-optimizer"),
		Environment: getEnv("ENVIRONMENT", "development"),
		GRPCPort:    getEnv("GRPC_PORT", "50051"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresDB:       getEnv("POSTGRES_DB", "tours"),
		PostgresUser:     getEnv("POSTGRES_USER", "development"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "development"),

		PlacesCSVPath:     getEnv("PLACES_CSV_PATH", ""),
		GeoJSONOutputPath: getEnv("GEOJSON_OUTPUT_PATH", "output/route.geojson"),
		StatsLogPath:      getEnv("STATS_LOG_PATH", "logs/route_stats.log"),

		Algorithm:         getEnv("TOUR_ALGORITHM", "greedy"),
		SolverProfilePath: getEnv("SOLVER_PROFILE_PATH", ""),

		OTELEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporter: getEnv("OTEL_TRACES_EXPORTER", "otlp"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}

	var err error
	cfg.AnnealInitialTemp, err = parseFloat("ANNEAL_INITIAL_TEMP", "1000")
	if err != nil {
		return nil, fmt.Errorf("invalid ANNEAL_INITIAL_TEMP: %w", err)
	}

	cfg.AnnealCoolingRate, err = parseFloat("ANNEAL_COOLING_RATE", "0.995")
	if err != nil {
		return nil, fmt.Errorf("invalid ANNEAL_COOLING_RATE: %w", err)
	}

	cfg.AnnealStopTemp, err = parseFloat("ANNEAL_STOPPING_TEMP", "0.001")
	if err != nil {
		return nil, fmt.Errorf("invalid ANNEAL_STOPPING_TEMP: %w", err)
	}

	cfg.AnnealSeed, err = strconv.ParseInt(getEnv("ANNEAL_SEED", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ANNEAL_SEED: %w", err)
	}

	cfg.SolverTimeLimit, err = time.ParseDuration(getEnv("SOLVER_TIME_LIMIT", "0s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SOLVER_TIME_LIMIT: %w", err)
	}

	cfg.WorkerCount, err = strconv.Atoi(getEnv("WORKER_COUNT", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_COUNT: %w", err)
	}
	if cfg.WorkerCount < 1 {
		return nil, fmt.Errorf("invalid WORKER_COUNT: must be positive, got %d", cfg.WorkerCount)
	}

	cfg.DatabaseEnabled, err = strconv.ParseBool(getEnv("DATABASE_ENABLED", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid DATABASE_ENABLED: %w", err)
	}

	cfg.OTELEnabled, err = strconv.ParseBool(getEnv("OTEL_ENABLED", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid OTEL_ENABLED: %w", err)
	}

	if cfg.SolverProfilePath != "" {
		profile, err := LoadProfile(cfg.SolverProfilePath)
		if err != nil {
			return nil, err
		}
		cfg.ApplyProfile(profile)
	}

	return cfg, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s sslmode=disable",
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDB,
		c.PostgresUser,
		c.PostgresPassword,
	)
}

// Profile is a named set of solver parameters read from YAML.
// Zero values leave the corresponding setting untouched.
//
//	algorithm: simulated-annealing
//	time_limit: 30s
//	anneal:
//	  initial_temp: 5000
//	  cooling_rate: 0.999
//	  stopping_temp: 0.0001
//	  seed: 42
type Profile struct {
	Algorithm string        `yaml:"algorithm"`
	TimeLimit time.Duration `yaml:"time_limit"`
	Anneal    struct {
		InitialTemp  float64 `yaml:"initial_temp"`
		CoolingRate  float64 `yaml:"cooling_rate"`
		StoppingTemp float64 `yaml:"stopping_temp"`
		Seed         int64   `yaml:"seed"`
	} `yaml:"anneal"`
}

// LoadProfile reads a solver profile from a YAML file
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read solver profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse solver profile %s: %w", path, err)
	}

	return &p, nil
}

// ApplyProfile overrides solver settings with the non-zero values of p
func (c *Config) ApplyProfile(p *Profile) {
	if p == nil {
		return
	}
	if p.Algorithm != "" {
		c.Algorithm = p.Algorithm
	}
	if p.TimeLimit > 0 {
		c.SolverTimeLimit = p.TimeLimit
	}
	if p.Anneal.InitialTemp > 0 {
		c.AnnealInitialTemp = p.Anneal.InitialTemp
	}
	if p.Anneal.CoolingRate > 0 {
		c.AnnealCoolingRate = p.Anneal.CoolingRate
	}
	if p.Anneal.StoppingTemp > 0 {
		c.AnnealStopTemp = p.Anneal.StoppingTemp
	}
	if p.Anneal.Seed != 0 {
		c.AnnealSeed = p.Anneal.Seed
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseFloat parses a float64 from an environment variable or default value
func parseFloat(key, defaultValue string) (float64, error) {
	value := getEnv(key, defaultValue)
	return strconv.ParseFloat(value, 64)
}
