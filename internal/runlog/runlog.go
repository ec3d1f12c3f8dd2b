// Package runlog appends one JSON line per optimization run to a stats file.
package runlog

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// timestampFormat matches the local wall-clock stamp of the stats file.
const timestampFormat = "2006-01-02 15:04:05"

// Entry is one run's statistics.
type Entry struct {
	Algorithm  string
	DistanceKM float64
	Elapsed    time.Duration
	Places     int
}

// Logger writes entries to an append-only stats file.
type Logger struct {
	path   string
	file   *os.File
	logger zerolog.Logger
}

// Open opens (or creates) the stats file at path, creating parent directories.
func Open(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create stats directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open stats log: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return &Logger{
		path:   abs,
		file:   file,
		logger: zerolog.New(file),
	}, nil
}

// Record appends e. Elapsed is rounded to hundredths of a second.
func (l *Logger) Record(e Entry) {
	l.logger.Log().
		Str("timestamp", time.Now().Format(timestampFormat)).
		Str("algorithm", e.Algorithm).
		Float64("distance_km", round2(e.DistanceKM)).
		Float64("elapsed_s", round2(e.Elapsed.Seconds())).
		Int("places", e.Places).
		Send()
}

// Path returns the absolute path of the stats file.
func (l *Logger) Path() string {
	return l.path
}

// Close closes the stats file.
func (l *Logger) Close() error {
	return l.file.Close()
}

// Append records a single entry to the stats file at path and returns the
// file's absolute path.
func Append(path string, e Entry) (string, error) {
	l, err := Open(path)
	if err != nil {
		return "", err
	}
	l.Record(e)
	if err := l.Close(); err != nil {
		return "", fmt.Errorf("failed to close stats log: %w", err)
	}
	return l.Path(), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
