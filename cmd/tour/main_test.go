package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const placesCSV = `Name,Lat,Lon,OpenTime,CloseTime
Central Park,40.7829,-73.9654,06:00,23:00
Times Square,40.7580,-73.9855,00:00,23:59
Empire State Building,40.7484,-73.9857,10:00,22:00
Brooklyn Bridge,40.7061,-73.9969,01:00,23:59
Statue of Liberty,40.6892,-74.0445,09:00,16:00
`

type cliEnv struct {
	dir    string
	csv    string
	output string
	stats  string
}

func setupCLI(t *testing.T) cliEnv {
	t.Helper()
	for _, key := range []string{"TOUR_ALGORITHM", "ANNEAL_SEED", "SOLVER_TIME_LIMIT", "SOLVER_PROFILE_PATH", "PLACES_CSV_PATH", "DATABASE_ENABLED"} {
		t.Setenv(key, "")
	}

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "places.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(placesCSV), 0644))

	return cliEnv{
		dir:    dir,
		csv:    csvPath,
		output: filepath.Join(dir, "out", "route.geojson"),
		stats:  filepath.Join(dir, "logs", "route_stats.log"),
	}
}

func (e cliEnv) args(extra ...string) []string {
	return append([]string{"--csv", e.csv, "--output", e.output, "--stats-log", e.stats}, extra...)
}

func runCLI(args []string) (int, string) {
	code, stdout, _ := runCLIStreams(args)
	return code, stdout
}

func runCLIStreams(args []string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Greedy(t *testing.T) {
	env := setupCLI(t)

	code, out := runCLI(env.args("--start", "Central Park"))

	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "Computing route using 'greedy' algorithm...")
	assert.Contains(t, out, "1) Central Park")
	assert.Contains(t, out, "5) ")
	assert.Contains(t, out, "Total Distance: ")
	assert.Contains(t, out, "Stats logged to: ")
	assert.Contains(t, out, "Route written to: ")
	assert.NotContains(t, out, "6) ")

	assert.FileExists(t, env.output)
	stats, err := os.ReadFile(env.stats)
	require.NoError(t, err)
	assert.Contains(t, string(stats), `"algorithm":"greedy"`)
	assert.Contains(t, string(stats), `"places":5`)
}

func TestRun_Algorithms(t *testing.T) {
	for _, algo := range []string{"2opt", "simulated-annealing"} {
		t.Run(algo, func(t *testing.T) {
			env := setupCLI(t)

			code, out := runCLI(env.args("--start", "Times Square", "--algo", algo, "--seed", "7"))

			require.Equal(t, 0, code, out)
			assert.Contains(t, out, "Computing route using '"+algo+"' algorithm...")
			assert.Contains(t, out, "1) Times Square")
		})
	}
}

func TestRun_ReturnToStart(t *testing.T) {
	env := setupCLI(t)

	code, out := runCLI(env.args("--start", "Central Park", "--return-to-start"))

	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "1) Central Park")
	assert.Contains(t, out, "6) Central Park")
}

func TestRun_TimeWindow(t *testing.T) {
	env := setupCLI(t)

	code, out := runCLI(env.args("--start", "Times Square", "--open-from", "10:00", "--open-until", "18:00"))

	require.Equal(t, 0, code, out)
	assert.NotContains(t, out, "Statue of Liberty")
	assert.Contains(t, out, "4) ")
	assert.NotContains(t, out, "5) ")
}

func TestRun_WindowNeedsBothEnds(t *testing.T) {
	env := setupCLI(t)

	code, out := runCLI(env.args("--start", "Times Square", "--open-from", "10:00"))

	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "5) ")
}

func TestRun_Profile(t *testing.T) {
	env := setupCLI(t)
	profile := filepath.Join(env.dir, "profile.yaml")
	require.NoError(t, os.WriteFile(profile, []byte("algorithm: 2opt\n"), 0644))

	code, out := runCLI(env.args("--start", "Central Park", "--profile", profile))
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "using '2opt' algorithm")

	code, out = runCLI(env.args("--start", "Central Park", "--profile", profile, "--algo", "greedy"))
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "using 'greedy' algorithm")
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     func(env cliEnv) []string
		wantCode int
		wantOut  string
	}{
		{
			name: "missing csv",
			args: func(env cliEnv) []string {
				return []string{"--csv", filepath.Join(env.dir, "nope.csv"), "--start", "A"}
			},
			wantCode: 1,
			wantOut:  "not found.",
		},
		{
			name:     "unknown start",
			args:     func(env cliEnv) []string { return env.args("--start", "Atlantis") },
			wantCode: 1,
			wantOut:  "Error: Start location 'Atlantis' not found in the CSV.",
		},
		{
			name: "nothing open",
			args: func(env cliEnv) []string {
				return env.args("--start", "Times Square", "--open-from", "00:00", "--open-until", "23:59")
			},
			wantCode: 1,
			wantOut:  "Not enough places open during the selected time window.",
		},
		{
			name:     "unknown algorithm",
			args:     func(env cliEnv) []string { return env.args("--start", "Times Square", "--algo", "genetic") },
			wantCode: 1,
			wantOut:  "unknown algorithm",
		},
		{
			name: "bad window",
			args: func(env cliEnv) []string {
				return env.args("--start", "Times Square", "--open-from", "noon", "--open-until", "18:00")
			},
			wantCode: 1,
			wantOut:  "invalid window start",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupCLI(t)

			code, out := runCLI(tt.args(env))

			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, out, tt.wantOut)
			assert.NoFileExists(t, env.output)
		})
	}
}

func TestRun_SinglePlace(t *testing.T) {
	env := setupCLI(t)
	require.NoError(t, os.WriteFile(env.csv, []byte("Name,Lat,Lon\nSolo,40.7,-73.9\n"), 0644))

	code, out := runCLI(env.args("--start", "Solo"))

	assert.Equal(t, 1, code)
	assert.True(t, strings.Contains(out, "Need at least 2 places"), out)
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name       string
		args       func(env cliEnv) []string
		wantCode   int
		wantStderr string
	}{
		{name: "help", args: func(cliEnv) []string { return []string{"-h"} }, wantCode: 0, wantStderr: "Usage: tour"},
		{name: "missing start", args: func(env cliEnv) []string { return env.args() }, wantCode: 2, wantStderr: "--start is required"},
		{name: "unknown flag", args: func(env cliEnv) []string { return env.args("--start", "A", "--plot") }, wantCode: 2, wantStderr: "flag provided but not defined"},
		{name: "stray argument", args: func(env cliEnv) []string { return env.args("--start", "A", "extra") }, wantCode: 2, wantStderr: "unexpected arguments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupCLI(t)

			code, stdout, stderr := runCLIStreams(tt.args(env))

			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, stderr, tt.wantStderr)
			assert.Empty(t, stdout)
		})
	}
}
