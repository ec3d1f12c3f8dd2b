// Command tour plans the shortest route through a set of places read from a
// CSV file or the places table, prints the tour and writes it as GeoJSON.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/stuartshay/tour-optimizer/internal/config"
	"github.com/stuartshay/tour-optimizer/internal/database"
	"github.com/stuartshay/tour-optimizer/internal/geojson"
	"github.com/stuartshay/tour-optimizer/internal/places"
	"github.com/stuartshay/tour-optimizer/internal/planner"
	"github.com/stuartshay/tour-optimizer/internal/runlog"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	csvPath       string
	start         string
	returnToStart bool
	output        string
	openFrom      string
	openUntil     string
	algorithm     string
	seed          int64
	timeLimit     time.Duration
	statsLog      string
	profile       string
	fromDB        bool
	record        bool
	verbose       bool
}

func parseFlags(cfg *config.Config, args []string, stderr io.Writer) (*options, error) {
	flags := flag.NewFlagSet("tour", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintln(stderr, "City Tour Optimizer: plan the shortest route through your chosen places.")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Usage: tour --csv places.csv --start NAME [flags]")
		flags.PrintDefaults()
	}

	opts := &options{}
	flags.StringVar(&opts.csvPath, "csv", cfg.PlacesCSVPath, "path to places CSV (columns Name,Lat,Lon and optionally OpenTime,CloseTime)")
	flags.StringVar(&opts.start, "start", "", "name of the starting location (must match a place exactly)")
	flags.BoolVar(&opts.returnToStart, "return-to-start", false, "return to the starting location at the end of the route")
	flags.StringVar(&opts.output, "output", cfg.GeoJSONOutputPath, "path to write the GeoJSON route")
	flags.StringVar(&opts.openFrom, "open-from", "", "earliest visit time, HH:MM")
	flags.StringVar(&opts.openUntil, "open-until", "", "latest visit time, HH:MM")
	flags.StringVar(&opts.algorithm, "algo", cfg.Algorithm, "algorithm: greedy, 2opt or simulated-annealing")
	flags.Int64Var(&opts.seed, "seed", cfg.AnnealSeed, "random seed for simulated annealing (0 picks one from the clock)")
	flags.DurationVar(&opts.timeLimit, "time-limit", cfg.SolverTimeLimit, "stop improving after this long and keep the best route (0 for no limit)")
	flags.StringVar(&opts.statsLog, "stats-log", cfg.StatsLogPath, "file to append run statistics to")
	flags.StringVar(&opts.profile, "profile", "", "YAML solver profile")
	flags.BoolVar(&opts.fromDB, "from-db", false, "read places from the database instead of a CSV file")
	flags.BoolVar(&opts.record, "record", false, "store the run in the database")
	flags.BoolVar(&opts.verbose, "v", false, "verbose logging")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", flags.Args())
	}
	if opts.start == "" {
		return nil, errors.New("--start is required")
	}
	if opts.csvPath == "" && !opts.fromDB {
		return nil, errors.New("--csv is required unless --from-db is set")
	}

	// Profile values fill in everything not given explicitly on the command line.
	if opts.profile != "" {
		profile, err := config.LoadProfile(opts.profile)
		if err != nil {
			return nil, err
		}
		explicit := map[string]bool{}
		flags.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

		cfg.ApplyProfile(profile)
		if !explicit["algo"] {
			opts.algorithm = cfg.Algorithm
		}
		if !explicit["seed"] {
			opts.seed = cfg.AnnealSeed
		}
		if !explicit["time-limit"] {
			opts.timeLimit = cfg.SolverTimeLimit
		}
	}

	return opts, nil
}

// run executes one optimization and returns the process exit code. Usage and
// flag errors go to stderr; everything else goes to stdout.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stdout, "Error: %v\n", err)
		return 1
	}

	opts, err := parseFlags(cfg, args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if opts.verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	var db *database.Client
	if opts.fromDB || opts.record {
		db, err = openDatabase(ctx, cfg)
		if err != nil {
			fmt.Fprintf(stdout, "Error: %v\n", err)
			return 1
		}
		defer func() { _ = db.Close() }() // nolint:errcheck // process is exiting
	}

	source := "the CSV"
	var list []places.Place
	if opts.fromDB {
		source = "the database"
		list, err = db.GetPlaces(ctx)
		if err != nil {
			fmt.Fprintf(stdout, "Error: failed to load places: %v\n", err)
			return 1
		}
	} else {
		if _, err := os.Stat(opts.csvPath); errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(stdout, "Error: CSV file '%s' not found.\n", opts.csvPath)
			return 1
		}
		list, err = places.LoadCSV(opts.csvPath)
		if err != nil {
			fmt.Fprintf(stdout, "Error: %v\n", err)
			return 1
		}
	}

	algorithm, err := planner.ParseAlgorithm(opts.algorithm)
	if err != nil {
		fmt.Fprintf(stdout, "Error: %v\n", err)
		return 1
	}

	req := planner.Request{
		Places:        list,
		Start:         opts.start,
		Algorithm:     algorithm,
		ReturnToStart: opts.returnToStart,
		Seed:          opts.seed,
		TimeLimit:     opts.timeLimit,
		Anneal: planner.AnnealParams{
			InitialTemp:  cfg.AnnealInitialTemp,
			CoolingRate:  cfg.AnnealCoolingRate,
			StoppingTemp: cfg.AnnealStopTemp,
		},
	}

	// The window only applies when both ends are given.
	if opts.openFrom != "" && opts.openUntil != "" {
		window, err := places.ParseWindow(opts.openFrom, opts.openUntil)
		if err != nil {
			fmt.Fprintf(stdout, "Error: %v\n", err)
			return 1
		}
		req.Window = &window
	}

	fmt.Fprintf(stdout, "\nComputing route using '%s' algorithm...\n", algorithm)

	result, err := planner.New(nil).Plan(ctx, req)
	switch {
	case errors.Is(err, planner.ErrNotEnoughPlaces):
		fmt.Fprintln(stdout, "Error: Need at least 2 places to compute a route.")
		return 1
	case errors.Is(err, planner.ErrNoneOpen):
		fmt.Fprintln(stdout, "Not enough places open during the selected time window.")
		return 1
	case errors.Is(err, planner.ErrStartNotFound):
		fmt.Fprintf(stdout, "Error: Start location '%s' not found in %s.\n", opts.start, source)
		return 1
	case err != nil:
		fmt.Fprintf(stdout, "Error: %v\n", err)
		return 1
	}

	printTour(stdout, result)

	statsPath, err := runlog.Append(opts.statsLog, runlog.Entry{
		Algorithm:  string(result.Algorithm),
		DistanceKM: result.TotalDistanceKM,
		Elapsed:    result.Elapsed,
		Places:     len(result.Candidates),
	})
	if err != nil {
		fmt.Fprintf(stdout, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Stats logged to: %s\n", statsPath)

	if err := geojson.WriteRoute(opts.output, result.Stops); err != nil {
		fmt.Fprintf(stdout, "Error: %v\n", err)
		return 1
	}
	outPath, err := filepath.Abs(opts.output)
	if err != nil {
		outPath = opts.output
	}
	fmt.Fprintf(stdout, "Route written to: %s\n", outPath)

	if opts.record {
		id, err := db.RecordRun(ctx, toRun(opts.start, result))
		if err != nil {
			fmt.Fprintf(stdout, "Error: failed to record run: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Run recorded with id %d\n", id)
	}

	return 0
}

func printTour(w io.Writer, result *planner.Result) {
	fmt.Fprintln(w, "\nOptimal Tour:")
	for i, stop := range result.Stops {
		fmt.Fprintf(w, "%d) %s\n", i+1, stop.Name)
	}
	fmt.Fprintf(w, "\nTotal Distance: %.2f km\n", result.TotalDistanceKM)
	if result.TimedOut {
		fmt.Fprintln(w, "Time limit reached; showing the best route found so far.")
	}
}

func openDatabase(ctx context.Context, cfg *config.Config) (*database.Client, error) {
	db, err := database.NewClient(cfg.DatabaseDSN())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func toRun(start string, result *planner.Result) database.Run {
	return database.Run{
		Algorithm:  string(result.Algorithm),
		StartPlace: start,
		Places:     len(result.Candidates),
		DistanceKM: result.TotalDistanceKM,
		ElapsedMS:  result.Elapsed.Milliseconds(),
		TimedOut:   result.TimedOut,
		Route:      result.RouteNames(),
	}
}
