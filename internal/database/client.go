// Package database provides PostgreSQL access for the tour optimizer: the
// places catalog and the history of optimized runs.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/stuartshay/tour-optimizer/internal/places"
)

// Client wraps a PostgreSQL database connection
type Client struct {
	db *sqlx.DB
}

// Run is one optimization recorded in public.route_runs
type Run struct {
	ID         int64
	Algorithm  string
	StartPlace string
	Places     int
	DistanceKM float64
	ElapsedMS  int64
	TimedOut   bool
	Route      []string
	CreatedAt  time.Time
}

// placeRow mirrors a public.places row. Opening hours are formatted "HH24:MI"
// by the query and NULL when the place has none.
type placeRow struct {
	Name      string         `db:"name"`
	Latitude  float64        `db:"latitude"`
	Longitude float64        `db:"longitude"`
	OpenTime  sql.NullString `db:"open_time"`
	CloseTime sql.NullString `db:"close_time"`
}

// NewClient creates a new database client with connection pooling
func NewClient(dsn string) (*Client, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %w (also failed to close: %w)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Client{db: db}, nil
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

// GetPlaces returns the places catalog in insertion order
func (c *Client) GetPlaces(ctx context.Context) ([]places.Place, error) {
	query := `
		SELECT
			name, latitude, longitude,
			to_char(open_time, 'HH24:MI') AS open_time,
			to_char(close_time, 'HH24:MI') AS close_time
		FROM public.places
		ORDER BY id ASC
	`

	var rows []placeRow
	if err := c.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	list := make([]places.Place, 0, len(rows))
	for _, row := range rows {
		p, err := row.toPlace()
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}

	return list, nil
}

// RecordRun stores an optimization run and returns its ID
func (c *Client) RecordRun(ctx context.Context, run Run) (int64, error) {
	query := `
		INSERT INTO public.route_runs
			(algorithm, start_place, places, distance_km, elapsed_ms, timed_out, route)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	err := c.db.QueryRowxContext(ctx, query,
		run.Algorithm,
		run.StartPlace,
		run.Places,
		run.DistanceKM,
		run.ElapsedMS,
		run.TimedOut,
		pq.Array(run.Route),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert failed: %w", err)
	}

	return id, nil
}

// GetRecentRuns returns the latest recorded runs, newest first
func (c *Client) GetRecentRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, algorithm, start_place, places, distance_km, elapsed_ms, timed_out, route, created_at
		FROM public.route_runs
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := c.db.QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }() // nolint:errcheck // Close in defer, error not actionable

	var runs []Run
	for rows.Next() {
		var run Run
		err := rows.Scan(
			&run.ID,
			&run.Algorithm,
			&run.StartPlace,
			&run.Places,
			&run.DistanceKM,
			&run.ElapsedMS,
			&run.TimedOut,
			pq.Array(&run.Route),
			&run.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return runs, nil
}

// HealthCheck verifies database connectivity
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (r placeRow) toPlace() (places.Place, error) {
	p := places.Place{
		Name:      r.Name,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
	}

	if r.OpenTime.Valid != r.CloseTime.Valid {
		return places.Place{}, fmt.Errorf("place %q: open_time and close_time must both be set or both be NULL", r.Name)
	}
	if !r.OpenTime.Valid {
		return p, nil
	}

	var err error
	if p.OpenTime, err = places.ParseTimeOfDay(r.OpenTime.String); err != nil {
		return places.Place{}, fmt.Errorf("place %q: %w", r.Name, err)
	}
	if p.CloseTime, err = places.ParseTimeOfDay(r.CloseTime.String); err != nil {
		return places.Place{}, fmt.Errorf("place %q: %w", r.Name, err)
	}
	p.HasHours = true

	return p, nil
}
