package database

import (
	"context"
	"fmt"
)

// schema creates the tables used by the optimizer when they are missing.
const schema = `
CREATE TABLE IF NOT EXISTS public.places (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	latitude   DOUBLE PRECISION NOT NULL,
	longitude  DOUBLE PRECISION NOT NULL,
	open_time  TIME,
	close_time TIME
);

CREATE TABLE IF NOT EXISTS public.route_runs (
	id          BIGSERIAL PRIMARY KEY,
	algorithm   TEXT NOT NULL,
	start_place TEXT NOT NULL,
	places      INTEGER NOT NULL,
	distance_km DOUBLE PRECISION NOT NULL,
	elapsed_ms  BIGINT NOT NULL,
	timed_out   BOOLEAN NOT NULL DEFAULT FALSE,
	route       TEXT[] NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// EnsureSchema creates the places and route_runs tables if they do not exist
func (c *Client) EnsureSchema(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
