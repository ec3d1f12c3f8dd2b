// Package places loads named points of interest from CSV and filters them by
// opening hours before they are handed to the tour solver.
package places

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/stuartshay/tour-optimizer/internal/calculator"
)

// ErrMissingColumn is returned when a required CSV column is absent.
var ErrMissingColumn = errors.New("missing required column")

// TimeOfDay is a wall-clock time expressed in minutes after midnight.
type TimeOfDay int

// ParseTimeOfDay parses an "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

// String formats t as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Place is a named location with optional opening hours
type Place struct {
	Name      string
	Latitude  float64
	Longitude float64

	// HasHours is false when the source carried no opening hours.
	HasHours  bool
	OpenTime  TimeOfDay
	CloseTime TimeOfDay
}

// Location returns the coordinates of p.
func (p Place) Location() calculator.Location {
	return calculator.Location{Latitude: p.Latitude, Longitude: p.Longitude}
}

// Locations maps places to their coordinates, preserving order.
func Locations(list []Place) []calculator.Location {
	out := make([]calculator.Location, len(list))
	for i, p := range list {
		out[i] = p.Location()
	}
	return out
}

// IndexOf returns the index of the first place named name (exact match).
func IndexOf(list []Place, name string) (int, bool) {
	for i, p := range list {
		if p.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Window is a requested visiting interval within a day.
type Window struct {
	From  TimeOfDay
	Until TimeOfDay
}

// ParseWindow parses a pair of "HH:MM" strings.
func ParseWindow(from, until string) (Window, error) {
	f, err := ParseTimeOfDay(from)
	if err != nil {
		return Window{}, fmt.Errorf("invalid window start: %w", err)
	}
	u, err := ParseTimeOfDay(until)
	if err != nil {
		return Window{}, fmt.Errorf("invalid window end: %w", err)
	}
	return Window{From: f, Until: u}, nil
}

// Contains reports whether p is open for the whole window.
// Places without opening hours are treated as always open.
func (w Window) Contains(p Place) bool {
	if !p.HasHours {
		return true
	}
	return p.OpenTime <= w.From && p.CloseTime >= w.Until
}

// FilterOpen returns the places open for the whole window, in input order.
func FilterOpen(list []Place, w Window) []Place {
	out := make([]Place, 0, len(list))
	for _, p := range list {
		if w.Contains(p) {
			out = append(out, p)
		}
	}
	return out
}

// LoadCSV reads places from the CSV file at path.
func LoadCSV(path string) ([]Place, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open places file: %w", err)
	}
	defer func() { _ = file.Close() }() // nolint:errcheck // read-only file

	list, err := ParseCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return list, nil
}

// ParseCSV reads places from r. The header must name Name, Lat and Lon columns;
// OpenTime and CloseTime are optional but must appear together. Column names are
// matched case-insensitively and values are trimmed.
func ParseCSV(r io.Reader) ([]Place, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range []string{"name", "lat", "lon"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}
	openCol, hasOpen := cols["opentime"]
	closeCol, hasClose := cols["closetime"]
	if hasOpen != hasClose {
		return nil, fmt.Errorf("%w: OpenTime and CloseTime must be given together", ErrMissingColumn)
	}

	var list []Place
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		field := func(i int) string {
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		p := Place{Name: field(cols["name"])}
		if p.Name == "" {
			return nil, fmt.Errorf("line %d: empty name", line)
		}
		if p.Latitude, err = strconv.ParseFloat(field(cols["lat"]), 64); err != nil {
			return nil, fmt.Errorf("line %d: invalid Lat: %w", line, err)
		}
		if p.Longitude, err = strconv.ParseFloat(field(cols["lon"]), 64); err != nil {
			return nil, fmt.Errorf("line %d: invalid Lon: %w", line, err)
		}

		if hasOpen {
			if p.OpenTime, err = ParseTimeOfDay(field(openCol)); err != nil {
				return nil, fmt.Errorf("line %d: OpenTime: %w", line, err)
			}
			if p.CloseTime, err = ParseTimeOfDay(field(closeCol)); err != nil {
				return nil, fmt.Errorf("line %d: CloseTime: %w", line, err)
			}
			p.HasHours = true
		}

		list = append(list, p)
	}

	return list, nil
}
