// Package geojson exports optimized routes as GeoJSON for map viewers.
package geojson

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/stuartshay/tour-optimizer/internal/places"
)

// RouteName is the "name" property of the exported route feature.
const RouteName = "Optimized Route"

// Route builds a FeatureCollection holding one LineString through the stops,
// in visiting order. Coordinates are [longitude, latitude].
func Route(stops []places.Place) *geojson.FeatureCollection {
	line := make(orb.LineString, len(stops))
	for i, p := range stops {
		line[i] = orb.Point{p.Longitude, p.Latitude}
	}

	feature := geojson.NewFeature(line)
	feature.Properties["name"] = RouteName

	fc := geojson.NewFeatureCollection()
	fc.Append(feature)
	return fc
}

// WriteRoute writes the route through stops to path as indented GeoJSON,
// creating parent directories as needed.
func WriteRoute(path string, stops []places.Place) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(Route(stops), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode route: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write GeoJSON file: %w", err)
	}
	return nil
}
