package geojson

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stuartshay/tour-optimizer/internal/places"
)

var stops = []places.Place{
	{Name: "Statue of Liberty", Latitude: 40.689247, Longitude: -74.044502},
	{Name: "Empire State Building", Latitude: 40.748817, Longitude: -73.985428},
	{Name: "Statue of Liberty", Latitude: 40.689247, Longitude: -74.044502},
}

func TestRoute(t *testing.T) {
	fc := Route(stops)

	require.Len(t, fc.Features, 1)
	feature := fc.Features[0]
	assert.Equal(t, RouteName, feature.Properties["name"])

	line, ok := feature.Geometry.(orb.LineString)
	require.True(t, ok, "expected LineString geometry, got %T", feature.Geometry)
	require.Len(t, line, 3)
	assert.Equal(t, orb.Point{-74.044502, 40.689247}, line[0])
	assert.Equal(t, orb.Point{-73.985428, 40.748817}, line[1])
}

func TestWriteRoute(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "route.geojson")

	require.NoError(t, WriteRoute(path, stops))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"type\": \"FeatureCollection\"")

	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "LineString", fc.Features[0].Geometry.GeoJSONType())
	assert.Equal(t, RouteName, fc.Features[0].Properties.MustString("name"))
}

func TestWriteRoute_Unwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	err := WriteRoute(filepath.Join(blocker, "route.geojson"), stops)
	assert.Error(t, err)
}
