// Package calculator provides GPS distance calculations using the Haversine formula
// to compute great-circle distances between geographic coordinates, and builds the
// pairwise distance matrices consumed by the tour solver.
package calculator

import (
	"math"
)

const (
	// EarthRadiusKM is the Earth's radius in kilometers
	EarthRadiusKM = 6371.0
)

// Location represents a GPS coordinate
type Location struct {
	Latitude  float64
	Longitude float64
}

// Distance returns the great-circle distance in kilometers between two locations.
// Coordinates are not range checked.
func Distance(a, b Location) float64 {
	return Haversine(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// Haversine calculates the great-circle distance between two points
// on the Earth's surface given their latitudes and longitudes in decimal degrees
//
// Formula:
// a = sin²(Δφ/2) + cos φ1 ⋅ cos φ2 ⋅ sin²(Δλ/2)
// c = 2 ⋅ atan2( √a, √(1−a) )
// d = R ⋅ c
//
// where:
// φ is latitude, λ is longitude, R is earth's radius (6371 km)
// Δφ is the difference in latitude, Δλ is the difference in longitude
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := degreesToRadians(lat1)
	lat2Rad := degreesToRadians(lat2)

	deltaLat := degreesToRadians(lat2 - lat1)
	deltaLon := degreesToRadians(lon2 - lon1)

	sinLat := math.Sin(deltaLat / 2)
	sinLon := math.Sin(deltaLon / 2)
	a := sinLat*sinLat + math.Cos(lat1Rad)*math.Cos(lat2Rad)*sinLon*sinLon
	// Rounding can push a just outside [0, 1] for nearly antipodal points.
	a = math.Min(1, math.Max(0, a))

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKM * c
}

// degreesToRadians converts degrees to radians
func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// BuildMatrix returns the n×n matrix of pairwise distances between points.
// The diagonal is zero and the result is symmetric.
func BuildMatrix(points []Location) [][]float64 {
	n := len(points)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			matrix[i][j] = Distance(points[i], points[j])
		}
	}

	return matrix
}

// DistanceMetrics holds leg statistics for a route
type DistanceMetrics struct {
	TotalDistanceKM float64
	MaxLegKM        float64
	MinLegKM        float64
	AvgLegKM        float64
	TotalLegs       int
}

// CalculateMetrics computes leg statistics for the consecutive stops of a route.
// A route with fewer than two stops has no legs and yields zero metrics.
func CalculateMetrics(route []Location) DistanceMetrics {
	if len(route) < 2 {
		return DistanceMetrics{}
	}

	metrics := DistanceMetrics{
		TotalLegs: len(route) - 1,
		MinLegKM:  math.MaxFloat64,
	}

	for i := 0; i < len(route)-1; i++ {
		leg := Distance(route[i], route[i+1])
		metrics.TotalDistanceKM += leg

		if leg > metrics.MaxLegKM {
			metrics.MaxLegKM = leg
		}
		if leg < metrics.MinLegKM {
			metrics.MinLegKM = leg
		}
	}

	metrics.AvgLegKM = metrics.TotalDistanceKM / float64(metrics.TotalLegs)

	return metrics
}
