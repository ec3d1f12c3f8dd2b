package calculator

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name      string
		lat1      float64
		lon1      float64
		lat2      float64
		lon2      float64
		expected  float64
		tolerance float64
	}{
		{
			name:      "Same location",
			lat1:      40.736097,
			lon1:      -74.039373,
			lat2:      40.736097,
			lon2:      -74.039373,
			expected:  0.0,
			tolerance: 0.001,
		},
		{
			name:      "New York to Jersey City (~3.3 km)",
			lat1:      40.736097,
			lon1:      -74.039373,
			lat2:      40.728333,
			lon2:      -74.077778,
			expected:  3.35,
			tolerance: 0.5,
		},
		{
			name:      "New York to Boston (~306 km)",
			lat1:      40.7128,
			lon1:      -74.0060,
			lat2:      42.3601,
			lon2:      -71.0589,
			expected:  306.0,
			tolerance: 5.0,
		},
		{
			name:      "Equator crossing",
			lat1:      1.0,
			lon1:      0.0,
			lat2:      -1.0,
			lon2:      0.0,
			expected:  222.4,
			tolerance: 1.0,
		},
		{
			name:      "One degree of longitude on the equator",
			lat1:      0,
			lon1:      0,
			lat2:      0,
			lon2:      1,
			expected:  111.19,
			tolerance: 0.01,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(result-tt.expected) > tt.tolerance {
				t.Errorf("Haversine() = %.2f km, expected %.2f km (±%.2f km)", result, tt.expected, tt.tolerance)
			}
		})
	}
}

func TestDistanceSymmetry(t *testing.T) {
	points := []Location{
		{Latitude: 40.748817, Longitude: -73.985428},
		{Latitude: 48.858370, Longitude: 2.294481},
		{Latitude: -33.856784, Longitude: 151.215297},
		{Latitude: 0, Longitude: 179.9},
		{Latitude: 0, Longitude: -179.9},
	}

	for i, a := range points {
		if d := Distance(a, a); d != 0 {
			t.Errorf("Distance(p%d, p%d) = %v, expected 0", i, i, d)
		}
		for j, b := range points {
			ab := Distance(a, b)
			ba := Distance(b, a)
			if math.Abs(ab-ba) > 1e-9 {
				t.Errorf("Distance(p%d, p%d) = %v but Distance(p%d, p%d) = %v", i, j, ab, j, i, ba)
			}
			if ab < 0 || math.IsNaN(ab) {
				t.Errorf("Distance(p%d, p%d) = %v, expected a finite non-negative value", i, j, ab)
			}
		}
	}
}

func TestHaversine_Antipodal(t *testing.T) {
	halfCircumference := math.Pi * EarthRadiusKM

	d := Haversine(45, 0, -45, 180)
	if math.IsNaN(d) || math.Abs(d-halfCircumference) > 0.01 {
		t.Errorf("Haversine() antipodal = %v km, expected %.2f km", d, halfCircumference)
	}

	for lat := -89.0; lat <= 89.0; lat += 0.5 {
		for dLon := 179.0; dLon <= 180.0; dLon += 0.25 {
			d := Haversine(lat, 0, -lat, dLon)
			if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 || d > halfCircumference+1e-6 {
				t.Fatalf("Haversine(%v, 0, %v, %v) = %v, expected a finite distance up to %.2f km",
					lat, -lat, dLon, d, halfCircumference)
			}
		}
	}
}

func TestBuildMatrix_AntipodalPoints(t *testing.T) {
	m := BuildMatrix([]Location{
		{Latitude: -88.5, Longitude: 0},
		{Latitude: 88.5, Longitude: 180},
		{Latitude: 0, Longitude: 90},
	})
	for i := range m {
		for j := range m[i] {
			if math.IsNaN(m[i][j]) || math.IsInf(m[i][j], 0) {
				t.Errorf("m[%d][%d] = %v, expected a finite distance", i, j, m[i][j])
			}
		}
	}
}

func TestDistanceAcrossAntimeridian(t *testing.T) {
	d := Distance(Location{Latitude: 0, Longitude: 179.9}, Location{Latitude: 0, Longitude: -179.9})
	if d > 23 || d < 22 {
		t.Errorf("Distance() across the antimeridian = %.2f km, expected ~22.2 km", d)
	}
}

func TestBuildMatrix(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		m := BuildMatrix(nil)
		if len(m) != 0 {
			t.Errorf("expected empty matrix, got %d rows", len(m))
		}
	})

	t.Run("single point", func(t *testing.T) {
		m := BuildMatrix([]Location{{Latitude: 10, Longitude: 20}})
		if len(m) != 1 || len(m[0]) != 1 {
			t.Fatalf("expected 1x1 matrix, got %v", m)
		}
		if m[0][0] != 0 {
			t.Errorf("expected zero diagonal, got %v", m[0][0])
		}
	})

	t.Run("square and symmetric", func(t *testing.T) {
		points := []Location{
			{Latitude: 0, Longitude: 0},
			{Latitude: 0, Longitude: 1},
			{Latitude: 1, Longitude: 1},
			{Latitude: 1, Longitude: 0},
			{Latitude: 40.7128, Longitude: -74.0060},
		}
		m := BuildMatrix(points)

		if len(m) != len(points) {
			t.Fatalf("expected %d rows, got %d", len(points), len(m))
		}
		for i := range m {
			if len(m[i]) != len(points) {
				t.Fatalf("row %d has %d columns, expected %d", i, len(m[i]), len(points))
			}
			if m[i][i] != 0 {
				t.Errorf("m[%d][%d] = %v, expected 0", i, i, m[i][i])
			}
			for j := range m[i] {
				if m[i][j] != m[j][i] {
					t.Errorf("m[%d][%d] = %v != m[%d][%d] = %v", i, j, m[i][j], j, i, m[j][i])
				}
				if i != j && m[i][j] != Distance(points[i], points[j]) {
					t.Errorf("m[%d][%d] = %v does not match Distance()", i, j, m[i][j])
				}
			}
		}
	})
}

func TestCalculateMetrics(t *testing.T) {
	t.Run("no legs", func(t *testing.T) {
		metrics := CalculateMetrics([]Location{{Latitude: 1, Longitude: 1}})
		if metrics != (DistanceMetrics{}) {
			t.Errorf("expected zero metrics, got %+v", metrics)
		}
	})

	t.Run("unit square perimeter", func(t *testing.T) {
		route := []Location{
			{Latitude: 0, Longitude: 0},
			{Latitude: 0, Longitude: 1},
			{Latitude: 1, Longitude: 1},
			{Latitude: 1, Longitude: 0},
			{Latitude: 0, Longitude: 0},
		}
		metrics := CalculateMetrics(route)

		if metrics.TotalLegs != 4 {
			t.Errorf("expected 4 legs, got %d", metrics.TotalLegs)
		}
		if math.Abs(metrics.TotalDistanceKM-4*111.19) > 0.5 {
			t.Errorf("expected total ~444.8 km, got %.2f", metrics.TotalDistanceKM)
		}
		if metrics.MinLegKM > metrics.AvgLegKM || metrics.AvgLegKM > metrics.MaxLegKM {
			t.Errorf("expected min <= avg <= max, got %+v", metrics)
		}
	})
}

func TestDegreesToRadians(t *testing.T) {
	tests := []struct {
		degrees  float64
		expected float64
	}{
		{0, 0},
		{90, math.Pi / 2},
		{180, math.Pi},
		{360, 2 * math.Pi},
		{-90, -math.Pi / 2},
	}

	for _, tt := range tests {
		result := degreesToRadians(tt.degrees)
		if math.Abs(result-tt.expected) > 0.0001 {
			t.Errorf("degreesToRadians(%.2f) = %.4f, expected %.4f", tt.degrees, result, tt.expected)
		}
	}
}

func BenchmarkHaversine(b *testing.B) {
	lat1, lon1 := 40.736097, -74.039373
	lat2, lon2 := 40.748817, -73.985428

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Haversine(lat1, lon1, lat2, lon2)
	}
}

func BenchmarkBuildMatrix(b *testing.B) {
	points := make([]Location, 200)
	for i := range points {
		points[i] = Location{
			Latitude:  40.736097 + float64(i)*0.001,
			Longitude: -74.039373 + float64(i)*0.001,
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		BuildMatrix(points)
	}
}
