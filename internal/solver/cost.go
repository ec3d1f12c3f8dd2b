package solver

import (
	"fmt"
	"math"
)

// TourCost sums m[t[k]][t[k+1]] over consecutive entries of t.
// Tours of length ≤ 1 cost 0.
//
// Complexity: O(len(t)).
func TourCost(t Tour, m Matrix) (float64, error) {
	n := len(m)
	var sum float64
	for k := 0; k < len(t)-1; k++ {
		u, v := t[k], t[k+1]
		if u < 0 || u >= n || v < 0 || v >= n {
			return 0, fmt.Errorf("%w: edge %d->%d with %d points", ErrIndexOutOfRange, u, v, n)
		}
		if len(m[u]) <= v {
			return 0, fmt.Errorf("%w: row %d too short", ErrMalformedMatrix, u)
		}
		w := m[u][v]
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return 0, fmt.Errorf("%w: non-finite edge %d->%d", ErrMalformedMatrix, u, v)
		}
		sum += w
	}
	return sum, nil
}

// cost is the unchecked hot-path variant used by the improvers once the inputs
// have been validated.
func cost(t Tour, m Matrix) float64 {
	var sum float64
	for k := 0; k < len(t)-1; k++ {
		sum += m[t[k]][t[k+1]]
	}
	return sum
}
