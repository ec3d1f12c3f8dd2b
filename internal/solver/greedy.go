package solver

import (
	"fmt"
	"math"
)

// Greedy builds a tour by repeatedly moving to the nearest unvisited index,
// starting at start. Ties go to the lowest index, so the result is deterministic.
// It gives no optimality guarantee and exists to seed the improvers cheaply.
//
// Complexity: O(n²).
func Greedy(start int, m Matrix) (Tour, error) {
	n := m.Size()
	if n == 0 {
		return nil, fmt.Errorf("%w: no points", ErrInvalidInput)
	}
	if start < 0 || start >= n {
		return nil, fmt.Errorf("%w: start %d not in [0, %d)", ErrIndexOutOfRange, start, n)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	visited := make([]bool, n)
	tour := make(Tour, 1, n)
	tour[0] = start
	visited[start] = true

	current := start
	for len(tour) < n {
		best, bestDist := -1, math.Inf(1)
		for j := 0; j < n; j++ {
			if visited[j] {
				continue
			}
			// Strict comparison keeps the first index seen on ties.
			if d := m[current][j]; best < 0 || d < bestDist {
				best, bestDist = j, d
			}
		}

		tour = append(tour, best)
		visited[best] = true
		current = best
	}

	return tour, nil
}
