// Package solver builds and improves tours over a distance matrix: a greedy
// nearest-neighbor constructor, a first-improvement 2-opt local search and a
// simulated annealing improver, plus the tour cost evaluator they share.
//
// Every function is synchronous and pure. Inputs are never mutated; improvers
// return freshly allocated tours. The only nondeterminism is the random source
// handed to Anneal.
package solver

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel errors. Callers should test with errors.Is; returned errors carry detail.
var (
	ErrInvalidInput    = errors.New("solver: invalid input")
	ErrIndexOutOfRange = errors.New("solver: index out of range")
	ErrMalformedMatrix = errors.New("solver: malformed distance matrix")
	ErrInterrupted     = errors.New("solver: interrupted")
)

// Matrix is a square matrix of non-negative distances in kilometers.
// m[i][j] is the cost of the edge from i to j. It is read-only for all solver functions.
type Matrix [][]float64

// Tour is an ordered sequence of matrix indices. An open tour is a permutation
// of [0, n); a closed tour additionally repeats its first index at the end.
type Tour []int

// Size returns the matrix order n.
func (m Matrix) Size() int {
	return len(m)
}

// symmetryTol is the relative tolerance for m[i][j] == m[j][i].
const symmetryTol = 1e-9

// Validate checks that m is square, holds only finite, non-negative values and
// is symmetric within symmetryTol.
//
// Complexity: O(n²).
func (m Matrix) Validate() error {
	n := len(m)
	for i, row := range m {
		if len(row) != n {
			return fmt.Errorf("%w: row %d has %d columns, expected %d", ErrMalformedMatrix, i, len(row), n)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: non-finite value at [%d][%d]", ErrMalformedMatrix, i, j)
			}
			if v < 0 {
				return fmt.Errorf("%w: negative value %g at [%d][%d]", ErrMalformedMatrix, v, i, j)
			}
		}
	}
	for i := range m {
		for j := i + 1; j < n; j++ {
			if !nearlyEqual(m[i][j], m[j][i], symmetryTol) {
				return fmt.Errorf("%w: asymmetric entries [%d][%d] = %g and [%d][%d] = %g",
					ErrMalformedMatrix, i, j, m[i][j], j, i, m[j][i])
			}
		}
	}
	return nil
}

// nearlyEqual reports whether a and b differ by at most rel times the larger
// magnitude, with an absolute floor of rel for values below 1.
func nearlyEqual(a, b, rel float64) bool {
	return math.Abs(a-b) <= rel*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

// IsSymmetric reports whether |m[i][j] - m[j][i]| <= tol for every pair.
// It assumes m is square. Validate applies a relative check instead.
func (m Matrix) IsSymmetric(tol float64) bool {
	for i := range m {
		for j := i + 1; j < len(m); j++ {
			if math.Abs(m[i][j]-m[j][i]) > tol {
				return false
			}
		}
	}
	return true
}

// Closed reports whether t ends where it starts (and visits more than one index).
func (t Tour) Closed() bool {
	return len(t) > 1 && t[0] == t[len(t)-1]
}

// Clone returns a copy of t.
func (t Tour) Clone() Tour {
	out := make(Tour, len(t))
	copy(out, t)
	return out
}

// Close returns a copy of t with its first index appended at the end.
// Empty and already closed tours are returned as a copy.
func (t Tour) Close() Tour {
	if len(t) == 0 || t.Closed() {
		return t.Clone()
	}
	out := make(Tour, len(t), len(t)+1)
	copy(out, t)
	return append(out, t[0])
}

// validateTour checks that t is an open or closed tour over all n indices.
func validateTour(t Tour, n int) error {
	if len(t) == 0 {
		return fmt.Errorf("%w: empty tour", ErrInvalidInput)
	}
	body := t
	if len(t) == n+1 && t.Closed() {
		body = t[:n]
	}
	if len(body) != n {
		return fmt.Errorf("%w: tour has %d entries for %d points", ErrInvalidInput, len(t), n)
	}

	seen := make([]bool, n)
	for pos, v := range body {
		if v < 0 || v >= n {
			return fmt.Errorf("%w: tour[%d] = %d not in [0, %d)", ErrIndexOutOfRange, pos, v, n)
		}
		if seen[v] {
			return fmt.Errorf("%w: index %d visited twice", ErrInvalidInput, v)
		}
		seen[v] = true
	}
	return nil
}

// IsPermutation reports whether t is a valid open or closed tour over n indices.
func IsPermutation(t Tour, n int) bool {
	return validateTour(t, n) == nil
}
