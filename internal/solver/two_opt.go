package solver

import "slices"

// improvementEps is the minimum cost reduction for a move to count, relative
// to the current best cost.
const improvementEps = 1e-12

// TwoOpt runs first-improvement 2-opt on initial and returns the improved tour.
//
// Edge positions i and j name the edges entering tour[i] and tour[j]; a move
// reverses tour[i:j], replacing those two edges. Pairs with 1 ≤ i < L−2 and
// i+2 ≤ j ≤ L−2 are scanned in order (adjacent edges skipped); the first
// candidate whose re-scored cost is strictly lower is accepted and the scan
// restarts. The first and last positions never move, so open and closed tours
// keep their shape. The result is a permutation of the input whose cost is not
// higher; a locally optimal input comes back unchanged.
//
// check, if non-nil, runs before every scan row. When it aborts the run,
// TwoOpt returns the best tour so far together with the ErrInterrupted error.
//
// Complexity: O(L²) candidates per pass, each re-scored in O(L), with no bound
// on the number of passes. Large inputs should pass a Checkpoint.
func TwoOpt(initial Tour, m Matrix, check Checkpoint) (Tour, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := validateTour(initial, m.Size()); err != nil {
		return nil, err
	}

	best := initial.Clone()
	bestCost := cost(best, m)
	candidate := make(Tour, len(best))
	cp := &checkpointer{fn: check}
	L := len(best)

	for {
		improved := false

	scan:
		for i := 1; i < L-2; i++ {
			if err := cp.check(); err != nil {
				return best, err
			}
			for j := i + 2; j < L-1; j++ {
				copy(candidate, best)
				slices.Reverse(candidate[i:j])

				if c := cost(candidate, m); c < bestCost-improvementEps*bestCost {
					best, candidate = candidate, best
					bestCost = c
					improved = true
					break scan
				}
			}
		}

		if !improved {
			return best, nil
		}
	}
}
