package solver

import (
	"fmt"
	"math"
	"slices"
)

// AnnealConfig holds the cooling schedule and collaborators for Anneal.
type AnnealConfig struct {
	// InitialTemp is the starting temperature; must be > 0.
	InitialTemp float64
	// CoolingRate multiplies the temperature after every iteration; must be in (0, 1).
	CoolingRate float64
	// StoppingTemp ends the run once the temperature falls to or below it; must be > 0.
	StoppingTemp float64

	// Rand supplies the random draws. nil means a time-seeded source.
	Rand RandSource
	// Checkpoint, if non-nil, runs before every iteration.
	Checkpoint Checkpoint
}

// DefaultAnnealConfig returns the standard schedule, cooling from 1000 to 1e-3 at 0.995 per step.
func DefaultAnnealConfig() AnnealConfig {
	return AnnealConfig{
		InitialTemp:  1000,
		CoolingRate:  0.995,
		StoppingTemp: 1e-3,
	}
}

func (c AnnealConfig) validate() error {
	if !(c.InitialTemp > 0) || math.IsInf(c.InitialTemp, 0) {
		return fmt.Errorf("%w: initial temperature %g", ErrInvalidInput, c.InitialTemp)
	}
	if !(c.CoolingRate > 0 && c.CoolingRate < 1) {
		return fmt.Errorf("%w: cooling rate %g not in (0, 1)", ErrInvalidInput, c.CoolingRate)
	}
	if !(c.StoppingTemp > 0) {
		return fmt.Errorf("%w: stopping temperature %g", ErrInvalidInput, c.StoppingTemp)
	}
	return nil
}

// Iterations returns how many iterations the schedule runs.
func (c AnnealConfig) Iterations() int {
	if c.validate() != nil {
		return 0
	}
	var k int
	for t := c.InitialTemp; t > c.StoppingTemp; t *= c.CoolingRate {
		k++
	}
	return k
}

// Anneal improves initial with simulated annealing and returns the best tour seen.
//
// Each iteration reverses the inclusive range between two distinct interior
// positions drawn uniformly from [1, L−2], so the first and last positions never
// move. A better neighbor is always accepted; a worse one with probability
// exp((current−candidate)/T). The temperature is multiplied by CoolingRate after
// every iteration until it reaches StoppingTemp.
//
// An interrupted run returns the best tour so far with the ErrInterrupted error.
// Anneal needs at least 3 points. A tour with fewer than two interior positions
// has no neighbor and is returned unchanged.
func Anneal(initial Tour, m Matrix, cfg AnnealConfig) (Tour, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if n := m.Size(); n < 3 {
		return nil, fmt.Errorf("%w: annealing needs at least 3 points, got %d", ErrInvalidInput, n)
	}
	if err := validateTour(initial, m.Size()); err != nil {
		return nil, err
	}

	rng := cfg.Rand
	if rng == nil {
		rng = NewRand(0)
	}

	current := initial.Clone()
	currentCost := cost(current, m)
	best := current.Clone()
	bestCost := currentCost

	interior := len(current) - 2
	if interior < 2 {
		return best, nil
	}

	candidate := make(Tour, len(current))
	cp := &checkpointer{fn: cfg.Checkpoint}

	for temp := cfg.InitialTemp; temp > cfg.StoppingTemp; temp *= cfg.CoolingRate {
		if err := cp.check(); err != nil {
			return best, err
		}

		i, j := interiorPair(rng, interior)
		copy(candidate, current)
		slices.Reverse(candidate[i : j+1])
		candidateCost := cost(candidate, m)

		if acceptance(currentCost, candidateCost, temp) > rng.Float64() {
			current, candidate = candidate, current
			currentCost = candidateCost

			if currentCost < bestCost {
				copy(best, current)
				bestCost = currentCost
			}
		}
	}

	return best, nil
}

// interiorPair draws i < j uniformly from the k interior positions [1, k].
func interiorPair(rng RandSource, k int) (int, int) {
	i := 1 + rng.IntN(k)
	j := 1 + rng.IntN(k-1)
	if j >= i {
		j++
	}
	if j < i {
		i, j = j, i
	}
	return i, j
}

func acceptance(currentCost, candidateCost, temp float64) float64 {
	if candidateCost < currentCost {
		return 1
	}
	return math.Exp((currentCost - candidateCost) / temp)
}
