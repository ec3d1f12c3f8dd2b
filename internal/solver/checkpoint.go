package solver

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// Checkpoint is called by the improvers between units of work. A non-nil
// return aborts the improver, which reports it wrapped in ErrInterrupted.
// iteration counts calls made so far during the current run, starting at 0.
type Checkpoint func(iteration int) error

// ContextCheckpoint aborts an improver once ctx is canceled or past its deadline.
func ContextCheckpoint(ctx context.Context) Checkpoint {
	return func(int) error {
		return ctx.Err()
	}
}

// checkpointer wraps an optional Checkpoint with its iteration counter.
type checkpointer struct {
	fn Checkpoint
	i  int
}

func (c *checkpointer) check() error {
	if c.fn == nil {
		return nil
	}
	err := c.fn(c.i)
	c.i++
	if err != nil {
		return fmt.Errorf("%w after %d checkpoints: %w", ErrInterrupted, c.i, err)
	}
	return nil
}

// RandSource is the randomness Anneal draws from. *rand.Rand from math/rand/v2
// satisfies it. Implementations need not be safe for concurrent use; give
// each run its own source.
type RandSource interface {
	IntN(n int) int
	Float64() float64
}

// NewRand returns a deterministic PCG-backed source for seed.
// A zero seed picks a time-based seed.
func NewRand(seed int64) *rand.Rand {
	s := uint64(seed)
	if seed == 0 {
		s = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}
