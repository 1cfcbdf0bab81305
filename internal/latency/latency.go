// Package latency provides deterministic delay models for entities that
// re-emit messages into the timeline. Every model is seeded or constant:
// the same configuration always produces the same delay sequence.
package latency

import (
	"math/rand"

	"github.com/yanun0323/errors"
)

// Model yields the delay, in nanoseconds, to apply to the next emission.
// Implementations must be deterministic across runs.
type Model interface {
	Delay() int64
}

// Constant always returns the same delay.
type Constant struct {
	Nanos int64
}

// NewConstant builds a constant model. The delay must be positive so an
// emission never lands at or before the observation that caused it.
func NewConstant(nanos int64) (*Constant, error) {
	if nanos <= 0 {
		return nil, errors.Errorf("constant latency %d must be positive", nanos)
	}
	return &Constant{Nanos: nanos}, nil
}

func (c *Constant) Delay() int64 { return c.Nanos }

// Uniform draws delays uniformly from [Min, Max] using a seeded generator.
type Uniform struct {
	min int64
	max int64
	rng *rand.Rand
}

// NewUniform builds a seeded uniform model.
func NewUniform(min, max, seed int64) (*Uniform, error) {
	if min <= 0 {
		return nil, errors.Errorf("uniform latency min %d must be positive", min)
	}
	if max < min {
		return nil, errors.Errorf("uniform latency max %d below min %d", max, min)
	}
	return &Uniform{
		min: min,
		max: max,
		rng: rand.New(rand.NewSource(seed)),
	}, nil
}

func (u *Uniform) Delay() int64 {
	if u.max == u.min {
		return u.min
	}
	return u.min + u.rng.Int63n(u.max-u.min+1)
}
