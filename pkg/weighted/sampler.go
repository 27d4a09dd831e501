// Package weighted draws labels from categorical distributions.
package weighted

import (
	"math"

	"clickstream/pkg/errors"
)

// Tolerance is how far a distribution's total may drift from 1.0
const Tolerance = 1e-6

// Source is the randomness a Sampler draws from
type Source interface {
	// Float64 returns a value in [0, 1)
	Float64() float64
}

// Choice pairs a label with its probability
type Choice[T comparable] struct {
	Label  T
	Weight float64
}

// Sampler draws labels in proportion to their weights.
// Choices keep their declared order so a seeded Source yields reproducible draws.
type Sampler[T comparable] struct {
	choices    []Choice[T]
	cumulative []float64
}

// New validates the distribution: at least one choice, no duplicates,
// no negative weights, total within Tolerance of 1.0.
func New[T comparable](choices []Choice[T]) (*Sampler[T], error) {
	if len(choices) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidWeights, "distribution has no choices")
	}

	seen := make(map[T]struct{}, len(choices))
	cumulative := make([]float64, len(choices))
	total := 0.0
	for i, c := range choices {
		if _, dup := seen[c.Label]; dup {
			return nil, errors.Wrapf(errors.ErrInvalidWeights, "duplicate label %v", c.Label)
		}
		seen[c.Label] = struct{}{}

		if c.Weight < 0 || math.IsNaN(c.Weight) || math.IsInf(c.Weight, 0) {
			return nil, errors.Wrapf(errors.ErrInvalidWeights, "label %v has weight %v", c.Label, c.Weight)
		}
		total += c.Weight
		cumulative[i] = total
	}

	if math.Abs(total-1.0) > Tolerance {
		return nil, errors.Wrapf(errors.ErrInvalidWeights, "weights sum to %v", total)
	}

	return &Sampler[T]{
		choices:    append([]Choice[T](nil), choices...),
		cumulative: cumulative,
	}, nil
}

// Sample draws one label
func (s *Sampler[T]) Sample(src Source) T {
	u := src.Float64() * s.cumulative[len(s.cumulative)-1]
	for i, c := range s.cumulative {
		if u < c && s.choices[i].Weight > 0 {
			return s.choices[i].Label
		}
	}

	// u landed on the rounding tail; return the last label that can be drawn
	for i := len(s.choices) - 1; i >= 0; i-- {
		if s.choices[i].Weight > 0 {
			return s.choices[i].Label
		}
	}
	return s.choices[len(s.choices)-1].Label
}

// Weight returns the probability of label, 0 when absent
func (s *Sampler[T]) Weight(label T) float64 {
	for _, c := range s.choices {
		if c.Label == label {
			return c.Weight
		}
	}
	return 0
}
