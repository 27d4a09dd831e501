package simulation

import (
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// Rand is the randomness the simulator draws from
type Rand interface {
	// Float64 returns a value in [0, 1)
	Float64() float64
	// IntN returns a value in [0, n)
	IntN(n int) int
}

type fakerRand struct {
	f *gofakeit.Faker
}

// NewRand returns a seeded source; seed 0 seeds from the clock
func NewRand(seed uint64) Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &fakerRand{f: gofakeit.New(seed)}
}

func (r *fakerRand) Float64() float64 {
	return r.f.Float64()
}

func (r *fakerRand) IntN(n int) int {
	if n <= 1 {
		return 0
	}
	return r.f.Number(0, n-1)
}

func pick[T any](r Rand, items []T) T {
	return items[r.IntN(len(items))]
}
