package qreality

import (
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
)

/*
RNG is the engine's single source of randomness. Every creation parameter,
collapse draw and identifier comes from it, so a fixed seed reproduces a run.
*/
type RNG struct {
	stream *rand.ChaCha8
	r      *rand.Rand
}

// NewRNG creates a deterministic RNG from the provided seed.
func NewRNG(seed uint64) *RNG {
	var key [32]byte
	for i := 0; i < 4; i++ {
		for j := 0; j < 8; j++ {
			key[i*8+j] = byte((seed + uint64(i)*0x9e3779b97f4a7c15) >> (8 * j))
		}
	}

	stream := rand.NewChaCha8(key)
	return &RNG{stream: stream, r: rand.New(stream)}
}

// Float64 returns a value in [0, 1).
func (rng *RNG) Float64() float64 {
	return rng.r.Float64()
}

// Range returns a value uniformly drawn from [lo, hi).
func (rng *RNG) Range(r Range) float64 {
	return r.Min + (r.Max-r.Min)*rng.r.Float64()
}

// Direction returns a uniformly distributed unit vector.
func (rng *RNG) Direction() Vec3 {
	z := 2*rng.r.Float64() - 1
	theta := 2 * math.Pi * rng.r.Float64()
	rxy := math.Sqrt(1 - z*z)
	return Vec3{X: rxy * math.Cos(theta), Y: rxy * math.Sin(theta), Z: z}
}

// ID returns a random v4 uuid read from the seeded stream.
func (rng *RNG) ID() string {
	id, err := uuid.NewRandomFromReader(rng.stream)
	if err != nil {
		// ChaCha8 reads never fail.
		return uuid.Nil.String()
	}
	return id.String()
}

/*
Range is a closed interval used for randomized creation parameters.
*/
type Range struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
}

func (r Range) valid() bool {
	return r.Min <= r.Max
}
