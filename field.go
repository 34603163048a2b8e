package qreality

/*
FieldGenerator tracks the single scalar field produced by the live states.
It has no lifecycle of its own; every tick it is recomputed from its inputs.
*/
type FieldGenerator struct {
	center   Vec3
	strength float64
	gain     float64
	response float64
}

func NewFieldGenerator(cfg *Config) *FieldGenerator {
	return &FieldGenerator{
		strength: cfg.FieldStrength,
		gain:     cfg.FieldGain,
		response: cfg.FieldResponse,
	}
}

/*
Update recomputes the field from the live states.

The center moves to the probability-weighted centroid of the states and holds
its last value when there are none. The strength eases toward the summed
probability times the gain, by a factor proportional to dt.
*/
func (fg *FieldGenerator) Update(states []*State, dt float64) {
	var (
		weighted Vec3
		total    float64
	)

	for _, state := range states {
		weighted = weighted.Add(state.Position.Scale(state.Probability))
		total += state.Probability
	}

	if total > 0 {
		fg.center = weighted.Scale(1 / total)
	}

	fg.strength = lerp(fg.strength, total*fg.gain, dt*fg.response)
}

func (fg *FieldGenerator) Center() Vec3 {
	return fg.center
}

func (fg *FieldGenerator) Strength() float64 {
	return fg.strength
}
