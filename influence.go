package qreality

import "math"

const (
	// distanceFalloff is how fast influence drops with distance from a state.
	distanceFalloff = 0.1

	scaleSwing     = 0.5
	alphaSwing     = 0.5
	alphaFrequency = 4.0
	scaleFrequency = 3.0
	yawFrequency   = 2.0
)

// Per-axis frequencies and phases of the superposition wobble.
var (
	wobbleFrequency = Vec3{X: 1.3, Y: 1.7, Z: 2.3}
	wobblePhase     = Vec3{X: 0, Y: 1, Z: 2}
)

/*
InfluenceRecord is the engine's memory of one affected entity. Original is
captured the first time the entity falls inside a state's radius and is never
overwritten afterwards.
*/
type InfluenceRecord struct {
	Entity    EntityID
	Original  Transform
	Influence float64
}

/*
InfluenceTracker applies live states to nearby host entities.

Influence on an entity only ever rises through exposure, to the strongest
state currently touching it, and falls geometrically every tick. Each state
moves an entity toward its own target by interpolation, so overlapping states
blend instead of fighting, though which one wins a given tick depends on the
order the states are visited in.
*/
type InfluenceTracker struct {
	records map[EntityID]*InfluenceRecord

	radius       float64
	decay        float64
	blendRate    float64
	rotationRate float64
}

func NewInfluenceTracker(cfg *Config) *InfluenceTracker {
	return &InfluenceTracker{
		records:      make(map[EntityID]*InfluenceRecord),
		radius:       cfg.InfluenceRadius,
		decay:        cfg.InfluenceDecay,
		blendRate:    cfg.BlendRate,
		rotationRate: cfg.RotationRate,
	}
}

// Decay scales every record's influence down by the decay factor.
func (it *InfluenceTracker) Decay() {
	for _, rec := range it.records {
		rec.Influence *= it.decay
	}
}

/*
Apply finds the entities around state, raises their influence and moves them
according to the state's variant, with influence times fieldStrength as the
amplitude. It returns the number of entities touched.
*/
func (it *InfluenceTracker) Apply(state *State, fieldStrength float64, host Host, now, dt float64) int {
	touched := 0

	for _, id := range host.QueryRadius(state.Position, it.radius) {
		current, ok := host.Transform(id)
		if !ok {
			continue
		}

		rec, exists := it.records[id]
		if !exists {
			rec = &InfluenceRecord{Entity: id, Original: current}
			it.records[id] = rec
		}

		distance := current.Position.Distance(state.Position)
		rec.Influence = math.Max(rec.Influence, state.Probability/(1+distanceFalloff*distance))

		it.transform(state.Variant, rec, current, rec.Influence*fieldStrength, host, now, dt)
		touched++
	}

	return touched
}

func (it *InfluenceTracker) transform(
	variant Variant, rec *InfluenceRecord, current Transform, amplitude float64, host Host, now, dt float64,
) {
	blend := dt * it.blendRate

	switch variant {
	case VariantSuperposition:
		offset := Vec3{
			X: math.Sin(now*wobbleFrequency.X+wobblePhase.X) * amplitude,
			Y: math.Sin(now*wobbleFrequency.Y+wobblePhase.Y) * amplitude,
			Z: math.Sin(now*wobbleFrequency.Z+wobblePhase.Z) * amplitude,
		}
		current.Position = current.Position.Lerp(rec.Original.Position.Add(offset), blend)
		host.SetTransform(rec.Entity, current)

	case VariantEntanglement:
		multiplier := 1 + math.Sin(now*scaleFrequency)*amplitude*scaleSwing
		current.Scale = current.Scale.Lerp(rec.Original.Scale.Scale(multiplier), blend)
		host.SetTransform(rec.Entity, current)

	case VariantTunneling:
		surface, ok := host.(VisualSurface)
		if !ok {
			return
		}
		alpha, ok := surface.Alpha(rec.Entity)
		if !ok {
			return
		}
		target := clamp01(1 - amplitude*(alphaSwing+alphaSwing*math.Sin(now*alphaFrequency)))
		surface.SetAlpha(rec.Entity, lerp(alpha, target, blend))

	case VariantInterference:
		current.Yaw = math.Mod(current.Yaw+math.Sin(now*yawFrequency)*rec.Influence*it.rotationRate*dt, 360)
		host.SetTransform(rec.Entity, current)
	}
}

/*
Sweep forgets entities the host no longer considers valid. Hosts that do not
implement EntityValidator are trusted to keep every handle alive, and nothing
is removed. It returns the number of records dropped.
*/
func (it *InfluenceTracker) Sweep(host Host) int {
	validator, ok := host.(EntityValidator)
	if !ok {
		return 0
	}

	dropped := 0
	for id := range it.records {
		if !validator.Valid(id) {
			delete(it.records, id)
			dropped++
		}
	}
	return dropped
}

// Record returns a copy of the record kept for id.
func (it *InfluenceTracker) Record(id EntityID) (InfluenceRecord, bool) {
	rec, ok := it.records[id]
	if !ok {
		return InfluenceRecord{}, false
	}
	return *rec, true
}

func (it *InfluenceTracker) Len() int {
	return len(it.records)
}
