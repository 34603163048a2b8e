package qreality

// DistortionKind tags the kind of area effect a distortion applies.
type DistortionKind int

const (
	DistortionSpaceTime DistortionKind = iota
)

func (k DistortionKind) String() string {
	switch k {
	case DistortionSpaceTime:
		return "spacetime"
	default:
		return "unknown"
	}
}

var (
	distortionRadius    = Range{Min: 3, Max: 8}
	distortionIntensity = Range{Min: 0.3, Max: 1.0}
	distortionDuration  = Range{Min: 3, Max: 8}
)

const (
	distortionFadeRate   = 0.2
	distortionPulseSpeed = 1.5
)

/*
Distortion is a timed area-of-effect record left behind by the collapse of a
superposition.
*/
type Distortion struct {
	ID        string
	Kind      DistortionKind
	Center    Vec3
	Radius    float64
	Intensity float64
	Duration  float64
	Remaining float64
}

func newDistortion(rng *RNG, center Vec3) *Distortion {
	duration := rng.Range(distortionDuration)
	return &Distortion{
		ID:        rng.ID(),
		Kind:      DistortionSpaceTime,
		Center:    center,
		Radius:    rng.Range(distortionRadius),
		Intensity: rng.Range(distortionIntensity),
		Duration:  duration,
		Remaining: duration,
	}
}

func (d *Distortion) Key() string {
	return d.ID
}

func (d *Distortion) Expire(dt float64) bool {
	d.Remaining -= dt
	return d.Remaining <= 0
}

// Contains reports whether p lies inside the distortion's radius.
func (d *Distortion) Contains(p Vec3) bool {
	return d.Center.Sub(p).LengthSq() <= d.Radius*d.Radius
}

/*
CurrentIntensity is the intensity after fading with age, pulsing as it goes.
*/
func (d *Distortion) CurrentIntensity() float64 {
	return Decay(d.Intensity, distortionFadeRate, distortionPulseSpeed, d.Duration-d.Remaining)
}
