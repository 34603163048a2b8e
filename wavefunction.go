// wavefunction.go
package qreality

import (
	"math"
)

const (
	// DefaultWaveLength is the number of samples in every state's signal.
	DefaultWaveLength = 32

	evolveTimeFrequency = 2.0
	evolvePhaseStep     = 0.1
	degenerateMagnitude = 1e-9
	synthesisScaleLow   = 0.5
	synthesisScaleHigh  = 1.0
)

/*
WaveFunction is the fixed-length sampled signal carried by a state.
It is kept at unit magnitude after every update, unless the update left it
degenerate, in which case it is left as is until the next update.
*/
type WaveFunction []float64

/*
Synthesize builds a signal of the given length where each sample follows a
half-period sine, scaled by an independent random factor:

	sample[i] = sin(i·π/halfLength) · scale_i

The result is normalized before it is returned.
*/
func Synthesize(length int, rng *RNG) WaveFunction {
	if length <= 0 {
		length = DefaultWaveLength
	}

	half := float64(length) / 2
	wf := make(WaveFunction, length)
	for i := range wf {
		scale := rng.Range(Range{Min: synthesisScaleLow, Max: synthesisScaleHigh})
		wf[i] = math.Sin(float64(i)*math.Pi/half) * scale
	}

	wf.Normalize()
	return wf
}

/*
Magnitude returns the euclidean norm of the signal.
*/
func (wf WaveFunction) Magnitude() float64 {
	var sum float64
	for _, s := range wf {
		sum += s * s
	}
	return math.Sqrt(sum)
}

/*
Normalize scales the signal to unit magnitude in place. It reports false and
leaves the samples untouched when the magnitude is too small to divide by.
*/
func (wf WaveFunction) Normalize() bool {
	mag := wf.Magnitude()
	if mag < degenerateMagnitude {
		return false
	}

	for i := range wf {
		wf[i] /= mag
	}
	return true
}

/*
Evolve advances the signal to the given elapsed time by multiplying each sample
with cos(elapsed·k1 + i·k2), then renormalizes.
*/
func (wf WaveFunction) Evolve(elapsed float64) bool {
	for i := range wf {
		wf[i] *= math.Cos(elapsed*evolveTimeFrequency + float64(i)*evolvePhaseStep)
	}
	return wf.Normalize()
}

/*
Decay applies a periodic damping envelope to a scalar amplitude. The envelope
is exp(-rate·t) modulated by |cos(period·t)|, used to make an effect fade
while it pulses.
*/
func Decay(amplitude, rate, period, t float64) float64 {
	return amplitude * math.Exp(-rate*t) * math.Abs(math.Cos(period*t))
}
