package qreality

var entanglementStrength = Range{Min: 0.5, Max: 1.0}

// maxEntangledPartners is how many live states an entanglement collapse pulls in.
const maxEntangledPartners = 2

/*
Entangle synchronizes the signals of two live states in one shot.

Every sample of both signals is replaced by the average of the pair, scaled by
strength, and the result is renormalized. Nothing about the pairing is kept:
once the signals match, the two states evolve independently again.

Signals of different lengths are synchronized over their common prefix. It
reports false when the pair is unusable (nil, the same state, or already
collapsed).
*/
func Entangle(a, b *State, strength float64) bool {
	if a == nil || b == nil || a == b || a.Collapsed() || b.Collapsed() {
		return false
	}

	n := min(len(a.Wave), len(b.Wave))
	for i := 0; i < n; i++ {
		avg := (a.Wave[i] + b.Wave[i]) / 2 * strength
		a.Wave[i] = avg
		b.Wave[i] = avg
	}

	a.Wave.Normalize()
	b.Wave.Normalize()
	return true
}
