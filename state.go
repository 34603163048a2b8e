package qreality

import (
	"fmt"
	"strings"
)

/*
Variant is the closed set of behaviors a state can carry. It selects both the
side effect of a collapse and the continuous transformation a live state
applies to nearby entities.
*/
type Variant int

const (
	VariantSuperposition Variant = iota
	VariantEntanglement
	VariantTunneling
	VariantInterference

	variantCount
)

// Adding a variant breaks this guard. Extend dispatchCollapse in collapse.go
// and transform in influence.go, then bump the constant.
func _() {
	var x [1]struct{}
	_ = x[variantCount-4]
}

var variantNames = [variantCount]string{
	VariantSuperposition: "superposition",
	VariantEntanglement:  "entanglement",
	VariantTunneling:     "tunneling",
	VariantInterference:  "interference",
}

func (v Variant) String() string {
	if v < 0 || v >= variantCount {
		return fmt.Sprintf("variant(%d)", int(v))
	}
	return variantNames[v]
}

// Valid reports whether v is one of the known variants.
func (v Variant) Valid() bool {
	return v >= 0 && v < variantCount
}

// Variants returns every known variant in declaration order.
func Variants() []Variant {
	out := make([]Variant, 0, variantCount)
	for v := Variant(0); v < variantCount; v++ {
		out = append(out, v)
	}
	return out
}

// ParseVariant resolves a variant from its name, case-insensitively.
func ParseVariant(name string) (Variant, error) {
	for v, n := range variantNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Variant(v), nil
		}
	}
	return 0, fmt.Errorf("unknown variant %q", name)
}

/*
State is one probabilistic effect anchored at a point in space.

Probability is drawn once at creation and never re-randomized. Coherence counts
down every tick and the wave function keeps its length for the whole life of
the state. A state collapses exactly once; after that it is no longer part of
any store.
*/
type State struct {
	ID          string
	Position    Vec3
	Variant     Variant
	Probability float64
	Coherence   float64
	Wave        WaveFunction
	CreatedAt   float64

	collapsed bool
}

// Collapsed reports whether the state has reached its terminal transition.
func (s *State) Collapsed() bool {
	return s.collapsed
}

// Age returns the simulation time the state has been alive for.
func (s *State) Age(now float64) float64 {
	return now - s.CreatedAt
}

// collapse marks the state as collapsed and reports whether this call did it.
func (s *State) collapse() bool {
	if s.collapsed {
		return false
	}
	s.collapsed = true
	return true
}

/*
Snapshot returns a copy of the state that shares no memory with the live one,
for handing to presentation hooks.
*/
func (s *State) Snapshot() State {
	out := *s
	out.Wave = append(WaveFunction(nil), s.Wave...)
	return out
}
