package qreality

/*
StateStore owns the bounded collection of live states.

Capacity is enforced at creation. Collapse is two-phase: Advance collects the
states that collapse during the pass and removes them from the live set only
once the pass is over, so no state is advanced after it collapsed and no
iteration ever sees a half-removed collection.
*/
type StateStore struct {
	states    []*State
	capacity  int
	threshold float64

	probability Range
	coherence   Range
	waveLength  int

	rng *RNG
}

func NewStateStore(cfg *Config, rng *RNG) *StateStore {
	return &StateStore{
		states:      make([]*State, 0, cfg.MaxStates),
		capacity:    cfg.MaxStates,
		threshold:   cfg.ProbabilityThreshold,
		probability: cfg.ProbabilityRange,
		coherence:   cfg.CoherenceRange,
		waveLength:  cfg.WaveLength,
		rng:         rng,
	}
}

/*
Create inserts a new state at position. It reports false, without touching the
store, when the store is full: running out of room is not an error.
*/
func (ss *StateStore) Create(position Vec3, variant Variant, now float64) (*State, bool) {
	if len(ss.states) >= ss.capacity || !variant.Valid() {
		return nil, false
	}

	state := &State{
		ID:          ss.rng.ID(),
		Position:    position,
		Variant:     variant,
		Probability: ss.rng.Range(ss.probability),
		Coherence:   ss.rng.Range(ss.coherence),
		Wave:        Synthesize(ss.waveLength, ss.rng),
		CreatedAt:   now,
	}

	ss.states = append(ss.states, state)
	return state, true
}

/*
Advance moves every live state forward by dt and returns those that collapsed.

timeScale, when not nil, scales dt per state; it must return a value in (0, 1]
so coherence keeps strictly decreasing. A state collapses when its coherence
is exhausted, or otherwise when a fresh draw falls below
(1 - probability) * threshold. Only one of the two ever applies.
*/
func (ss *StateStore) Advance(dt, now float64, timeScale func(*State) float64) []*State {
	var pending []*State

	for _, state := range ss.states {
		step := dt
		if timeScale != nil {
			step *= timeScale(state)
		}

		state.Coherence -= step
		state.Wave.Evolve(state.Age(now))

		if ss.shouldCollapse(state) && state.collapse() {
			pending = append(pending, state)
		}
	}

	if len(pending) > 0 {
		ss.removeCollapsed()
	}
	return pending
}

func (ss *StateStore) shouldCollapse(state *State) bool {
	if state.Coherence <= 0 {
		return true
	}
	return ss.rng.Float64() < (1-state.Probability)*ss.threshold
}

/*
ForceCollapseAll collapses every live state and empties the store. The
collapsed states are returned in creation order.
*/
func (ss *StateStore) ForceCollapseAll() []*State {
	collapsed := make([]*State, 0, len(ss.states))
	for _, state := range ss.states {
		if state.collapse() {
			collapsed = append(collapsed, state)
		}
	}

	ss.states = ss.states[:0]
	return collapsed
}

func (ss *StateStore) removeCollapsed() {
	live := ss.states[:0]
	for _, state := range ss.states {
		if !state.Collapsed() {
			live = append(live, state)
		}
	}

	for i := len(live); i < len(ss.states); i++ {
		ss.states[i] = nil
	}
	ss.states = live
}

/*
Near returns up to limit live states within radius of point, in creation
order. A limit of zero or less means no limit.
*/
func (ss *StateStore) Near(point Vec3, radius float64, limit int) []*State {
	var out []*State
	r2 := radius * radius

	for _, state := range ss.states {
		if state.Collapsed() {
			continue
		}
		if state.Position.Sub(point).LengthSq() > r2 {
			continue
		}

		out = append(out, state)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Live returns the live states. The slice is only valid until the next mutation.
func (ss *StateStore) Live() []*State {
	return ss.states
}

// Get returns the live state with the given id.
func (ss *StateStore) Get(id string) (*State, bool) {
	for _, state := range ss.states {
		if state.ID == id {
			return state, true
		}
	}
	return nil, false
}

func (ss *StateStore) Len() int {
	return len(ss.states)
}

func (ss *StateStore) Capacity() int {
	return ss.capacity
}

// MeanProbability is the average probability across live states, 0 when empty.
func (ss *StateStore) MeanProbability() float64 {
	if len(ss.states) == 0 {
		return 0
	}

	var sum float64
	for _, state := range ss.states {
		sum += state.Probability
	}
	return sum / float64(len(ss.states))
}
