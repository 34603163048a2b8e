package qreality

/*
SpawnThrottle is a token bucket a host puts in front of Engine.CreateState.

The engine does not queue or refuse spawn requests beyond its capacity, so a
host that spawns from high-frequency input should throttle itself; this is
the regulator it can use for that. Tokens refill with simulation time rather
than wall time, so a paused simulation does not bank spawns.

It also watches the engine: after an emergency reset the bucket is emptied,
giving the simulation a moment before the host starts spawning again.
*/
type SpawnThrottle struct {
	tokens    float64
	maxTokens float64
	perSecond float64

	lastResets int
}

/*
NewSpawnThrottle creates a full bucket holding burst tokens, refilled at
perSecond tokens per simulated second.
*/
func NewSpawnThrottle(burst int, perSecond float64) *SpawnThrottle {
	return &SpawnThrottle{
		tokens:    float64(burst),
		maxTokens: float64(burst),
		perSecond: perSecond,
	}
}

// Advance refills the bucket for dt seconds of simulation.
func (st *SpawnThrottle) Advance(dt float64) {
	if dt <= 0 {
		return
	}
	st.tokens = min(st.maxTokens, st.tokens+dt*st.perSecond)
}

/*
Observe implements Regulator. A new emergency reset in the metrics empties
the bucket.
*/
func (st *SpawnThrottle) Observe(metrics *Metrics) {
	if metrics == nil {
		return
	}
	if metrics.EmergencyResets > st.lastResets {
		st.tokens = 0
	}
	st.lastResets = metrics.EmergencyResets
}

/*
Limit implements Regulator. It consumes a token when one is available and
reports false; otherwise it reports true and the spawn should be skipped.
*/
func (st *SpawnThrottle) Limit() bool {
	if st.tokens >= 1 {
		st.tokens--
		return false
	}
	return true
}

// Renormalize implements Regulator by refilling the bucket completely.
func (st *SpawnThrottle) Renormalize() {
	st.tokens = st.maxTokens
}

// Tokens reports how many spawns are currently available.
func (st *SpawnThrottle) Tokens() float64 {
	return st.tokens
}
