package qreality

var (
	tunnelTraversal = Range{Min: 0.3, Max: 0.9}
	tunnelDuration  = Range{Min: 5, Max: 10}
)

/*
Tunnel pairs an entry point with an exit point for a limited time. It is left
behind by the collapse of a tunneling state.
*/
type Tunnel struct {
	ID        string
	Entry     Vec3
	Exit      Vec3
	Traversal float64
	Duration  float64
	Remaining float64
}

/*
newTunnel places the exit in a random direction from entry, at a distance in
(0, maxOffset].
*/
func newTunnel(rng *RNG, entry Vec3, maxOffset float64) *Tunnel {
	// 1 - [0,1) keeps the offset strictly positive and never above maxOffset.
	distance := maxOffset * (1 - rng.Float64())
	duration := rng.Range(tunnelDuration)

	return &Tunnel{
		ID:        rng.ID(),
		Entry:     entry,
		Exit:      entry.Add(rng.Direction().Scale(distance)),
		Traversal: rng.Range(tunnelTraversal),
		Duration:  duration,
		Remaining: duration,
	}
}

func (t *Tunnel) Key() string {
	return t.ID
}

func (t *Tunnel) Expire(dt float64) bool {
	t.Remaining -= dt
	return t.Remaining <= 0
}

// Length is the distance between entry and exit.
func (t *Tunnel) Length() float64 {
	return t.Entry.Distance(t.Exit)
}

/*
Traverse decides, with the tunnel's traversal probability, whether something
standing at the entry passes through. draw must come from [0, 1).
*/
func (t *Tunnel) Traverse(draw float64) (Vec3, bool) {
	if draw < t.Traversal {
		return t.Exit, true
	}
	return t.Entry, false
}
